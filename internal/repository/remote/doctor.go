package remote

import (
	"context"
	"net/http"

	"github.com/jwalitptl/admin-dashboard/internal/model"
)

func (r *doctorRepository) Get(ctx context.Context, id model.ID) (*model.Doctor, error) {
	var doctor model.Doctor
	err := r.client.do(ctx, "get_doctor", http.MethodGet,
		r.client.resolve(r.client.paths.Doctor, id), nil, &doctor)
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository) List(ctx context.Context) ([]model.Doctor, error) {
	var doctors []model.Doctor
	err := r.client.do(ctx, "list_doctors", http.MethodGet,
		r.client.resolve(r.client.paths.Doctors, ""), nil, &doctors)
	if err != nil {
		return nil, err
	}
	return doctors, nil
}
