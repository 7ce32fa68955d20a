package remote

import (
	"context"
	"net/http"

	"github.com/jwalitptl/admin-dashboard/internal/model"
)

func (r *patientRepository) Get(ctx context.Context, id model.ID) (*model.Patient, error) {
	var patient model.Patient
	err := r.client.do(ctx, "get_patient", http.MethodGet,
		r.client.resolve(r.client.paths.Patient, id), nil, &patient)
	if err != nil {
		return nil, err
	}
	return &patient, nil
}
