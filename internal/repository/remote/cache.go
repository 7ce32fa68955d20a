package remote

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/admin-dashboard/internal/model"
	"github.com/jwalitptl/admin-dashboard/internal/repository"
	"github.com/jwalitptl/admin-dashboard/pkg/metrics"
)

// CacheConfig controls the enrichment lookup cache. A zero TTL disables it.
type CacheConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

type cachedDoctorRepository struct {
	repository.DoctorRepository
	cache   *cache.Cache
	metrics *metrics.Metrics
}

type cachedPatientRepository struct {
	repository.PatientRepository
	cache   *cache.Cache
	metrics *metrics.Metrics
}

// NewCachedDoctorRepository memoizes single-doctor lookups. Only successful
// lookups are cached and List is never cached.
func NewCachedDoctorRepository(next repository.DoctorRepository, cfg CacheConfig, m *metrics.Metrics) repository.DoctorRepository {
	if cfg.TTL <= 0 {
		return next
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &cachedDoctorRepository{
		DoctorRepository: next,
		cache:            cache.New(cfg.TTL, cfg.CleanupInterval),
		metrics:          m,
	}
}

func (r *cachedDoctorRepository) Get(ctx context.Context, id model.ID) (*model.Doctor, error) {
	if v, ok := r.cache.Get(id.String()); ok {
		r.metrics.CacheLookups.WithLabelValues("doctor", "hit").Inc()
		d := v.(model.Doctor)
		return &d, nil
	}
	r.metrics.CacheLookups.WithLabelValues("doctor", "miss").Inc()

	doctor, err := r.DoctorRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(id.String(), *doctor)
	return doctor, nil
}

func NewCachedPatientRepository(next repository.PatientRepository, cfg CacheConfig, m *metrics.Metrics) repository.PatientRepository {
	if cfg.TTL <= 0 {
		return next
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &cachedPatientRepository{
		PatientRepository: next,
		cache:             cache.New(cfg.TTL, cfg.CleanupInterval),
		metrics:           m,
	}
}

func (r *cachedPatientRepository) Get(ctx context.Context, id model.ID) (*model.Patient, error) {
	if v, ok := r.cache.Get(id.String()); ok {
		r.metrics.CacheLookups.WithLabelValues("patient", "hit").Inc()
		p := v.(model.Patient)
		return &p, nil
	}
	r.metrics.CacheLookups.WithLabelValues("patient", "miss").Inc()

	patient, err := r.PatientRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(id.String(), *patient)
	return patient, nil
}
