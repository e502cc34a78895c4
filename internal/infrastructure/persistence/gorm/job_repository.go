package gorm

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/grocerly/v1/internal/domain/enrichment"
	"github.com/grocerly/v1/internal/ports/outbound"
	"github.com/grocerly/v1/pkg/errors"
)

// PendingJobRepository implements the pending job repository using GORM
type PendingJobRepository struct {
	db *gorm.DB
}

// NewPendingJobRepository creates a new pending job repository
func NewPendingJobRepository(db *gorm.DB) outbound.PendingJobRepository {
	return &PendingJobRepository{db: db}
}

// Create persists a pending job record. The unique index on job_type
// backs up the in-process one-job-per-type guard.
func (r *PendingJobRepository) Create(ctx context.Context, job *enrichment.PendingJob) error {
	result := r.db.WithContext(ctx).Create(PendingJobToModel(job))
	if result.Error != nil {
		return errors.NewDatabaseError("create pending job", result.Error)
	}
	return nil
}

// Delete removes a pending job record. Idempotent: deleting an absent
// record is not an error, since completion and a concurrent purge may
// race.
func (r *PendingJobRepository) Delete(ctx context.Context, jobID string) error {
	result := r.db.WithContext(ctx).Delete(&PendingJobModel{}, "job_id = ?", jobID)
	if result.Error != nil {
		return errors.NewDatabaseError("delete pending job", result.Error)
	}
	return nil
}

// FindByType returns the pending job of the given type, or nil, nil when
// none is pending.
func (r *PendingJobRepository) FindByType(ctx context.Context, t enrichment.JobType) (*enrichment.PendingJob, error) {
	var model PendingJobModel

	result := r.db.WithContext(ctx).First(&model, "job_type = ?", string(t))
	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.NewDatabaseError("find pending job", result.Error)
	}

	return ModelToPendingJob(&model), nil
}

// FindAll returns every pending job record
func (r *PendingJobRepository) FindAll(ctx context.Context) ([]*enrichment.PendingJob, error) {
	var models []PendingJobModel

	result := r.db.WithContext(ctx).Order("started_at ASC").Find(&models)
	if result.Error != nil {
		return nil, errors.NewDatabaseError("list pending jobs", result.Error)
	}

	jobs := make([]*enrichment.PendingJob, len(models))
	for i := range models {
		jobs[i] = ModelToPendingJob(&models[i])
	}
	return jobs, nil
}
