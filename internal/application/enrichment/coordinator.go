// Package enrichment coordinates asynchronous calls to the external
// enrichment service: submit, persist for resumability, poll, time out,
// and garbage-collect stale jobs. The coordinator is the only component
// in the core that performs blocking network work; polling runs on
// cancellable background goroutines and completion is delivered over a
// channel owned by the caller's handle, never a shared singleton.
package enrichment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grocerly/v1/internal/domain/enrichment"
	"github.com/grocerly/v1/internal/ports/inbound"
	"github.com/grocerly/v1/internal/ports/outbound"
	"github.com/grocerly/v1/pkg/errors"
)

// Config tunes the coordinator.
type Config struct {
	// PollInterval is the fixed delay between status polls.
	PollInterval time.Duration
	// MaxBoundedAttempts caps polls for categorize-class jobs; exceeding
	// it yields a timeout the caller treats as a failure. List-polish
	// jobs poll indefinitely: the user is actively waiting on-screen.
	MaxBoundedAttempts int
	// StaleAfter is the age past which a persisted job record found at
	// startup is presumed abandoned and purged without resumption.
	StaleAfter time.Duration
	// CacheTTL bounds cached enrichment responses. Zero disables caching.
	CacheTTL time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:       time.Second,
		MaxBoundedAttempts: 90,
		StaleAfter:         time.Hour,
		CacheTTL:           24 * time.Hour,
	}
}

// Coordinator implements inbound.EnrichmentCoordinator.
type Coordinator struct {
	jobs   outbound.PendingJobRepository
	svc    outbound.EnrichmentService
	cache  outbound.CacheRepository
	cfg    Config
	logger *zap.Logger

	// baseCtx outlives individual submit calls so a poller keeps running
	// after the submitting caller's context is gone.
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	active map[enrichment.JobType]struct{}
}

// NewCoordinator creates a job coordinator. cache may be nil to disable
// response caching.
func NewCoordinator(
	jobs outbound.PendingJobRepository,
	svc outbound.EnrichmentService,
	cache outbound.CacheRepository,
	cfg Config,
	logger *zap.Logger,
) *Coordinator {
	baseCtx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		jobs:    jobs,
		svc:     svc,
		cache:   cache,
		cfg:     cfg,
		logger:  logger.Named("enrichment-coordinator"),
		baseCtx: baseCtx,
		cancel:  cancel,
		active:  make(map[enrichment.JobType]struct{}),
	}
}

// SubmitListPolish submits a list-polish job.
func (c *Coordinator) SubmitListPolish(ctx context.Context, relatedID uuid.UUID, req enrichment.PolishRequest) (<-chan inbound.JobOutcome, error) {
	return c.submit(ctx, enrichment.JobListPolish, relatedID, req)
}

// SubmitCategorize submits a pantry-categorization job.
func (c *Coordinator) SubmitCategorize(ctx context.Context, relatedID uuid.UUID, req enrichment.CategorizeRequest) (<-chan inbound.JobOutcome, error) {
	return c.submit(ctx, enrichment.JobPantryCategorize, relatedID, req)
}

// SubmitSubstitution submits an ingredient-substitution job.
func (c *Coordinator) SubmitSubstitution(ctx context.Context, relatedID uuid.UUID, req enrichment.SubstitutionRequest) (<-chan inbound.JobOutcome, error) {
	return c.submit(ctx, enrichment.JobSubstitution, relatedID, req)
}

func (c *Coordinator) submit(ctx context.Context, t enrichment.JobType, relatedID uuid.UUID, payload interface{}) (<-chan inbound.JobOutcome, error) {
	digest := c.digest(t, payload)

	if c.cache != nil && digest != "" {
		if data, err := c.cache.Get(ctx, digest); err == nil {
			c.logger.Debug("Enrichment cache hit", zap.String("job_type", string(t)))
			ch := make(chan inbound.JobOutcome, 1)
			ch <- inbound.JobOutcome{Payload: data}
			return ch, nil
		}
	}

	release, err := c.reserve(ctx, t)
	if err != nil {
		return nil, err
	}

	jobID, err := c.svc.SubmitJob(ctx, t, payload)
	if err != nil {
		release()
		return nil, errors.NewExternalServiceError("submit "+string(t)+" job", err)
	}

	job := &enrichment.PendingJob{
		JobID:           jobID,
		Type:            t,
		RelatedEntityID: relatedID,
		StartedAt:       time.Now(),
	}
	// persisted before the first poll so a restart can resume the job
	if err := c.jobs.Create(ctx, job); err != nil {
		release()
		return nil, errors.NewDatabaseError("persist pending job", err)
	}

	c.logger.Info("Enrichment job submitted",
		zap.String("job_id", jobID),
		zap.String("job_type", string(t)),
	)

	return c.startPoller(job, digest, release), nil
}

// reserve claims the job type slot. At most one pending job per type is
// tracked as resumable; a second submission is a caller error.
func (c *Coordinator) reserve(ctx context.Context, t enrichment.JobType) (func(), error) {
	c.mu.Lock()
	if _, busy := c.active[t]; busy {
		c.mu.Unlock()
		return nil, errors.NewJobAlreadyPendingError(string(t))
	}
	c.active[t] = struct{}{}
	c.mu.Unlock()

	release := func() {
		c.mu.Lock()
		delete(c.active, t)
		c.mu.Unlock()
	}

	// a persisted record without a live poller means a restart happened
	// and ResumePending has not reclaimed it yet
	existing, err := c.jobs.FindByType(ctx, t)
	if err != nil {
		release()
		return nil, errors.NewDatabaseError("check pending job", err)
	}
	if existing != nil {
		release()
		return nil, errors.NewJobAlreadyPendingError(string(t))
	}

	return release, nil
}

func (c *Coordinator) startPoller(job *enrichment.PendingJob, digest string, release func()) <-chan inbound.JobOutcome {
	ch := make(chan inbound.JobOutcome, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer release()
		c.poll(job, digest, ch)
	}()
	return ch
}

// poll runs a single job's status loop. Transitions within one job are
// strictly sequential: this goroutine is the only poller for the job.
func (c *Coordinator) poll(job *enrichment.PendingJob, digest string, ch chan<- inbound.JobOutcome) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	attempts := 0
	for {
		select {
		case <-c.baseCtx.Done():
			// abandoned mid-poll: keep the record so the next startup
			// can resume or garbage-collect it
			ch <- inbound.JobOutcome{Err: c.baseCtx.Err()}
			return
		case <-ticker.C:
		}

		attempts++
		state, err := c.svc.JobState(c.baseCtx, job.JobID)
		if err != nil {
			c.logger.Debug("Job status poll failed",
				zap.String("job_id", job.JobID),
				zap.Error(err),
			)
		} else {
			switch state {
			case enrichment.RemoteCompleted:
				c.complete(job, digest, ch)
				return
			case enrichment.RemoteFailed:
				c.finish(job, ch, inbound.JobOutcome{
					Err: errors.NewExternalServiceError(
						"run "+string(job.Type)+" job", nil,
					).WithMetadata("job_id", job.JobID),
				})
				return
			}
		}

		if job.Type.Bounded() && attempts >= c.cfg.MaxBoundedAttempts {
			c.finish(job, ch, inbound.JobOutcome{
				Err: errors.NewEnrichmentTimeoutError(job.JobID, attempts),
			})
			return
		}
	}
}

func (c *Coordinator) complete(job *enrichment.PendingJob, digest string, ch chan<- inbound.JobOutcome) {
	payload, err := c.svc.FetchResult(c.baseCtx, job.JobID)
	if err != nil {
		c.finish(job, ch, inbound.JobOutcome{
			Err: errors.NewExternalServiceError("fetch job result", err),
		})
		return
	}

	// pure cleanup; the result is already in hand
	if err := c.svc.DeleteJob(c.baseCtx, job.JobID); err != nil {
		c.logger.Debug("Remote job cleanup failed",
			zap.String("job_id", job.JobID),
			zap.Error(err),
		)
	}

	if c.cache != nil && digest != "" && c.cfg.CacheTTL > 0 {
		if err := c.cache.Set(c.baseCtx, digest, payload, c.cfg.CacheTTL); err != nil {
			c.logger.Debug("Enrichment cache write failed", zap.Error(err))
		}
	}

	c.logger.Info("Enrichment job completed",
		zap.String("job_id", job.JobID),
		zap.String("job_type", string(job.Type)),
	)
	c.finish(job, ch, inbound.JobOutcome{Payload: payload})
}

// finish deletes the local record exactly once (deletion is idempotent)
// and delivers the outcome.
func (c *Coordinator) finish(job *enrichment.PendingJob, ch chan<- inbound.JobOutcome, outcome inbound.JobOutcome) {
	if err := c.jobs.Delete(c.baseCtx, job.JobID); err != nil {
		c.logger.Error("Failed to delete pending job record",
			zap.String("job_id", job.JobID),
			zap.Error(err),
		)
	}
	ch <- outcome
}

// ResumePending is the startup routine: records older than StaleAfter
// are purged without being polled; the rest get pollers again.
func (c *Coordinator) ResumePending(ctx context.Context) ([]inbound.Resumed, error) {
	pending, err := c.jobs.FindAll(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("load pending jobs", err)
	}

	now := time.Now()
	var resumed []inbound.Resumed
	for _, job := range pending {
		if job.Stale(now, c.cfg.StaleAfter) {
			c.logger.Info("Purging stale enrichment job",
				zap.String("job_id", job.JobID),
				zap.String("job_type", string(job.Type)),
				zap.Time("started_at", job.StartedAt),
			)
			if err := c.jobs.Delete(ctx, job.JobID); err != nil {
				return nil, errors.NewDatabaseError("purge stale job", err)
			}
			continue
		}

		c.mu.Lock()
		if _, busy := c.active[job.Type]; busy {
			c.mu.Unlock()
			continue
		}
		c.active[job.Type] = struct{}{}
		c.mu.Unlock()

		t := job.Type
		release := func() {
			c.mu.Lock()
			delete(c.active, t)
			c.mu.Unlock()
		}

		c.logger.Info("Resuming enrichment job",
			zap.String("job_id", job.JobID),
			zap.String("job_type", string(job.Type)),
		)
		resumed = append(resumed, inbound.Resumed{
			Type:            job.Type,
			RelatedEntityID: job.RelatedEntityID,
			Outcome:         c.startPoller(job, "", release),
		})
	}

	return resumed, nil
}

// Close cancels all pollers and waits for them to drain. In-flight
// external requests are not cancelled remotely; their records remain for
// the next startup.
func (c *Coordinator) Close() {
	c.cancel()
	c.wg.Wait()
}

// digest derives the cache key for a request payload.
func (c *Coordinator) digest(t enrichment.JobType, payload interface{}) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(append([]byte(t), data...))
	return "enrichment:" + string(t) + ":" + hex.EncodeToString(sum[:])
}
