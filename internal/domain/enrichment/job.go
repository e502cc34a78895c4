// Package enrichment contains the job model for the external enrichment
// service: job types, the local status machine, the persisted pending-job
// record used for resumability, and the request/response payloads.
package enrichment

import (
	"time"

	"github.com/google/uuid"
)

// JobType identifies the three asynchronous enrichment calls.
type JobType string

const (
	// JobListPolish consolidates and categorizes a raw shopping list.
	// Polled indefinitely: the user is actively waiting on-screen.
	JobListPolish JobType = "list_polish"
	// JobPantryCategorize classifies checked lines for pantry insertion.
	// Bounded poll budget; a timeout degrades to the local classifier.
	JobPantryCategorize JobType = "pantry_categorize"
	// JobSubstitution rewrites a recipe around a substituted ingredient.
	// Bounded poll budget; a failure degrades to a local rename.
	JobSubstitution JobType = "substitution"
)

// Bounded reports whether the job type has a maximum poll attempt count.
func (t JobType) Bounded() bool {
	return t != JobListPolish
}

// Status is the local lifecycle of a coordinated job. Transitions are
// strictly sequential within one job: Submitted -> Polling -> terminal.
type Status int

const (
	StatusSubmitted Status = iota
	StatusPolling
	StatusCompleted
	StatusFailed
	StatusTimedOut
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSubmitted:
		return "submitted"
	case StatusPolling:
		return "polling"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status ends the job's lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusTimedOut
}

// RemoteState is the status the external service reports for a job.
type RemoteState string

const (
	RemoteQueued     RemoteState = "queued"
	RemoteProcessing RemoteState = "processing"
	RemoteCompleted  RemoteState = "completed"
	RemoteFailed     RemoteState = "failed"
)

// PendingJob is the persisted record of one in-flight external call,
// written before the first poll so a restart can discover and resume it.
// Used only for local resumability; never sent externally.
type PendingJob struct {
	JobID           string
	Type            JobType
	RelatedEntityID uuid.UUID
	StartedAt       time.Time
}

// Stale reports whether the record is old enough to be presumed
// abandoned and purged without resumption.
func (p PendingJob) Stale(now time.Time, threshold time.Duration) bool {
	return now.Sub(p.StartedAt) > threshold
}
