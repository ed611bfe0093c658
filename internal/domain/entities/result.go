package entities

import (
	"time"

	"github.com/google/uuid"
)

// FileOutcome records what happened to one file of an action.
type FileOutcome struct {
	Path    string
	Changed bool
	NewSHA  string
	Message string
}

// ActionResult is the outcome of one action against one repository.
// Message holds the chronological log joined by newlines.
type ActionResult struct {
	Repo    Repository
	Success bool
	NoOp    bool
	PRURL   string
	Message string
	Files   []FileOutcome
}

// BatchResult collects the ordered per-repository results of one batch.
type BatchResult struct {
	ID         uuid.UUID
	Action     ActionType
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []ActionResult
}

// NewBatchResult starts a batch with a fresh identifier.
func NewBatchResult(action ActionType, startedAt time.Time) *BatchResult {
	return &BatchResult{
		ID:        uuid.New(),
		Action:    action,
		StartedAt: startedAt,
	}
}

// Succeeded counts successful repositories.
func (b *BatchResult) Succeeded() int {
	count := 0
	for _, result := range b.Results {
		if result.Success {
			count++
		}
	}
	return count
}

// Failed counts failed repositories.
func (b *BatchResult) Failed() int {
	return len(b.Results) - b.Succeeded()
}
