package review

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// RunMetrics accumulates the counts for one pipeline run. It is
// threaded through the stages and returned with the result, never held
// as package state.
type RunMetrics struct {
	RunID     string
	StartedAt time.Time

	FilesConsidered      atomic.Int64
	FilesReviewed        atomic.Int64
	ChunksSubmitted      atomic.Int64
	FindingsReported     atomic.Int64
	CommentsPosted       atomic.Int64
	DuplicatesSuppressed atomic.Int64
	AnchorsDropped       atomic.Int64
	PromptTokens         atomic.Int64
	CompletionTokens     atomic.Int64
}

// NewRunMetrics starts the clock for a run.
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// Duration reports elapsed time since the run started.
func (m *RunMetrics) Duration() time.Duration {
	return time.Since(m.StartedAt)
}

// TotalTokens reports the combined prompt and completion estimate.
func (m *RunMetrics) TotalTokens() int64 {
	return m.PromptTokens.Load() + m.CompletionTokens.Load()
}
