package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunMetrics(t *testing.T) {
	m := NewRunMetrics()
	assert.NotEmpty(t, m.RunID)
	assert.NotEqual(t, m.RunID, NewRunMetrics().RunID)

	m.PromptTokens.Add(120)
	m.CompletionTokens.Add(30)
	assert.Equal(t, int64(150), m.TotalTokens())

	m.AnchorsDropped.Inc()
	assert.Equal(t, int64(1), m.AnchorsDropped.Load())
	assert.GreaterOrEqual(t, m.Duration().Nanoseconds(), int64(0))
}
