package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradewise/assignment-evaluator/internal/models"
)

type countingAnalyzer struct {
	mu   sync.Mutex
	runs int
}

func (c *countingAnalyzer) RunAnalysis(ctx context.Context, analysisID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs++
	return nil
}

func TestWorkerProcessesDoublyEnqueuedJobOnce(t *testing.T) {
	repo := newMemoryAnalysisRepo()
	analysis := &models.Analysis{
		ID:      uuid.New(),
		Backend: "gemini",
		Mode:    models.ModeText,
		Status:  models.StatusQueued,
	}
	require.NoError(t, repo.Create(analysis, nil))

	counter := &countingAnalyzer{}
	w := NewWorker(repo, counter, 1).(*worker)

	// The same job can reach the queue twice: once from the handler,
	// once from the pending-jobs poller. Only the first claim runs it.
	w.handleJob(context.Background(), 1, analysis.ID)
	w.handleJob(context.Background(), 1, analysis.ID)

	assert.Equal(t, 1, counter.runs)
}

func TestWorkerSkipsUnknownJob(t *testing.T) {
	repo := newMemoryAnalysisRepo()
	counter := &countingAnalyzer{}
	w := NewWorker(repo, counter, 1).(*worker)

	w.handleJob(context.Background(), 1, uuid.New())

	assert.Zero(t, counter.runs)
}
