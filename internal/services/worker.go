package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"gradewise/assignment-evaluator/internal/repositories"
)

// Worker drains the analysis queue. Concurrency defaults to one so
// batches run one at a time; files inside a batch are always sequential.
type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(analysisID uuid.UUID)
}

type worker struct {
	analysisRepo    repositories.AnalysisRepository
	analyzerService AnalyzerService
	jobQueue        chan uuid.UUID
	concurrency     int
	wg              sync.WaitGroup
	stopChan        chan struct{}
}

func NewWorker(
	analysisRepo repositories.AnalysisRepository,
	analyzerService AnalyzerService,
	concurrency int,
) Worker {
	if concurrency < 1 {
		concurrency = 1
	}

	return &worker{
		analysisRepo:    analysisRepo,
		analyzerService: analyzerService,
		jobQueue:        make(chan uuid.UUID, 100),
		concurrency:     concurrency,
		stopChan:        make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	log.Printf("🚀 Starting worker with %d concurrent workers\n", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	// Pick up jobs that were queued before a restart
	w.wg.Add(1)
	go w.pollPendingJobs(ctx)

	log.Println("✅ Worker started successfully")
}

// Stop implements Worker.
func (w *worker) Stop() {
	log.Println("🛑 Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	log.Println("✅ Worker stopped")
}

// EnqueueJob implements Worker.
func (w *worker) EnqueueJob(analysisID uuid.UUID) {
	select {
	case w.jobQueue <- analysisID:
		log.Printf("📥 Job %s enqueued\n", analysisID)
	case <-w.stopChan:
		log.Printf("⚠️  Worker stopped, cannot enqueue job %s\n", analysisID)
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log.Printf("👷 Worker #%d started processing jobs\n", workerID)

	for {
		select {
		case <-w.stopChan:
			log.Printf("👷 Worker #%d stopped\n", workerID)
			return
		case analysisID := <-w.jobQueue:
			w.handleJob(ctx, workerID, analysisID)
		}
	}
}

// handleJob claims the job before running it, so a job that reached the
// queue twice (handler enqueue plus poller pickup) is processed once.
func (w *worker) handleJob(ctx context.Context, workerID int, analysisID uuid.UUID) {
	claimed, err := w.analysisRepo.ClaimJob(analysisID)
	if err != nil {
		log.Printf("⚠️  Worker #%d failed to claim job %s: %v\n", workerID, analysisID, err)
		return
	}

	if !claimed {
		log.Printf("⚠️  Worker #%d skipping job %s: already claimed\n", workerID, analysisID)
		return
	}

	log.Printf("👷 Worker #%d processing job %s\n", workerID, analysisID)
	if err := w.analyzerService.RunAnalysis(ctx, analysisID); err != nil {
		log.Printf("❌ Worker #%d failed to process job %s: %v\n", workerID, analysisID, err)
	} else {
		log.Printf("✅ Worker #%d completed job %s\n", workerID, analysisID)
	}
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	log.Println("🔄 Starting pending jobs poller")

	for {
		select {
		case <-w.stopChan:
			log.Println("🔄 Pending jobs poller stopped")
			return
		case <-ticker.C:
			pendingJobs, err := w.analysisRepo.FindPendingJobs(10)
			if err != nil {
				log.Printf("⚠️  Failed to fetch pending jobs: %v\n", err)
				continue
			}

			if len(pendingJobs) > 0 {
				log.Printf("📋 Found %d pending jobs\n", len(pendingJobs))
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
