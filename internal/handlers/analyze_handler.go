package handlers

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"gradewise/assignment-evaluator/internal/config"
	"gradewise/assignment-evaluator/internal/models"
	"gradewise/assignment-evaluator/internal/repositories"
	"gradewise/assignment-evaluator/internal/services"
)

type AnalyzeHandler struct {
	analysisRepo   repositories.AnalysisRepository
	docRepo        repositories.DocumentRepository
	worker         services.Worker
	registry       *services.BackendRegistry
	grading        config.GradingConfig
	defaultBackend string
	validate       *validator.Validate
}

func NewAnalyzeHandler(
	analysisRepo repositories.AnalysisRepository,
	docRepo repositories.DocumentRepository,
	worker services.Worker,
	registry *services.BackendRegistry,
	grading config.GradingConfig,
	defaultBackend string,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		analysisRepo:   analysisRepo,
		docRepo:        docRepo,
		worker:         worker,
		registry:       registry,
		grading:        grading,
		defaultBackend: defaultBackend,
		validate:       validator.New(),
	}
}

// HandleAnalyze handles POST /analyze. Credential and capability checks
// happen here, before the job is queued, so a misconfigured backend
// fails the request instead of a running batch.
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	var req models.AnalyzeRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Invalid request: %v", err),
		})
	}

	backendName := req.Backend
	if backendName == "" {
		backendName = h.defaultBackend
	}

	mode := models.AnalysisMode(req.Mode)
	if mode == "" {
		mode = models.ModeText
	}

	backend, err := h.registry.Get(backendName)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("No API key configured for backend '%s'", backendName),
		})
	}

	if mode == models.ModeVision && !backend.SupportsVision() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Backend '%s' does not support vision mode", backendName),
		})
	}

	// Verify documents exist with one batch lookup, preserving upload order
	docIDs := make([]uuid.UUID, 0, len(req.DocumentIDs))
	for _, rawID := range req.DocumentIDs {
		docID, err := uuid.Parse(rawID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Invalid document id: %s", rawID),
			})
		}
		docIDs = append(docIDs, docID)
	}

	docs, err := h.docRepo.FindByIDs(docIDs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to look up documents",
		})
	}

	found := make(map[uuid.UUID]bool, len(docs))
	for _, doc := range docs {
		found[doc.ID] = true
	}

	for _, docID := range docIDs {
		if !found[docID] {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": fmt.Sprintf("Document not found: %s", docID),
			})
		}
	}

	totalMarks := h.grading.TotalMarks
	if req.TotalMarks != nil {
		totalMarks = *req.TotalMarks
	}

	maxWordCount := h.grading.MaxWordCount
	if req.MaxWordCount != nil {
		maxWordCount = *req.MaxWordCount
	}

	analysis := &models.Analysis{
		ID:           uuid.New(),
		Backend:      backendName,
		Mode:         mode,
		Context:      req.Context,
		TotalMarks:   totalMarks,
		MaxWordCount: maxWordCount,
		Status:       models.StatusQueued,
		TotalCount:   len(docIDs),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	files := make([]models.AnalysisFile, 0, len(docIDs))
	for position, docID := range docIDs {
		files = append(files, models.AnalysisFile{
			ID:         uuid.New(),
			AnalysisID: analysis.ID,
			DocumentID: docID,
			Position:   position,
			Status:     models.FileStatusPending,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		})
	}

	if err := h.analysisRepo.Create(analysis, files); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create analysis job",
		})
	}

	h.worker.EnqueueJob(analysis.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.AnalyzeResponse{
		ID:     analysis.ID.String(),
		Status: string(models.StatusQueued),
	})
}
