package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"gradewise/assignment-evaluator/internal/models"
	"gradewise/assignment-evaluator/internal/repositories"
)

type ResultHandler struct {
	analysisRepo repositories.AnalysisRepository
}

func NewResultHandler(analysisRepo repositories.AnalysisRepository) *ResultHandler {
	return &ResultHandler{
		analysisRepo: analysisRepo,
	}
}

// HandleGetResult handles GET /result/:id.
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	idParam := c.Params("id")
	analysisID, err := uuid.Parse(idParam)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid analysis ID format",
		})
	}

	analysis, err := h.analysisRepo.FindByID(analysisID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Analysis not found",
		})
	}

	response := models.ResultResponse{
		ID:     analysis.ID.String(),
		Status: string(analysis.Status),
		Progress: models.Progress{
			Processed: analysis.ProcessedCount,
			Total:     analysis.TotalCount,
		},
		ErrorMessage: analysis.ErrorMessage,
	}

	files, err := h.analysisRepo.FindFiles(analysisID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load analysis files",
		})
	}

	for _, file := range files {
		result := models.FileResult{
			DocumentID: file.DocumentID.String(),
			Filename:   file.Document.OriginalFileName,
			Status:     string(file.Status),
			Notice:     file.Notice,
		}

		if file.Status == models.FileStatusCompleted {
			result.Report = &models.SwotReport{
				Strengths:     deref(file.Strengths),
				Weaknesses:    deref(file.Weaknesses),
				Opportunities: deref(file.Opportunities),
				Threats:       deref(file.Threats),
				TotalMarks:    deref(file.TotalMarks),
				WordCount:     deref(file.WordCount),
			}
		}

		response.Files = append(response.Files, result)
	}

	return c.JSON(response)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
