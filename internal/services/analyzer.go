package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"gradewise/assignment-evaluator/internal/models"
	"gradewise/assignment-evaluator/internal/repositories"
)

// AnalyzerService runs one batch: every file in upload order, strictly
// sequentially. Per-file failures become notices; the batch carries on.
type AnalyzerService interface {
	RunAnalysis(ctx context.Context, analysisID uuid.UUID) error
}

// Embedder produces the query embedding for rubric context retrieval.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type analyzerService struct {
	analysisRepo  repositories.AnalysisRepository
	extractor     ExtractorService
	renderer      PDFRenderer
	validator     ValidatorService
	registry      *BackendRegistry
	rubricStore   RubricStoreService
	embedder      Embedder
	promptBuilder *PromptBuilder
}

func NewAnalyzerService(
	analysisRepo repositories.AnalysisRepository,
	extractor ExtractorService,
	renderer PDFRenderer,
	validator ValidatorService,
	registry *BackendRegistry,
	rubricStore RubricStoreService,
	embedder Embedder,
) AnalyzerService {
	return &analyzerService{
		analysisRepo:  analysisRepo,
		extractor:     extractor,
		renderer:      renderer,
		validator:     validator,
		registry:      registry,
		rubricStore:   rubricStore,
		embedder:      embedder,
		promptBuilder: NewPromptBuilder(),
	}
}

// RunAnalysis implements AnalyzerService.
func (a *analyzerService) RunAnalysis(ctx context.Context, analysisID uuid.UUID) error {
	if err := a.analysisRepo.UpdateStatus(analysisID, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	if err := a.analysisRepo.ResetProgress(analysisID); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}

	log.Printf("🔄 Starting analysis for job ID: %s\n", analysisID)

	analysis, err := a.analysisRepo.FindByID(analysisID)
	if err != nil {
		a.analysisRepo.UpdateError(analysisID, err.Error())
		return fmt.Errorf("failed to get analysis: %w", err)
	}

	backend, err := a.registry.Get(analysis.Backend)
	if err != nil {
		a.analysisRepo.UpdateError(analysisID, err.Error())
		return fmt.Errorf("failed to select backend: %w", err)
	}

	if analysis.Mode == models.ModeVision && !backend.SupportsVision() {
		err := fmt.Errorf("%s: %w", analysis.Backend, ErrVisionNotSupported)
		a.analysisRepo.UpdateError(analysisID, err.Error())
		return err
	}

	files, err := a.analysisRepo.FindFiles(analysisID)
	if err != nil {
		a.analysisRepo.UpdateError(analysisID, err.Error())
		return fmt.Errorf("failed to get analysis files: %w", err)
	}

	for i := range files {
		a.processFile(ctx, analysis, backend, &files[i])

		if err := a.analysisRepo.AdvanceProgress(analysisID); err != nil {
			log.Printf("⚠️  Failed to advance progress for job %s: %v\n", analysisID, err)
		}
	}

	if err := a.analysisRepo.UpdateStatus(analysisID, models.StatusCompleted); err != nil {
		return fmt.Errorf("failed to complete analysis: %w", err)
	}

	log.Printf("✅ Analysis completed for job ID: %s\n", analysisID)
	return nil
}

// processFile runs the pipeline for a single document: extract, build
// prompts, call the backend, validate, store. Every failure ends as a
// per-file notice, never as a batch error.
func (a *analyzerService) processFile(ctx context.Context, analysis *models.Analysis, backend GradingBackend, file *models.AnalysisFile) {
	name := file.Document.OriginalFileName

	log.Printf("📄 Processing %s...\n", name)

	text, err := a.extractor.Extract(&file.Document)
	if err != nil {
		a.failFile(file, fmt.Sprintf("Failed to extract text from %s: %v", name, err))
		return
	}

	if strings.TrimSpace(text) == "" {
		a.skipFile(file, fmt.Sprintf("No text found in %s.", name))
		return
	}

	wordCount := CountWords(text)
	rubricContext := a.retrieveRubricContext(ctx, text)

	var raw string
	switch analysis.Mode {
	case models.ModeVision:
		systemPrompt := a.promptBuilder.BuildVisionSystemPrompt(analysis.MaxWordCount)
		userPrompt := a.promptBuilder.BuildVisionUserPrompt(wordCount, analysis.TotalMarks, rubricContext, analysis.Context)

		images, imgErr := a.imagePayloads(&file.Document)
		if imgErr != nil {
			a.failFile(file, fmt.Sprintf("Failed to prepare image data for %s: %v", name, imgErr))
			return
		}

		raw, err = backend.GradeImages(ctx, systemPrompt, userPrompt, images)
	default:
		systemPrompt := a.promptBuilder.BuildSystemPrompt(analysis.MaxWordCount)
		userPrompt := a.promptBuilder.BuildUserPrompt(text, wordCount, analysis.TotalMarks, rubricContext, analysis.Context)

		raw, err = backend.GradeText(ctx, systemPrompt, userPrompt)
	}

	if err != nil {
		a.failFile(file, fmt.Sprintf("Backend call failed for %s: %v", name, err))
		return
	}

	report, err := a.validator.ParseReport(raw)
	if err != nil {
		var schemaErr *SchemaValidationError
		if errors.As(err, &schemaErr) {
			a.failFile(file, fmt.Sprintf("Invalid SWOT analysis response for %s: %v", name, schemaErr))
		} else {
			a.failFile(file, fmt.Sprintf("Unreadable backend reply for %s: %v", name, err))
		}
		return
	}

	if err := a.analysisRepo.UpdateFileReport(file.ID, report); err != nil {
		log.Printf("❌ Failed to store report for %s: %v\n", name, err)
		return
	}

	log.Printf("✅ SWOT analysis completed for %s\n", name)
}

// retrieveRubricContext embeds the extracted text and pulls similar
// rubric chunks. Failures only cost the extra context.
func (a *analyzerService) retrieveRubricContext(ctx context.Context, text string) string {
	if a.rubricStore == nil || a.embedder == nil {
		return ""
	}

	embedding, err := a.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		log.Printf("⚠️  Failed to embed query for rubric context: %v\n", err)
		return ""
	}

	results, err := a.rubricStore.SearchSimilar(ctx, embedding, "", 3)
	if err != nil {
		log.Printf("⚠️  Failed to retrieve rubric context: %v\n", err)
		return ""
	}

	return FormatRubricContext(results)
}

// imagePayloads prepares the base64-bound image parts of a vision
// request: the raw bytes for an image upload, one rendered PNG per page
// for a PDF.
func (a *analyzerService) imagePayloads(doc *models.Document) ([]ImagePayload, error) {
	switch doc.MediaType {
	case models.MediaTypeImage:
		data, err := os.ReadFile(doc.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		return []ImagePayload{{
			MIMEType: MIMETypeForFile(doc.FilePath),
			Data:     data,
		}}, nil

	case models.MediaTypePDF:
		pages, err := a.renderer.RenderPages(doc.FilePath)
		if err != nil {
			return nil, err
		}
		payloads := make([]ImagePayload, 0, len(pages))
		for _, page := range pages {
			payloads = append(payloads, ImagePayload{
				MIMEType: "image/png",
				Data:     page,
			})
		}
		return payloads, nil

	default:
		return nil, fmt.Errorf("%w: %s has no image form", ErrUnsupportedMediaType, doc.MediaType)
	}
}

func (a *analyzerService) failFile(file *models.AnalysisFile, notice string) {
	log.Printf("❌ %s\n", notice)
	if err := a.analysisRepo.UpdateFileNotice(file.ID, models.FileStatusFailed, notice); err != nil {
		log.Printf("❌ Failed to store notice: %v\n", err)
	}
}

func (a *analyzerService) skipFile(file *models.AnalysisFile, notice string) {
	log.Printf("⚠️  %s\n", notice)
	if err := a.analysisRepo.UpdateFileNotice(file.ID, models.FileStatusSkipped, notice); err != nil {
		log.Printf("❌ Failed to store notice: %v\n", err)
	}
}
