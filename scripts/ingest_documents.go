package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gradewise/assignment-evaluator/internal/config"
	"gradewise/assignment-evaluator/internal/models"
	"gradewise/assignment-evaluator/internal/services"
)

// Ingests grading rubrics and marking guidelines into the Qdrant
// collection so the analyzer can retrieve them as prompt context.
func main() {
	log.Println("🚀 Starting rubric ingestion...")

	cfg := config.Load()

	if cfg.Backends.GeminiAPIKey == "" {
		log.Fatal("❌ GEMINI_API_KEY is required for embeddings")
	}

	geminiService, err := services.NewGeminiService(cfg.Backends.GeminiAPIKey)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini: %v", err)
	}

	rubricStore, err := services.NewRubricStoreService(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
	)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}

	if err := rubricStore.InitCollection(); err != nil {
		log.Fatalf("❌ Failed to initialize collection: %v", err)
	}

	ocrService := services.NewOCRService()
	extractor := services.NewExtractorService(ocrService, services.NewPDFRenderer())
	chunker := services.NewTextChunker()

	ctx := context.Background()

	documents := []struct {
		Path    string
		DocType string
		Name    string
	}{
		{
			Path:    "./reference_docs/grading_rubric.pdf",
			DocType: "rubric",
			Name:    "Assignment Grading Rubric",
		},
		{
			Path:    "./reference_docs/marking_guidelines.pdf",
			DocType: "guideline",
			Name:    "Marking Guidelines",
		},
		{
			Path:    "./reference_docs/swot_examples.pdf",
			DocType: "guideline",
			Name:    "Worked SWOT Examples",
		},
	}

	successCount := 0
	failCount := 0

	for _, doc := range documents {
		log.Printf("\n📄 Processing: %s", doc.Name)
		log.Printf("   Path: %s", doc.Path)
		log.Printf("   Type: %s", doc.DocType)

		if _, err := os.Stat(doc.Path); os.IsNotExist(err) {
			log.Printf("   ⚠️  File not found, skipping...")
			failCount++
			continue
		}

		mediaType, ok := models.MediaTypeForExtension(strings.ToLower(filepath.Ext(doc.Path)))
		if !ok {
			log.Printf("   ⚠️  Unsupported file type, skipping...")
			failCount++
			continue
		}

		log.Printf("   📖 Extracting text...")
		text, err := extractor.Extract(&models.Document{
			OriginalFileName: filepath.Base(doc.Path),
			MediaType:        mediaType,
			FilePath:         doc.Path,
		})
		if err != nil {
			log.Printf("   ❌ Failed to extract text: %v", err)
			failCount++
			continue
		}

		text = services.CleanText(text)
		if strings.TrimSpace(text) == "" {
			log.Printf("   ⚠️  No text content, skipping...")
			failCount++
			continue
		}

		log.Printf("   ✅ Extracted %d characters", len(text))

		log.Printf("   ✂️  Chunking text...")
		chunks := chunker.ChunkText(text, 1000, 200)
		log.Printf("   ✅ Created %d chunks", len(chunks))

		log.Printf("   🔄 Embedding and storing chunks...")
		stored := 0
		for i, chunk := range chunks {
			embedding, err := geminiService.GenerateEmbedding(ctx, chunk)
			if err != nil {
				log.Printf("   ❌ Failed to generate embedding for chunk %d: %v", i+1, err)
				continue
			}

			rubricID := fmt.Sprintf("%s_chunk_%d", doc.DocType, i)

			if err := rubricStore.UpsertChunk(ctx, rubricID, doc.DocType, chunk, embedding); err != nil {
				log.Printf("   ❌ Failed to store chunk %d: %v", i+1, err)
				continue
			}

			stored++
		}

		log.Printf("   ✅ Stored %d/%d chunks", stored, len(chunks))
		successCount++
	}

	log.Printf("\n🏁 Ingestion finished: %d succeeded, %d failed", successCount, failCount)
}
