package services

import (
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"

	"gradewise/assignment-evaluator/internal/models"
)

// ExtractorService turns an uploaded document into plain text. An empty
// or whitespace-only result is not an error here; the analyzer decides
// to skip the file with a notice.
type ExtractorService interface {
	Extract(doc *models.Document) (string, error)
}

type extractorService struct {
	ocr           OCRService
	renderer      PDFRenderer
	readTextLayer func(filePath string) (string, error)
}

func NewExtractorService(ocr OCRService, renderer PDFRenderer) ExtractorService {
	return &extractorService{
		ocr:           ocr,
		renderer:      renderer,
		readTextLayer: extractPDFTextLayer,
	}
}

// Extract implements ExtractorService.
func (e *extractorService) Extract(doc *models.Document) (string, error) {
	switch doc.MediaType {
	case models.MediaTypePDF:
		return e.extractPDF(doc.FilePath)
	case models.MediaTypeDocx:
		return e.extractDocx(doc.FilePath)
	case models.MediaTypeImage:
		return e.ocr.RecognizeFile(doc.FilePath)
	case models.MediaTypeText:
		return e.extractPlainText(doc.FilePath)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMediaType, doc.MediaType)
	}
}

// extractPDF reads the text layer first. A scanned PDF has no usable
// text layer, so each page is rendered to an image and run through OCR,
// recognized texts joined with single spaces in page order.
func (e *extractorService) extractPDF(filePath string) (string, error) {
	text, err := e.readTextLayer(filePath)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	pages, err := e.renderer.RenderPages(filePath)
	if err != nil {
		return "", err
	}

	var parts []string
	for i, page := range pages {
		recognized, err := e.ocr.RecognizeBytes(page)
		if err != nil {
			return "", fmt.Errorf("OCR failed on page %d: %w", i+1, err)
		}
		parts = append(parts, recognized)
	}

	return strings.Join(parts, " "), nil
}

func extractPDFTextLayer(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages, keep the rest
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	return textBuilder.String(), nil
}

// extractDocx concatenates paragraph texts in document order, one per line.
func (e *extractorService) extractDocx(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat DOCX: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("failed to parse DOCX: %w", err)
	}

	var lines []string
	for _, item := range doc.Document.Body.Items {
		if paragraph, ok := item.(*docx.Paragraph); ok {
			lines = append(lines, paragraph.String())
		}
	}

	return strings.Join(lines, "\n"), nil
}

func (e *extractorService) extractPlainText(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}

	return string(data), nil
}

// CountWords counts whitespace-delimited tokens in extracted text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// CleanText trims blank lines and surrounding whitespace from extracted text.
func CleanText(text string) string {
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
