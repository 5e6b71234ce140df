package services

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
)

type OCRService interface {
	RecognizeFile(imagePath string) (string, error)
	RecognizeBytes(image []byte) (string, error)
}

type tesseractOCRService struct{}

func NewOCRService() OCRService {
	return &tesseractOCRService{}
}

// RecognizeFile implements OCRService.
func (t *tesseractOCRService) RecognizeFile(imagePath string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("failed to load image for OCR: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to recognize text: %w", err)
	}

	return text, nil
}

// RecognizeBytes implements OCRService.
func (t *tesseractOCRService) RecognizeBytes(image []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to load image for OCR: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to recognize text: %w", err)
	}

	return text, nil
}

// PDFRenderer rasterizes PDF pages, used for the OCR fallback on
// scanned documents and for vision requests carrying PDF uploads.
type PDFRenderer interface {
	RenderPages(filePath string) ([][]byte, error)
}

type fitzPDFRenderer struct{}

func NewPDFRenderer() PDFRenderer {
	return &fitzPDFRenderer{}
}

// RenderPages implements PDFRenderer. Pages come back as PNG bytes, in
// page order.
func (f *fitzPDFRenderer) RenderPages(filePath string) ([][]byte, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for rendering: %w", err)
	}
	defer doc.Close()

	var pages [][]byte
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.Image(i)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}

		pages = append(pages, buf.Bytes())
	}

	return pages, nil
}
