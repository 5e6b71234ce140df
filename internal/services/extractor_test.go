package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradewise/assignment-evaluator/internal/models"
)

type stubOCR struct {
	text string
	err  error
}

func (s *stubOCR) RecognizeFile(imagePath string) (string, error) {
	return s.text, s.err
}

func (s *stubOCR) RecognizeBytes(image []byte) (string, error) {
	return s.text, s.err
}

// pageStubOCR returns one canned text per recognized page.
type pageStubOCR struct {
	texts []string
	calls int
}

func (s *pageStubOCR) RecognizeFile(imagePath string) (string, error) {
	return s.nextText(), nil
}

func (s *pageStubOCR) RecognizeBytes(image []byte) (string, error) {
	return s.nextText(), nil
}

func (s *pageStubOCR) nextText() string {
	if s.calls >= len(s.texts) {
		return ""
	}
	text := s.texts[s.calls]
	s.calls++
	return text
}

type stubRenderer struct {
	pages [][]byte
	err   error
	calls int
}

func (s *stubRenderer) RenderPages(filePath string) ([][]byte, error) {
	s.calls++
	return s.pages, s.err
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtractPlainText(t *testing.T) {
	extractor := NewExtractorService(&stubOCR{}, &stubRenderer{})

	path := writeTempFile(t, "essay.txt", "Alpha Beta Gamma")

	text, err := extractor.Extract(&models.Document{
		MediaType: models.MediaTypeText,
		FilePath:  path,
	})

	require.NoError(t, err)
	assert.Equal(t, "Alpha Beta Gamma", text)
	assert.Equal(t, 3, CountWords(text))
}

func TestExtractEmptyFileIsNotAnError(t *testing.T) {
	extractor := NewExtractorService(&stubOCR{}, &stubRenderer{})

	path := writeTempFile(t, "empty.txt", "")

	text, err := extractor.Extract(&models.Document{
		MediaType: models.MediaTypeText,
		FilePath:  path,
	})

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtractImageRunsOCR(t *testing.T) {
	extractor := NewExtractorService(&stubOCR{text: "HELLO WORLD"}, &stubRenderer{})

	path := writeTempFile(t, "scan.png", "not really a png")

	text, err := extractor.Extract(&models.Document{
		MediaType: models.MediaTypeImage,
		FilePath:  path,
	})

	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", text)
}

func TestExtractImageWithNoRecognizableText(t *testing.T) {
	extractor := NewExtractorService(&stubOCR{text: ""}, &stubRenderer{})

	path := writeTempFile(t, "blank.png", "blank")

	text, err := extractor.Extract(&models.Document{
		MediaType: models.MediaTypeImage,
		FilePath:  path,
	})

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtractScannedPDFFallsBackToOCR(t *testing.T) {
	ocr := &pageStubOCR{texts: []string{"HELLO", "WORLD"}}
	extractor := &extractorService{
		ocr:           ocr,
		renderer:      &stubRenderer{pages: [][]byte{{0x01}, {0x02}}},
		readTextLayer: func(filePath string) (string, error) { return "  \n\t ", nil },
	}

	text, err := extractor.Extract(&models.Document{
		MediaType: models.MediaTypePDF,
		FilePath:  "scan.pdf",
	})

	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", text)
	assert.Equal(t, 2, ocr.calls)
}

func TestExtractPDFWithTextLayerSkipsRendering(t *testing.T) {
	renderer := &stubRenderer{}
	extractor := &extractorService{
		ocr:           &stubOCR{},
		renderer:      renderer,
		readTextLayer: func(filePath string) (string, error) { return "typed essay text", nil },
	}

	text, err := extractor.Extract(&models.Document{
		MediaType: models.MediaTypePDF,
		FilePath:  "essay.pdf",
	})

	require.NoError(t, err)
	assert.Equal(t, "typed essay text", text)
	assert.Zero(t, renderer.calls, "a usable text layer must not trigger page rendering")
}

func TestExtractUnsupportedMediaType(t *testing.T) {
	extractor := NewExtractorService(&stubOCR{}, &stubRenderer{})

	_, err := extractor.Extract(&models.Document{
		MediaType: models.MediaType("spreadsheet"),
		FilePath:  "whatever.xls",
	})

	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 3, CountWords("Alpha Beta Gamma"))
	assert.Equal(t, 5, CountWords("Lorem ipsum dolor sit amet"))
	assert.Equal(t, 0, CountWords("   \n\t  "))
	assert.Equal(t, 2, CountWords("  spaced\n\nout  "))
}

func TestMediaTypeForExtension(t *testing.T) {
	cases := map[string]models.MediaType{
		".pdf":  models.MediaTypePDF,
		".docx": models.MediaTypeDocx,
		".txt":  models.MediaTypeText,
		".png":  models.MediaTypeImage,
		".jpg":  models.MediaTypeImage,
		".jpeg": models.MediaTypeImage,
	}

	for ext, want := range cases {
		got, ok := models.MediaTypeForExtension(ext)
		assert.True(t, ok, ext)
		assert.Equal(t, want, got, ext)
	}

	_, ok := models.MediaTypeForExtension(".exe")
	assert.False(t, ok)
}

func TestMIMETypeForFile(t *testing.T) {
	assert.Equal(t, "image/png", MIMETypeForFile("scan.png"))
	assert.Equal(t, "image/jpeg", MIMETypeForFile("photo.JPG"))
	assert.Equal(t, "application/octet-stream", MIMETypeForFile("mystery.zzz"))
}

func TestCleanText(t *testing.T) {
	cleaned := CleanText("  first line  \n\n\n   second line \n  ")
	assert.Equal(t, "first line\nsecond line", cleaned)
}
