package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradewise/assignment-evaluator/internal/models"
)

const validReply = `{"Strengths":"Clear argument","Weaknesses":"Thin evidence","Opportunities":"Add sources","Threats":"Off topic","Total Marks":45,"Word Count":5}`

type capturedCall struct {
	system string
	user   string
}

type stubBackend struct {
	mu      sync.Mutex
	name    string
	vision  bool
	replies []string
	err     error
	calls   []capturedCall
}

func (b *stubBackend) Name() string         { return b.name }
func (b *stubBackend) SupportsVision() bool { return b.vision }

func (b *stubBackend) GradeText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return b.record(systemPrompt, userPrompt)
}

func (b *stubBackend) GradeImages(ctx context.Context, systemPrompt, userPrompt string, images []ImagePayload) (string, error) {
	return b.record(systemPrompt, userPrompt)
}

func (b *stubBackend) record(systemPrompt, userPrompt string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, capturedCall{system: systemPrompt, user: userPrompt})
	if b.err != nil {
		return "", b.err
	}

	reply := validReply
	if len(b.replies) > 0 {
		reply = b.replies[0]
		if len(b.replies) > 1 {
			b.replies = b.replies[1:]
		}
	}
	return reply, nil
}

// memoryAnalysisRepo is an in-memory AnalysisRepository for pipeline tests.
type memoryAnalysisRepo struct {
	mu       sync.Mutex
	analyses map[uuid.UUID]*models.Analysis
	files    []*models.AnalysisFile
}

func newMemoryAnalysisRepo() *memoryAnalysisRepo {
	return &memoryAnalysisRepo{
		analyses: make(map[uuid.UUID]*models.Analysis),
	}
}

func (m *memoryAnalysisRepo) Create(analysis *models.Analysis, files []models.AnalysisFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.analyses[analysis.ID] = analysis
	for i := range files {
		file := files[i]
		m.files = append(m.files, &file)
	}
	return nil
}

func (m *memoryAnalysisRepo) FindByID(id uuid.UUID) (*models.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	analysis, ok := m.analyses[id]
	if !ok {
		return nil, fmt.Errorf("analysis not found")
	}
	copied := *analysis
	return &copied, nil
}

func (m *memoryAnalysisRepo) FindFiles(analysisID uuid.UUID) ([]models.AnalysisFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.AnalysisFile
	for _, file := range m.files {
		if file.AnalysisID == analysisID {
			result = append(result, *file)
		}
	}
	return result, nil
}

func (m *memoryAnalysisRepo) ClaimJob(id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	analysis, ok := m.analyses[id]
	if !ok {
		return false, fmt.Errorf("analysis not found")
	}
	if analysis.Status != models.StatusQueued {
		return false, nil
	}
	analysis.Status = models.StatusProcessing
	return true, nil
}

func (m *memoryAnalysisRepo) UpdateStatus(id uuid.UUID, status models.AnalysisStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	analysis, ok := m.analyses[id]
	if !ok {
		return fmt.Errorf("analysis not found")
	}
	analysis.Status = status
	return nil
}

func (m *memoryAnalysisRepo) UpdateError(id uuid.UUID, errorMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	analysis, ok := m.analyses[id]
	if !ok {
		return fmt.Errorf("analysis not found")
	}
	analysis.Status = models.StatusFailed
	analysis.ErrorMessage = &errorMsg
	return nil
}

func (m *memoryAnalysisRepo) ResetProgress(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if analysis, ok := m.analyses[id]; ok {
		analysis.ProcessedCount = 0
	}
	return nil
}

func (m *memoryAnalysisRepo) AdvanceProgress(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if analysis, ok := m.analyses[id]; ok {
		analysis.ProcessedCount++
	}
	return nil
}

func (m *memoryAnalysisRepo) UpdateFileReport(fileID uuid.UUID, report *models.SwotReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, file := range m.files {
		if file.ID == fileID {
			file.Status = models.FileStatusCompleted
			file.Strengths = &report.Strengths
			file.Weaknesses = &report.Weaknesses
			file.Opportunities = &report.Opportunities
			file.Threats = &report.Threats
			file.TotalMarks = &report.TotalMarks
			file.WordCount = &report.WordCount
			return nil
		}
	}
	return fmt.Errorf("analysis file not found")
}

func (m *memoryAnalysisRepo) UpdateFileNotice(fileID uuid.UUID, status models.FileStatus, notice string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, file := range m.files {
		if file.ID == fileID {
			file.Status = status
			file.Notice = &notice
			return nil
		}
	}
	return fmt.Errorf("analysis file not found")
}

func (m *memoryAnalysisRepo) FindPendingJobs(limit int) ([]models.Analysis, error) {
	return nil, nil
}

func (m *memoryAnalysisRepo) fileByDocument(docID uuid.UUID) *models.AnalysisFile {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, file := range m.files {
		if file.DocumentID == docID {
			return file
		}
	}
	return nil
}

func seedAnalysis(t *testing.T, repo *memoryAnalysisRepo, analysis *models.Analysis, docs []models.Document) {
	t.Helper()

	files := make([]models.AnalysisFile, 0, len(docs))
	for position, doc := range docs {
		files = append(files, models.AnalysisFile{
			ID:         uuid.New(),
			AnalysisID: analysis.ID,
			DocumentID: doc.ID,
			Position:   position,
			Status:     models.FileStatusPending,
			Document:   doc,
		})
	}
	analysis.TotalCount = len(docs)

	require.NoError(t, repo.Create(analysis, files))
}

func newTestAnalyzer(repo *memoryAnalysisRepo, backend GradingBackend, ocr OCRService) AnalyzerService {
	renderer := &stubRenderer{}
	return NewAnalyzerService(
		repo,
		NewExtractorService(ocr, renderer),
		renderer,
		NewValidatorService(),
		NewBackendRegistry(backend),
		nil,
		nil,
	)
}

func TestRunAnalysisGradesPlainTextFile(t *testing.T) {
	repo := newMemoryAnalysisRepo()
	backend := &stubBackend{name: "gemini"}

	doc := models.Document{
		ID:               uuid.New(),
		OriginalFileName: "assignment.txt",
		MediaType:        models.MediaTypeText,
		FilePath:         writeTempFile(t, "assignment.txt", "Lorem ipsum dolor sit amet"),
	}
	analysis := &models.Analysis{
		ID:           uuid.New(),
		Backend:      "gemini",
		Mode:         models.ModeText,
		TotalMarks:   50,
		MaxWordCount: 100,
		Status:       models.StatusQueued,
	}
	seedAnalysis(t, repo, analysis, []models.Document{doc})

	analyzer := newTestAnalyzer(repo, backend, &stubOCR{})

	require.NoError(t, analyzer.RunAnalysis(context.Background(), analysis.ID))

	// The request embeds the literal text, word count and target marks
	require.Len(t, backend.calls, 1)
	assert.Contains(t, backend.calls[0].system, "limited to 100 words")
	assert.Contains(t, backend.calls[0].user, "Text: Lorem ipsum dolor sit amet")
	assert.Contains(t, backend.calls[0].user, "Word Count: 5")
	assert.Contains(t, backend.calls[0].user, "Total Marks: 50")

	stored, err := repo.FindByID(analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.ProcessedCount)

	file := repo.fileByDocument(doc.ID)
	require.NotNil(t, file)
	assert.Equal(t, models.FileStatusCompleted, file.Status)
	assert.Equal(t, "Clear argument", *file.Strengths)
	assert.Equal(t, "Thin evidence", *file.Weaknesses)
	assert.Equal(t, "Add sources", *file.Opportunities)
	assert.Equal(t, "Off topic", *file.Threats)
	assert.Equal(t, "45", *file.TotalMarks)
	assert.Equal(t, "5", *file.WordCount)
}

func TestRunAnalysisTwiceIssuesFreshBackendCalls(t *testing.T) {
	repo := newMemoryAnalysisRepo()
	backend := &stubBackend{name: "gemini"}

	doc := models.Document{
		ID:               uuid.New(),
		OriginalFileName: "assignment.txt",
		MediaType:        models.MediaTypeText,
		FilePath:         writeTempFile(t, "assignment.txt", "same content every run"),
	}
	analysis := &models.Analysis{
		ID:           uuid.New(),
		Backend:      "gemini",
		Mode:         models.ModeText,
		TotalMarks:   100,
		MaxWordCount: 300,
		Status:       models.StatusQueued,
	}
	seedAnalysis(t, repo, analysis, []models.Document{doc})

	analyzer := newTestAnalyzer(repo, backend, &stubOCR{})

	require.NoError(t, analyzer.RunAnalysis(context.Background(), analysis.ID))
	require.NoError(t, analyzer.RunAnalysis(context.Background(), analysis.ID))

	// No caching: an unchanged batch costs a full round trip each run
	assert.Len(t, backend.calls, 2)

	stored, err := repo.FindByID(analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ProcessedCount, "progress resets at the start of each run")
}

func TestRunAnalysisSkipsImageWithoutText(t *testing.T) {
	repo := newMemoryAnalysisRepo()
	backend := &stubBackend{name: "gemini"}

	doc := models.Document{
		ID:               uuid.New(),
		OriginalFileName: "scan.png",
		MediaType:        models.MediaTypeImage,
		FilePath:         writeTempFile(t, "scan.png", "blank"),
	}
	analysis := &models.Analysis{
		ID:           uuid.New(),
		Backend:      "gemini",
		Mode:         models.ModeText,
		TotalMarks:   100,
		MaxWordCount: 300,
		Status:       models.StatusQueued,
	}
	seedAnalysis(t, repo, analysis, []models.Document{doc})

	analyzer := newTestAnalyzer(repo, backend, &stubOCR{text: ""})

	require.NoError(t, analyzer.RunAnalysis(context.Background(), analysis.ID))

	assert.Empty(t, backend.calls, "empty extraction must not reach the backend")

	file := repo.fileByDocument(doc.ID)
	require.NotNil(t, file)
	assert.Equal(t, models.FileStatusSkipped, file.Status)
	require.NotNil(t, file.Notice)
	assert.Equal(t, "No text found in scan.png.", *file.Notice)

	stored, err := repo.FindByID(analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.ProcessedCount)
}

func TestRunAnalysisErrorReplyFailsFileAndBatchContinues(t *testing.T) {
	repo := newMemoryAnalysisRepo()
	backend := &stubBackend{
		name:    "groq",
		replies: []string{`{"error":"rate limited"}`, validReply},
	}

	first := models.Document{
		ID:               uuid.New(),
		OriginalFileName: "first.txt",
		MediaType:        models.MediaTypeText,
		FilePath:         writeTempFile(t, "first.txt", "first assignment"),
	}
	second := models.Document{
		ID:               uuid.New(),
		OriginalFileName: "second.txt",
		MediaType:        models.MediaTypeText,
		FilePath:         writeTempFile(t, "second.txt", "second assignment"),
	}
	analysis := &models.Analysis{
		ID:           uuid.New(),
		Backend:      "groq",
		Mode:         models.ModeText,
		TotalMarks:   100,
		MaxWordCount: 300,
		Status:       models.StatusQueued,
	}
	seedAnalysis(t, repo, analysis, []models.Document{first, second})

	analyzer := newTestAnalyzer(repo, backend, &stubOCR{})

	require.NoError(t, analyzer.RunAnalysis(context.Background(), analysis.ID))

	firstFile := repo.fileByDocument(first.ID)
	require.NotNil(t, firstFile)
	assert.Equal(t, models.FileStatusFailed, firstFile.Status)
	require.NotNil(t, firstFile.Notice)
	assert.Contains(t, *firstFile.Notice, "missing required keys")

	secondFile := repo.fileByDocument(second.ID)
	require.NotNil(t, secondFile)
	assert.Equal(t, models.FileStatusCompleted, secondFile.Status)

	stored, err := repo.FindByID(analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, 2, stored.ProcessedCount)
}

func TestRunAnalysisBackendFailureIsDistinctFromErrorPayload(t *testing.T) {
	repo := newMemoryAnalysisRepo()
	backend := &stubBackend{
		name: "openai",
		err:  fmt.Errorf("%w: connection refused", ErrBackendUnavailable),
	}

	doc := models.Document{
		ID:               uuid.New(),
		OriginalFileName: "essay.txt",
		MediaType:        models.MediaTypeText,
		FilePath:         writeTempFile(t, "essay.txt", "some essay text"),
	}
	analysis := &models.Analysis{
		ID:           uuid.New(),
		Backend:      "openai",
		Mode:         models.ModeText,
		TotalMarks:   100,
		MaxWordCount: 300,
		Status:       models.StatusQueued,
	}
	seedAnalysis(t, repo, analysis, []models.Document{doc})

	analyzer := newTestAnalyzer(repo, backend, &stubOCR{})

	require.NoError(t, analyzer.RunAnalysis(context.Background(), analysis.ID))

	file := repo.fileByDocument(doc.ID)
	require.NotNil(t, file)
	assert.Equal(t, models.FileStatusFailed, file.Status)
	require.NotNil(t, file.Notice)
	assert.Contains(t, *file.Notice, "Backend call failed")
	assert.Contains(t, *file.Notice, "backend unavailable")
	assert.NotContains(t, *file.Notice, "missing required keys")
}

func TestRunAnalysisRejectsVisionOnTextOnlyBackend(t *testing.T) {
	repo := newMemoryAnalysisRepo()
	backend := &stubBackend{name: "groq", vision: false}

	doc := models.Document{
		ID:               uuid.New(),
		OriginalFileName: "scan.png",
		MediaType:        models.MediaTypeImage,
		FilePath:         writeTempFile(t, "scan.png", "blank"),
	}
	analysis := &models.Analysis{
		ID:           uuid.New(),
		Backend:      "groq",
		Mode:         models.ModeVision,
		TotalMarks:   100,
		MaxWordCount: 300,
		Status:       models.StatusQueued,
	}
	seedAnalysis(t, repo, analysis, []models.Document{doc})

	analyzer := newTestAnalyzer(repo, backend, &stubOCR{text: "HELLO"})

	err := analyzer.RunAnalysis(context.Background(), analysis.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVisionNotSupported)

	stored, findErr := repo.FindByID(analysis.ID)
	require.NoError(t, findErr)
	assert.Equal(t, models.StatusFailed, stored.Status)
}

func TestRunAnalysisUnknownBackendFailsJob(t *testing.T) {
	repo := newMemoryAnalysisRepo()
	backend := &stubBackend{name: "gemini"}

	doc := models.Document{
		ID:               uuid.New(),
		OriginalFileName: "essay.txt",
		MediaType:        models.MediaTypeText,
		FilePath:         writeTempFile(t, "essay.txt", "text"),
	}
	analysis := &models.Analysis{
		ID:           uuid.New(),
		Backend:      "openai",
		Mode:         models.ModeText,
		TotalMarks:   100,
		MaxWordCount: 300,
		Status:       models.StatusQueued,
	}
	seedAnalysis(t, repo, analysis, []models.Document{doc})

	analyzer := newTestAnalyzer(repo, backend, &stubOCR{})

	err := analyzer.RunAnalysis(context.Background(), analysis.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredential)
}
