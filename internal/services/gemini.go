package services

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiService is the Google generative backend. It also provides the
// embeddings used by the rubric context store.
type GeminiService interface {
	GradingBackend
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
}

func NewGeminiService(apiKey string) (GeminiService, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:     client,
		modelName:  "gemini-2.5-flash",
		embedModel: "text-embedding-004",
	}, nil
}

// Name implements GradingBackend.
func (g *geminiService) Name() string {
	return "gemini"
}

// SupportsVision implements GradingBackend.
func (g *geminiService) SupportsVision() bool {
	return true
}

// GradeText implements GradingBackend. The request carries the system
// prompt, the user prompt and a trailing empty part, with a JSON
// response MIME type so the model replies with a bare JSON object.
func (g *geminiService) GradeText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(systemPrompt),
		genai.NewPartFromText(userPrompt),
		genai.NewPartFromText(""),
	}

	return g.generate(ctx, parts)
}

// GradeImages implements GradingBackend. Image parts travel inline,
// after the prompt parts.
func (g *geminiService) GradeImages(ctx context.Context, systemPrompt, userPrompt string, images []ImagePayload) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(systemPrompt),
		genai.NewPartFromText(userPrompt),
	}

	for _, image := range images {
		parts = append(parts, genai.NewPartFromBytes(image.Data, image.MIMEType))
	}

	return g.generate(ctx, parts)
}

func (g *geminiService) generate(ctx context.Context, parts []*genai.Part) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: parts,
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in reply", ErrMalformedBackendReply)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: no text content in reply", ErrMalformedBackendReply)
	}

	return text, nil
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// Stay under the embedding model's input limit
	if len(text) > 40000 {
		text = text[:40000]
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}
