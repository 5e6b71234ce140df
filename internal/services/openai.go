package services

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// chatCompletionsService covers both OpenAI-compatible vendors. The wire
// shape is identical: system and user messages plus a json_object
// response format; only base URL, model and vision capability differ.
type chatCompletionsService struct {
	client openai.Client
	name   string
	model  string
	vision bool
}

func NewOpenAIService(apiKey string) GradingBackend {
	return &chatCompletionsService{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		name:   "openai",
		model:  "gpt-4-1106-preview",
		vision: true,
	}
}

// Name implements GradingBackend.
func (c *chatCompletionsService) Name() string {
	return c.name
}

// SupportsVision implements GradingBackend.
func (c *chatCompletionsService) SupportsVision() bool {
	return c.vision
}

// GradeText implements GradingBackend.
func (c *chatCompletionsService) GradeText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(userPrompt),
	}

	return c.complete(ctx, messages)
}

// GradeImages implements GradingBackend. Images travel as data-URL
// content parts alongside the user prompt.
func (c *chatCompletionsService) GradeImages(ctx context.Context, systemPrompt, userPrompt string, images []ImagePayload) (string, error) {
	if !c.vision {
		return "", fmt.Errorf("%s: %w", c.name, ErrVisionNotSupported)
	}

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(userPrompt),
	}

	for _, image := range images {
		dataURL := "data:" + image.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(image.Data)
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: dataURL,
		}))
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(parts),
	}

	return c.complete(ctx, messages)
}

func (c *chatCompletionsService) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in reply", ErrMalformedBackendReply)
	}

	content := completion.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("%w: no message content in reply", ErrMalformedBackendReply)
	}

	return content, nil
}
