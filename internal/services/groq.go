package services

import (
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const groqBaseURL = "https://api.groq.com/openai/v1/"

// NewGroqService talks to Groq's OpenAI-compatible chat-completions
// endpoint. Text only; the hosted llama model takes no image input.
func NewGroqService(apiKey string) GradingBackend {
	return &chatCompletionsService{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(groqBaseURL),
		),
		name:   "groq",
		model:  "llama3-70b-8192",
		vision: false,
	}
}
