package services

import (
	"fmt"
	"strings"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Weighted checklist sent verbatim as instruction text. Marks are
// assigned by the backend, never computed locally.
const gradingCriteria = `Grading Criteria:
1. Content quality (40%%): How well the text addresses the topic.
2. Clarity and coherence (30%%): How clear and logical the text is.
3. Grammar and language (20%%): Correct use of grammar and language.
4. Originality (10%%): Uniqueness and originality of the content.

Use these criteria to assign marks out of %d.`

// BuildSystemPrompt states the task and the exact expected JSON key set
// so the backend is steered toward schema-conformant output.
func (pb *PromptBuilder) BuildSystemPrompt(maxWordCount int) string {
	return fmt.Sprintf("Perform a SWOT analysis with each category limited to %d words. Return a JSON object with keys: Strengths, Weaknesses, Opportunities, Threats, Total Marks, Word Count.", maxWordCount)
}

// BuildVisionSystemPrompt is the image-input variant of the task statement.
func (pb *PromptBuilder) BuildVisionSystemPrompt(maxWordCount int) string {
	return fmt.Sprintf("Perform a SWOT analysis on this image with each category limited to %d words. Return a JSON object with keys: Strengths, Weaknesses, Opportunities, Threats, Total Marks, Word Count.", maxWordCount)
}

// BuildUserPrompt embeds the literal extracted text, its word count, the
// target marks, and the rubric interpolated with the target marks.
// Rubric context retrieved from the vector store and the batch's
// free-text context are appended when present.
func (pb *PromptBuilder) BuildUserPrompt(text string, wordCount, totalMarks int, rubricContext, batchContext string) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "Text: %s\n", text)
	fmt.Fprintf(&builder, "Total Marks: %d\n", totalMarks)
	fmt.Fprintf(&builder, "Word Count: %d\n", wordCount)
	fmt.Fprintf(&builder, gradingCriteria, totalMarks)

	if batchContext != "" {
		fmt.Fprintf(&builder, "\n\nProject Context:\n%s", batchContext)
	}

	if rubricContext != "" {
		fmt.Fprintf(&builder, "\n\nAdditional Grading Context:\n%s", rubricContext)
	}

	return builder.String()
}

// BuildVisionUserPrompt carries the grading parameters for an
// image-bearing request; the image itself travels as a separate part.
func (pb *PromptBuilder) BuildVisionUserPrompt(wordCount, totalMarks int, rubricContext, batchContext string) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "Total Marks: %d\n", totalMarks)
	fmt.Fprintf(&builder, "Word Count: %d\n", wordCount)
	fmt.Fprintf(&builder, gradingCriteria, totalMarks)

	if batchContext != "" {
		fmt.Fprintf(&builder, "\n\nProject Context:\n%s", batchContext)
	}

	if rubricContext != "" {
		fmt.Fprintf(&builder, "\n\nAdditional Grading Context:\n%s", rubricContext)
	}

	return builder.String()
}

// FormatRubricContext flattens retrieved rubric chunks into prompt text.
func FormatRubricContext(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	var parts []string
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Context %d (Score: %.2f) ---\n%s",
			i+1, result.Score, strings.TrimSpace(result.Text)))
	}

	return strings.Join(parts, "\n\n")
}
