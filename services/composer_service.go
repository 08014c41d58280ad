package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// AnswerComposer turns a question and its retrieved context into an answer.
// Retrieval never depends on which composer is plugged in.
type AnswerComposer interface {
	Compose(ctx context.Context, question, context string) (string, error)
}

// TemplateComposer is the default composer: a fixed template around the
// truncated context, with no real generation behind it.
type TemplateComposer struct {
	maxContextChars int
}

// NewTemplateComposer creates the placeholder composer.
func NewTemplateComposer() *TemplateComposer {
	return &TemplateComposer{maxContextChars: 500}
}

// Compose implements AnswerComposer.
func (t *TemplateComposer) Compose(_ context.Context, _ string, contextText string) (string, error) {
	truncated := contextText
	if len(truncated) > t.maxContextChars {
		truncated = truncated[:t.maxContextChars]
	}
	return fmt.Sprintf("Based on the context, here is the answer: %s...", truncated), nil
}

// GeminiComposer answers with a Gemini model grounded on the retrieved
// context.
type GeminiComposer struct {
	client *genai.Client
	model  string
}

// NewGeminiComposer creates a composer backed by the given Gemini client.
func NewGeminiComposer(client *genai.Client, model string) *GeminiComposer {
	return &GeminiComposer{client: client, model: model}
}

// Compose implements AnswerComposer.
func (g *GeminiComposer) Compose(ctx context.Context, question, contextText string) (string, error) {
	session, err := g.client.Chats.Create(ctx, g.model, &genai.GenerateContentConfig{
		SystemInstruction: composerSystemPrompt(),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("could not start chat session: %w", err)
	}

	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer the question using only the context above.", contextText, question)
	result, err := session.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "I'm sorry, I couldn't generate a response.", nil
	}

	var responseText strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			responseText.WriteString(p.Text)
		}
	}
	return responseText.String(), nil
}

func composerSystemPrompt() *genai.Content {
	return &genai.Content{
		Parts: []*genai.Part{
			{Text: "You answer questions about a single uploaded document. Use only the provided context passages. If the context does not contain the answer, say so."},
		},
	}
}
