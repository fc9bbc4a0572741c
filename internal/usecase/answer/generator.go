// Package answer produces grounded natural-language answers from retrieved
// context passages.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/Omar-Sa03/rag-api/internal/domain"
)

// contextSeparator joins retrieved passages inside the prompt.
const contextSeparator = "\n\n---\n\n"

// NoContextAnswer is returned when retrieval found nothing to ground an
// answer on. The model is not called in that case.
const NoContextAnswer = "No relevant context found in the knowledge base."

// Generator wraps a chat model behind a single-question interface.
type Generator struct {
	model  llms.Model
	logger *zap.Logger
}

// New creates a generator on top of any langchaingo model.
func New(model llms.Model, logger *zap.Logger) *Generator {
	return &Generator{model: model, logger: logger}
}

// Generate answers the question using only the supplied context passages.
// With no passages it short-circuits to NoContextAnswer.
func (g *Generator) Generate(ctx context.Context, question string, contexts []string) (string, error) {
	if len(contexts) == 0 {
		return NoContextAnswer, nil
	}

	prompt := buildPrompt(question, contexts)

	completion, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt,
		llms.WithTemperature(0.2),
	)
	if err != nil {
		g.logger.Error("answer generation failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}

	g.logger.Debug("answer generated",
		zap.Int("contexts", len(contexts)),
		zap.Int("answer_len", len(completion)),
	)
	return strings.TrimSpace(completion), nil
}

func buildPrompt(question string, contexts []string) string {
	var b strings.Builder
	b.WriteString("Context: \n")
	b.WriteString(strings.Join(contexts, contextSeparator))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer clearly and concisely:")
	return b.String()
}
