package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/Omar-Sa03/rag-api/internal/domain"
)

type fakeModel struct {
	response string
	err      error
	prompt   string
	calls    int
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if text, ok := messages[0].Parts[0].(llms.TextContent); ok {
			f.prompt = text.Text
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestGenerateBuildsGroundedPrompt(t *testing.T) {
	model := &fakeModel{response: " Paris is the capital. "}
	gen := New(model, zap.NewNop())

	got, err := gen.Generate(context.Background(), "What is the capital of France?",
		[]string{"Paris is the capital of France.", "France is in Europe."})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "Paris is the capital." {
		t.Errorf("answer = %q, want trimmed completion", got)
	}
	if !strings.Contains(model.prompt, "Paris is the capital of France.") {
		t.Errorf("prompt missing context passage: %q", model.prompt)
	}
	if !strings.Contains(model.prompt, "\n\n---\n\n") {
		t.Error("prompt missing passage separator")
	}
	if !strings.Contains(model.prompt, "Question: What is the capital of France?") {
		t.Errorf("prompt missing question: %q", model.prompt)
	}
}

func TestGenerateNoContexts(t *testing.T) {
	model := &fakeModel{}
	gen := New(model, zap.NewNop())

	got, err := gen.Generate(context.Background(), "anything?", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != NoContextAnswer {
		t.Errorf("answer = %q, want canned no-context answer", got)
	}
	if model.calls != 0 {
		t.Errorf("model called %d times with no context", model.calls)
	}
}

func TestGenerateModelFailure(t *testing.T) {
	model := &fakeModel{err: errors.New("connection refused")}
	gen := New(model, zap.NewNop())

	_, err := gen.Generate(context.Background(), "q", []string{"ctx"})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("error = %v, want ErrGenerationFailed", err)
	}
}
