package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"medassist/internal/domain"
)

// excerptLimit bounds the source previews surfaced to the caller. The full
// chunk text still goes into the prompt; only the citation is truncated.
const excerptLimit = 200

const promptTemplate = `You are a medical research assistant helping researchers understand clinical and medical documents.

Use the following pieces of context from medical documents to answer the question at the end.

Guidelines:
1. Be precise and cite specific information from the context when possible
2. If you're unsure or the context doesn't contain enough information, clearly state that
3. Use medical terminology accurately
4. Provide relevant context and explanations when needed
5. If the question asks about something not in the context, say "I don't have information about that in the provided documents"

Context:
%s

Question: %s

Answer: `

// Synthesizer turns retrieved chunks into a grounded answer with source
// attribution.
type Synthesizer struct {
	gen domain.Generator
	log *slog.Logger
}

func NewSynthesizer(gen domain.Generator, log *slog.Logger) *Synthesizer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Synthesizer{gen: gen, log: log}
}

// Answer builds the grounding prompt from the retrieved chunks in rank
// order and invokes the generative model once. An empty retrieval set means
// nothing has been indexed yet; the model is never called with an empty
// context.
func (s *Synthesizer) Answer(ctx context.Context, question string, retrieved []domain.RetrievalResult) (domain.Answer, error) {
	if len(retrieved) == 0 {
		return domain.Answer{}, domain.ErrNotReady
	}

	parts := make([]string, len(retrieved))
	for i, r := range retrieved {
		parts[i] = r.Chunk.Text
	}
	prompt := fmt.Sprintf(promptTemplate, strings.Join(parts, "\n\n"), question)

	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return domain.Answer{}, err
	}

	sources := make([]domain.SourceRef, len(retrieved))
	for i, r := range retrieved {
		sources[i] = domain.SourceRef{
			Source:  r.Chunk.Source,
			Chunk:   r.Chunk.Index,
			Excerpt: excerpt(r.Chunk.Text),
		}
	}
	s.log.Info("answered question",
		slog.Int("sources", len(sources)),
		slog.Int("prompt_chars", len(prompt)))
	return domain.Answer{Text: text, Question: question, Sources: sources}, nil
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLimit {
		return text
	}
	return string(runes[:excerptLimit]) + "..."
}
