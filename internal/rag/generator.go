package rag

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/contextutil"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/llm"
	"github.com/GabrieILima/Chatbot-Suporte-P-S/internal/vectorstore"
)

// insufficientInfoAnswer is the deterministic reply when retrieval found
// nothing above the relevance threshold and the policy short-circuits.
const insufficientInfoAnswer = "I could not find relevant information in the indexed documents to answer this question."

// ChatCompleter invokes the language-model service.
type ChatCompleter interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// Generator composes a prompt from retrieved passages and produces an
// answer with cited sources.
type Generator struct {
	llm ChatCompleter

	// answerWithoutContext selects the empty-context policy: when false the
	// generator short-circuits with a deterministic insufficient-information
	// answer and no model call; when true it still queries the model with an
	// honesty instruction and flags the answer as ungrounded.
	answerWithoutContext bool
}

// NewGenerator creates a Generator with the given empty-context policy.
func NewGenerator(completer ChatCompleter, answerWithoutContext bool) *Generator {
	return &Generator{
		llm:                  completer,
		answerWithoutContext: answerWithoutContext,
	}
}

var citationRe = regexp.MustCompile(`\[S(\d+)\]`)

// Answer generates an answer for the question from the retrieved context.
// A model failure after retries surfaces as ErrGenerationFailed; an empty
// answer is never fabricated to look like success.
func (g *Generator) Answer(ctx context.Context, question string, hits []vectorstore.Hit) (Answer, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(hits) == 0 {
		if !g.answerWithoutContext {
			logger.InfoContext(ctx, "no context retrieved, short-circuiting", "question_length", len(question))
			return Answer{
				Text:     insufficientInfoAnswer,
				Grounded: false,
				Sources:  []Source{},
			}, nil
		}

		logger.InfoContext(ctx, "no context retrieved, querying model ungrounded")
		text, err := g.llm.ChatWithMessages(ctx, []llm.Message{
			{Role: "system", Content: honestyPrompt},
			{Role: "user", Content: question},
		}, llm.ChatParams{Temperature: 0.2})
		if err != nil {
			return Answer{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
		return Answer{Text: text, Grounded: false, Sources: []Source{}}, nil
	}

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: BuildPrompt(question, hits)},
	}

	text, err := g.llm.ChatWithMessages(ctx, messages, llm.ChatParams{Temperature: 0.2})
	if err != nil {
		logger.ErrorContext(ctx, "language model call failed", "error", err)
		return Answer{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	sources := citedSources(text, hits)
	logger.InfoContext(ctx, "answer generated",
		"answer_length", len(text), "context_chunks", len(hits), "cited_sources", len(sources))

	return Answer{
		Text:     text,
		Grounded: true,
		Sources:  sources,
	}, nil
}

// citedSources extracts the [Sn] identifiers the model actually used and
// maps them back to source references, deduplicated in first-cited order.
// A model that cited nothing falls back to all provided hits in rank order.
func citedSources(answer string, hits []vectorstore.Hit) []Source {
	matches := citationRe.FindAllStringSubmatch(answer, -1)

	seen := make(map[int]bool)
	sources := make([]Source, 0, len(hits))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(hits) {
			continue
		}
		idx := n - 1
		if seen[idx] {
			continue
		}
		seen[idx] = true
		sources = append(sources, sourceFromHit(hits[idx]))
	}

	if len(sources) == 0 {
		for i, hit := range hits {
			if seen[i] {
				continue
			}
			sources = append(sources, sourceFromHit(hit))
		}
	}

	return sources
}

func sourceFromHit(hit vectorstore.Hit) Source {
	return Source{
		Path:         hit.SourcePath,
		ChunkOrdinal: hit.Ordinal,
		Page:         hit.Page,
	}
}
