package extract

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/avelarsol/concierge/agent/contract"
)

type llmContactOutput struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// LLMExtractor is the fallback extraction tier. It asks a chat model for a
// constrained {email, phone} object and re-normalizes any phone it returns so
// downstream consumers only ever see one canonical form. Model errors,
// timeouts and unparseable output all degrade to an empty record:
// extraction is best-effort and must never fail the turn.
type LLMExtractor struct {
	runner compose.Runnable[map[string]any, llmContactOutput]
	plan   NumberingPlan
}

func NewLLMExtractor(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*LLMExtractor, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: extractor prompt is empty", contractx.ErrPromptMissing)
	}

	runner, err := compileExtractorGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile extractor graph: %v", contractx.ErrModelInvoke, err)
	}

	return &LLMExtractor{
		runner: runner,
		plan:   NANP,
	}, nil
}

func (e *LLMExtractor) Method() contractx.ExtractionMethod {
	return contractx.MethodLLM
}

// Extract never returns a non-nil error; the signature satisfies the strategy
// contract and leaves room for stricter implementations.
func (e *LLMExtractor) Extract(ctx context.Context, text string) (contractx.ContactRecord, error) {
	if strings.TrimSpace(text) == "" {
		return contractx.ContactRecord{}, nil
	}

	out, err := e.runner.Invoke(ctx, map[string]any{
		"input": text,
	})
	if err != nil {
		log.Warn().Err(err).Msg("llm contact extraction failed, treating as no contact found")
		return contractx.ContactRecord{}, nil
	}

	record := contractx.ContactRecord{
		Email: cleanLLMValue(out.Email),
	}

	if phone := cleanLLMValue(out.Phone); phone != "" {
		normalized, ok := e.plan.Normalize(phone)
		if !ok {
			log.Warn().Str("phone", phone).Msg("llm returned unnormalizable phone, dropping")
		} else {
			record.Phone = normalized
		}
	}

	if !record.IsEmpty() {
		log.Info().
			Str("email", record.Email).
			Str("phone", record.Phone).
			Msg("llm extraction hit")
	}
	return record, nil
}

// cleanLLMValue handles models that render JSON null as the string "null".
func cleanLLMValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "null") || strings.EqualFold(v, "none") {
		return ""
	}
	return v
}

func compileExtractorGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[map[string]any, llmContactOutput], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	parser := schema.NewMessageJSONParser[llmContactOutput](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[map[string]any, llmContactOutput]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add extractor prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add extractor model node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_json", compose.MessageParser(parser)); err != nil {
		return nil, fmt.Errorf("add extractor parser node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add extractor edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add extractor edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", "parse_json"); err != nil {
		return nil, fmt.Errorf("add extractor edge model->parse: %w", err)
	}
	if err := graph.AddEdge("parse_json", compose.END); err != nil {
		return nil, fmt.Errorf("add extractor edge parse->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("extract.llm_fallback_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile extractor graph: %w", err)
	}
	return runner, nil
}
