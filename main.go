package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	routerx "github.com/avelarsol/concierge/agent/agents/router"
	contractx "github.com/avelarsol/concierge/agent/contract"
	extractx "github.com/avelarsol/concierge/agent/extract"
	promptx "github.com/avelarsol/concierge/agent/prompt"
	statex "github.com/avelarsol/concierge/agent/state"
	configx "github.com/avelarsol/concierge/pkg/config"
	_ "github.com/avelarsol/concierge/pkg/logger/autoload"
	openrouterx "github.com/avelarsol/concierge/pkg/openrouter"
	qstashx "github.com/avelarsol/concierge/pkg/qstash"
)

type AppConfig struct {
	// StoreBackend selects the event-log backend: "upstash" or "postgres".
	StoreBackend string `envconfig:"STORE_BACKEND" split_words:"true" default:"upstash"`
	// PipelineURL is the queue destination the broader conversation pipeline
	// consumes router outcomes from. Empty disables the hand-off.
	PipelineURL string `envconfig:"PIPELINE_URL" split_words:"true"`
}

func main() {
	ctx := context.Background()
	appCfg := configx.MustNew[AppConfig]("")

	store, err := buildStore(ctx, appCfg.StoreBackend)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize checkpoint store")
	}

	resolver, err := buildResolver(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize contact resolver")
	}

	var pipeline contractx.PipelinePublisher
	if appCfg.PipelineURL != "" {
		qstashCfg := configx.MustNew[qstashx.Config]("QSTASH")
		pipeline, err = routerx.NewQStashPublisher(qstashx.MustNew(*qstashCfg), appCfg.PipelineURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize pipeline publisher")
		}
	}

	inboundRouter, err := routerx.New(store, resolver, pipeline, routerx.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize inbound router")
	}

	// Invoked as `concierge <session-id> <message>` the binary routes a single
	// inbound message; transports (HTTP, mail ingestion) live upstream.
	if args := flagArgs(); len(args) >= 2 {
		outcome, err := inboundRouter.HandleInbound(ctx, args[0], contractx.InboundPayload{
			Body: strings.Join(args[1:], " "),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to handle inbound message")
		}
		encoded, _ := json.MarshalIndent(outcome, "", "  ")
		fmt.Println(string(encoded))
		return
	}

	log.Info().
		Str("store_backend", appCfg.StoreBackend).
		Bool("pipeline_handoff", pipeline != nil).
		Msg("contact agent wired and ready")
}

func buildStore(ctx context.Context, backend string) (statex.Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "postgres":
		pgCfg := configx.MustNew[statex.PostgresConfig]("POSTGRES")
		store, err := statex.NewBunEventStore(*pgCfg)
		if err != nil {
			return nil, err
		}
		if err := store.Init(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "", "upstash":
		redisCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		return statex.NewUpstashEventStore(*redisCfg)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func buildResolver(ctx context.Context) (contractx.Resolver, error) {
	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	if openrouterx.NewClient(*openRouterCfg) == nil {
		return nil, errors.New("openrouter api key is not configured")
	}
	chatModel, err := openRouterCfg.New(ctx)
	if err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()
	llmExtractor, err := extractx.NewLLMExtractor(ctx, chatModel, prompts.Extractor)
	if err != nil {
		return nil, err
	}

	return extractx.NewChainResolver(extractx.NewPatternExtractor(), llmExtractor)
}

func flagArgs() []string {
	// pkg/config parses the flag set while loading AppConfig, so positional
	// arguments are already separated from flags here.
	args := os.Args[1:]
	filtered := args[:0:0]
	skip := false
	for _, a := range args {
		if skip {
			skip = false
			continue
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") {
				skip = true
			}
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}
