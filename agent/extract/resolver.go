package extract

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	contractx "github.com/avelarsol/concierge/agent/contract"
)

// ChainResolver tries an ordered list of extraction strategies until one yields
// a non-empty record. A partial hit (only email or only phone) counts as
// success and stops the chain; the expensive tiers must never run when a cheap
// tier already produced something. This ordering is the primary cost-control
// invariant of the subsystem.
type ChainResolver struct {
	strategies []contractx.Extractor
}

func NewChainResolver(strategies ...contractx.Extractor) (*ChainResolver, error) {
	if len(strategies) == 0 {
		return nil, errors.New("at least one extraction strategy is required")
	}
	for _, s := range strategies {
		if s == nil {
			return nil, errors.New("nil extraction strategy")
		}
	}
	return &ChainResolver{strategies: strategies}, nil
}

// Resolve runs the chain. A strategy error is logged and treated as an empty
// result; extraction is best-effort all the way down. When every tier comes up
// empty the result carries the last tier's method and an empty record.
func (r *ChainResolver) Resolve(ctx context.Context, text string) contractx.ExtractionResult {
	result := contractx.ExtractionResult{}

	for _, strategy := range r.strategies {
		result.Method = strategy.Method()

		record, err := strategy.Extract(ctx, text)
		if err != nil {
			log.Warn().
				Err(err).
				Str("method", string(strategy.Method())).
				Msg("extraction strategy failed, trying next tier")
			continue
		}
		if !record.IsEmpty() {
			result.ContactRecord = record
			return result
		}
	}

	log.Debug().Msg("no contact info found by any extraction tier")
	return result
}
