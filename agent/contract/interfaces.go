package contract

import "context"

// Extractor is one contact-extraction strategy. Implementations are best-effort:
// finding nothing is an empty record, not an error. Errors are reserved for
// internal faults the chain may want to log before moving on.
type Extractor interface {
	Method() ExtractionMethod
	Extract(ctx context.Context, text string) (ContactRecord, error)
}

// Resolver runs the extraction strategy chain for one message body.
type Resolver interface {
	Resolve(ctx context.Context, text string) ExtractionResult
}

// PipelinePublisher hands a finished router outcome to the broader conversation
// pipeline for reply generation.
type PipelinePublisher interface {
	PublishOutcome(ctx context.Context, outcome RouterOutcome) error
}
