package routernode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/avelarsol/concierge/agent/contract"
	statex "github.com/avelarsol/concierge/agent/state"
)

// CheckDirectPayload handles a fresh turn (no checkpoint pending). Structured
// payload fields win over free text: when the caller already supplied an email
// or phone there is nothing to extract and nothing to log. Only a contact-less
// payload with a body goes through the resolution chain. A turn that ends with
// no known contact pauses the session by setting the waiting flag, so the next
// inbound message is routed as a resume.
func CheckDirectPayload(
	ctx context.Context,
	in *GraphState,
	resolver contractx.Resolver,
	appendEvent EventAppender,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if in.Payload.HasContact() {
		in.Outcome.Email = in.Payload.Email
		in.Outcome.Phone = in.Payload.Phone
		return in, nil
	}

	if in.Payload.Body != "" {
		result := resolver.Resolve(ctx, in.Payload.Body)
		if !result.IsEmpty() {
			data := extractionData(result.ContactRecord, result.Method, contractx.SourceMessageBody)
			if err := appendEvent(ctx, in.SessionID, statex.EventContactInfoExtracted, data); err != nil {
				return nil, err
			}
			in.Outcome.Email = result.Email
			in.Outcome.Phone = result.Phone
			in.Outcome.ExtractionMethod = result.Method
			in.Outcome.EventLogged = true
			log.Info().
				Str("session_id", in.SessionID).
				Str("method", string(result.Method)).
				Msg("contact info extracted from message body")
			return in, nil
		}
	}

	// No contact anywhere: pause the session until the user provides it.
	if err := appendEvent(ctx, in.SessionID, statex.EventContactInfoFlag, statex.FlagData(true)); err != nil {
		return nil, err
	}
	in.Outcome.NeedsContactInfo = true
	log.Info().
		Str("session_id", in.SessionID).
		Msg("no contact info available, pausing session for contact collection")
	return in, nil
}
