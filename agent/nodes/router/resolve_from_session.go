package routernode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/avelarsol/concierge/agent/contract"
	statex "github.com/avelarsol/concierge/agent/state"
)

// ResolveFromSession handles a turn that resumes a paused conversation: the
// previous turn asked the user for contact info and this message should carry
// it. Structured payload fields satisfy the checkpoint outright; only a
// contact-less payload has its body run through the resolution chain. The
// waiting flag is cleared whether or not the turn produced contact info: the
// user gets exactly one retry per resume, never an infinite re-prompt loop.
// The flag-cleared event must follow the extraction event, so a persistence
// failure on the extraction event aborts before the clear.
func ResolveFromSession(
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
		if err := appendEvent(ctx, in.SessionID, statex.EventContactInfoFlag, statex.FlagData(false)); err != nil {
			return nil, err
		}
		in.Outcome.Resumed = true
		log.Info().
			Str("session_id", in.SessionID).
			Msg("structured payload satisfied the contact checkpoint")
		return in, nil
	}

	var result contractx.ExtractionResult
	if in.Payload.Body != "" {
		result = resolver.Resolve(ctx, in.Payload.Body)
	}

	if !result.IsEmpty() {
		data := extractionData(result.ContactRecord, result.Method, "")
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
			Msg("contact info extracted on resume")
	} else {
		in.Outcome.NeedsContactInfo = true
		log.Info().
			Str("session_id", in.SessionID).
			Msg("resume turn carried no contact info")
	}

	if err := appendEvent(ctx, in.SessionID, statex.EventContactInfoFlag, statex.FlagData(false)); err != nil {
		return nil, err
	}

	in.Outcome.Resumed = true
	return in, nil
}

// extractionData builds the persisted payload of a contact_info_extracted
// event. Absent fields are explicit nulls on the wire.
func extractionData(record contractx.ContactRecord, method contractx.ExtractionMethod, source string) map[string]any {
	data := map[string]any{
		"email":             nullable(record.Email),
		"phone":             nullable(record.Phone),
		"extraction_method": string(method),
	}
	if source != "" {
		data["source"] = source
	}
	return data
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
