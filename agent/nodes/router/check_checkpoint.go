package routernode

import (
	"context"
	"fmt"

	contractx "github.com/avelarsol/concierge/agent/contract"
	statex "github.com/avelarsol/concierge/agent/state"
)

// CheckCheckpoint reads the derived waiting-for-contact flag for the session.
// A store read failure fails the turn: routing on a guessed flag could resume
// the wrong state.
func CheckCheckpoint(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	waiting, err := store.IsWaitingForContactInfo(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: read checkpoint flag: %v", contractx.ErrPersistence, err)
	}

	in.Waiting = waiting
	return in, nil
}
