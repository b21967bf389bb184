package routernode

import (
	"fmt"

	contractx "github.com/avelarsol/concierge/agent/contract"
)

func FinalizeOutcome(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	return GraphOutput{Outcome: in.Outcome}, nil
}
