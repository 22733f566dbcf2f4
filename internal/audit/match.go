package audit

import (
	"fmt"

	"github.com/gyeh/billaudit/internal/model"
	"github.com/gyeh/billaudit/internal/normalize"
)

// matchStrategy is one step of the cascade. bound holds the bill items the
// attempt relates the line to; Match binds them only for an OK amount anchor.
type matchStrategy struct {
	name    model.MatchStrategy
	attempt func(ix *BillIndex, line model.AuthorizationLine) (outcome model.MatchOutcome, details string, bound []model.BillItem)
}

// matchCascade runs in order; every strategy is always attempted.
var matchCascade = []matchStrategy{
	{name: model.StrategyDescriptionFamily, attempt: matchDescription},
	{name: model.StrategyAmountExact, attempt: matchAmount},
}

// Match runs the cascade for one line. Status is the best outcome. Only an
// OK amount anchor binds bill items; a description hit stays in the trace.
func Match(ix *BillIndex, line model.AuthorizationLine) model.MatchTrace {
	trace := model.MatchTrace{
		Attempts:         make([]model.MatchAttempt, 0, len(matchCascade)),
		Status:           model.MatchFail,
		MatchedBillItems: []string{},
	}
	var bound []model.BillItem
	for _, s := range matchCascade {
		outcome, details, items := s.attempt(ix, line)
		trace.Attempts = append(trace.Attempts, model.MatchAttempt{
			Strategy: s.name,
			Outcome:  outcome,
			Details:  details,
		})
		trace.Status = model.BestOutcome(trace.Status, outcome)
		if outcome == model.MatchOK && s.name == model.StrategyAmountExact {
			bound = items
		}
	}

	for _, item := range bound {
		trace.MatchedBillItems = append(trace.MatchedBillItems, item.ID)
	}
	return trace
}

func matchDescription(ix *BillIndex, line model.AuthorizationLine) (model.MatchOutcome, string, []model.BillItem) {
	key := normalize.FoldText(line.Description)
	if key == "" {
		return model.MatchFail, "empty description", nil
	}
	if items := ix.ByDescription(key); len(items) > 0 {
		return model.MatchOK, fmt.Sprintf("exact description %q (%d bill items)", key, len(items)), items
	}
	if related, ok := ix.RelatedKey(key); ok {
		return model.MatchPartial, fmt.Sprintf("description %q related to bill description %q", key, related), nil
	}
	return model.MatchFail, fmt.Sprintf("no bill description related to %q", key), nil
}

func matchAmount(ix *BillIndex, line model.AuthorizationLine) (model.MatchOutcome, string, []model.BillItem) {
	items := ix.ByAmount(line.TotalValue)
	switch len(items) {
	case 0:
		return model.MatchFail, fmt.Sprintf("no bill item at %s", line.TotalValue), nil
	case 1:
		return model.MatchOK, fmt.Sprintf("unique bill item %s at %s", items[0].ID, line.TotalValue), items
	default:
		return model.MatchPartial, fmt.Sprintf("%d bill items share amount %s", len(items), line.TotalValue), nil
	}
}
