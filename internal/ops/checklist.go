package ops

import (
	"github.com/hpungsan/packlist/internal/checklist"
	"github.com/hpungsan/packlist/internal/errors"
	"github.com/hpungsan/packlist/internal/weather"
)

// UpdateTrip merges patch into the trip without regenerating items.
func (a *App) UpdateTrip(patch checklist.TripPatch) checklist.State {
	s, _ := a.update("trip", func(s checklist.State) (checklist.State, error) {
		return checklist.UpdateTrip(s, patch, a.nowMillis()), nil
	})
	return s
}

// Generate rebuilds the rule-derived items for the current trip, keeping
// user items and packed flags. Weather items are rebuilt from the stored
// forecast when there is one and carried over otherwise.
func (a *App) Generate() checklist.State {
	s, _ := a.update("generate", func(s checklist.State) (checklist.State, error) {
		var opts checklist.GenerateOptions
		if s.Weather != nil {
			opts.RefreshWeather = true
			opts.WeatherDescriptors = weather.Descriptors(s.Weather)
		}
		return checklist.Generate(s, opts), nil
	})
	return s
}

// Confirmer decides whether a duplicate add should be merged into the
// existing item.
type Confirmer func(existing, candidate checklist.Item) bool

// AddInput contains parameters for the AddCustomItem operation.
type AddInput struct {
	Label string
	Group string // default: other
	Bag   string // default: carryOn

	// Confirm answers the merge question when the label already exists in
	// the bag. Nil defers the question: the output carries a PendingMerge
	// for ConfirmMerge.
	Confirm Confirmer
}

// AddOutput contains the result of AddCustomItem and ConfirmMerge.
type AddOutput struct {
	Outcome checklist.EnsureOutcome `json:"outcome"`
	Item    checklist.Item          `json:"item"`
	Pending *checklist.PendingMerge `json:"pending,omitempty"`
}

// AddCustomItem adds a user item. A conflicting add is merged only when the
// confirmer agrees; declining leaves the list unchanged. The confirmer runs
// without holding the controller lock.
func (a *App) AddCustomItem(in AddInput) (*AddOutput, error) {
	var res checklist.EnsureResult
	_, err := a.update("add", func(s checklist.State) (checklist.State, error) {
		next, r, err := checklist.AddCustomItem(s, in.Label, in.Group, in.Bag)
		res = r
		return next, err
	})
	if err != nil {
		return nil, err
	}

	if res.Outcome == checklist.OutcomeNeedsConfirmation && in.Confirm != nil {
		yes := in.Confirm(res.Pending.Existing, res.Pending.Candidate)
		return a.ConfirmMerge(*res.Pending, yes), nil
	}
	return &AddOutput{Outcome: res.Outcome, Item: res.Item, Pending: res.Pending}, nil
}

// ConfirmMerge finishes an add that returned OutcomeNeedsConfirmation.
func (a *App) ConfirmMerge(p checklist.PendingMerge, yes bool) *AddOutput {
	var out AddOutput
	a.update("confirm", func(s checklist.State) (checklist.State, error) {
		next, res := checklist.ResolveMerge(s, p, yes)
		out = AddOutput{Outcome: res.Outcome, Item: res.Item}
		return next, nil
	})
	return &out
}

// ToggleItem sets the packed flag of an item. A nil checked flips it.
func (a *App) ToggleItem(id string, checked *bool) (checklist.Item, error) {
	var item checklist.Item
	_, err := a.update("toggle", func(s checklist.State) (checklist.State, error) {
		cur, ok := s.Find(id)
		if !ok {
			return s, errors.NewNotFound("item", id)
		}
		want := !cur.Checked
		if checked != nil {
			want = *checked
		}
		next, err := checklist.ToggleItem(s, id, want)
		if err != nil {
			return s, err
		}
		item, _ = next.Find(id)
		return next, nil
	})
	return item, err
}

// DeleteItem removes an item and returns it.
func (a *App) DeleteItem(id string) (checklist.Item, error) {
	var removed checklist.Item
	_, err := a.update("delete", func(s checklist.State) (checklist.State, error) {
		next, it, err := checklist.DeleteItem(s, id)
		removed = it
		return next, err
	})
	return removed, err
}

// MoveItem moves an item to another bag, merging it into a same-label item
// already there.
func (a *App) MoveItem(id, bag string) (*checklist.MoveResult, error) {
	var res checklist.MoveResult
	_, err := a.update("move", func(s checklist.State) (checklist.State, error) {
		next, r, err := checklist.MoveItemToBag(s, id, bag)
		res = r
		return next, err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Reset drops the checklist and bootstraps a fresh one from the configured
// trip defaults.
func (a *App) Reset() checklist.State {
	a.ctl.Cancel()
	s, _ := a.update("reset", func(checklist.State) (checklist.State, error) {
		return checklist.Init(nil, a.defaultTrip()), nil
	})
	return s
}

// ChecklistView is a snapshot with its derived progress and per-bag totals.
type ChecklistView struct {
	checklist.State
	Progress int                   `json:"progress"`
	Bags     []checklist.BagTotals `json:"bags"`
}

// NewChecklistView derives the view of s.
func NewChecklistView(s checklist.State) ChecklistView {
	return ChecklistView{
		State:    s,
		Progress: checklist.Progress(s.Items),
		Bags:     checklist.BagSummary(s.Items),
	}
}
