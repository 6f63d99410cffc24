package checklist

import (
	"strings"

	"github.com/hpungsan/packlist/internal/errors"
)

// EnsureOutcome is the result of adding a candidate item.
type EnsureOutcome string

const (
	OutcomeAdded             EnsureOutcome = "added"
	OutcomeNeedsConfirmation EnsureOutcome = "needs_confirmation"
	OutcomeMerged            EnsureOutcome = "merged"
	OutcomeCancelled         EnsureOutcome = "cancelled"
)

// PendingMerge is the continuation of an add that collided with an existing
// item. The caller obtains a yes/no answer and passes it to ResolveMerge.
type PendingMerge struct {
	Candidate Item   `json:"candidate"`
	Existing  Item   `json:"existing"`
	Key       string `json:"key"`
}

// EnsureResult reports what EnsureUniqueOrMerge or ResolveMerge did.
type EnsureResult struct {
	Outcome EnsureOutcome `json:"outcome"`
	Item    Item          `json:"item"`
	Pending *PendingMerge `json:"pending,omitempty"`
}

// EnsureUniqueOrMerge adds the candidate when no item shares its conflict
// key. Otherwise the state is returned unchanged together with a
// PendingMerge; nothing is merged until the caller confirms.
func EnsureUniqueOrMerge(s State, d Descriptor) (State, EnsureResult, error) {
	candidate, ok := CreateItem(d)
	if !ok {
		return s, EnsureResult{}, errors.NewEmptyInput("label")
	}

	key := candidate.Key()
	if i := indexOfKey(s.Items, key); i >= 0 {
		return s, EnsureResult{
			Outcome: OutcomeNeedsConfirmation,
			Item:    s.Items[i],
			Pending: &PendingMerge{Candidate: candidate, Existing: s.Items[i], Key: key},
		}, nil
	}

	items := make([]Item, 0, len(s.Items)+1)
	items = append(items, s.Items...)
	items = append(items, candidate)
	next := s.withItems(Dedupe(items))
	return next, EnsureResult{Outcome: OutcomeAdded, Item: next.Items[len(next.Items)-1]}, nil
}

// ResolveMerge finishes a pending add. Declining leaves the state unchanged
// and reports OutcomeCancelled. Confirming adds the quantities (unspecified
// counts as one) into the item currently holding the key; if that item has
// since disappeared the candidate is simply added.
func ResolveMerge(s State, p PendingMerge, confirmed bool) (State, EnsureResult) {
	if !confirmed {
		return s, EnsureResult{Outcome: OutcomeCancelled, Item: p.Existing}
	}

	i := indexOfKey(s.Items, p.Key)
	if i < 0 {
		items := make([]Item, 0, len(s.Items)+1)
		items = append(items, s.Items...)
		items = append(items, p.Candidate)
		next := s.withItems(Dedupe(items))
		return next, EnsureResult{Outcome: OutcomeAdded, Item: next.Items[len(next.Items)-1]}
	}

	items := append([]Item(nil), s.Items...)
	items[i] = absorb(items[i], p.Candidate)
	return s.withItems(items), EnsureResult{Outcome: OutcomeMerged, Item: items[i]}
}

// absorb merges incoming into target counting unspecified quantities as one.
func absorb(target, incoming Item) Item {
	merged := mergeDuplicate(target, incoming)
	merged.Quantity = capQuantity(target.Count() + incoming.Count())
	return merged
}

// AddCustomItem validates the label and adds a custom item through
// EnsureUniqueOrMerge.
func AddCustomItem(s State, label, group, bag string) (State, EnsureResult, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return s, EnsureResult{}, errors.NewEmptyInput("label")
	}
	return EnsureUniqueOrMerge(s, Descriptor{
		Group:  group,
		Label:  label,
		Bag:    bag,
		Source: CustomSource,
	})
}

// MoveResult reports what MoveItemToBag did.
type MoveResult struct {
	// Moved is true when the item now lives in the target bag under its own id
	Moved bool `json:"moved"`

	// Merged is true when the item was absorbed into an existing item of the
	// target bag with the same label
	Merged bool `json:"merged"`

	// Item is the resulting item (the absorbing item when Merged)
	Item Item `json:"item"`
}

// MoveItemToBag moves an item to another bag. When the target bag already
// holds an item with the same label, the moved item is absorbed into it:
// quantities are added and the moved id disappears. Unlike a duplicate add,
// this merge needs no confirmation; callers surface Merged as a message.
func MoveItemToBag(s State, id, bag string) (State, MoveResult, error) {
	i := s.IndexOf(id)
	if i < 0 {
		return s, MoveResult{}, errors.NewNotFound("item", id)
	}

	target := NormalizeBag(bag)
	moving := s.Items[i]
	if moving.Bag == target {
		return s, MoveResult{Item: moving}, nil
	}

	moving.Bag = target
	key := moving.Key()
	for j, other := range s.Items {
		if j == i || other.Key() != key {
			continue
		}
		items := make([]Item, 0, len(s.Items)-1)
		var into Item
		for k, it := range s.Items {
			switch k {
			case i:
				continue
			case j:
				into = absorb(other, moving)
				items = append(items, into)
			default:
				items = append(items, it)
			}
		}
		return s.withItems(items), MoveResult{Merged: true, Item: into}, nil
	}

	items := append([]Item(nil), s.Items...)
	items[i] = moving
	return s.withItems(items), MoveResult{Moved: true, Item: moving}, nil
}
