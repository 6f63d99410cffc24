package checklist

import "strconv"

// Dedupe merges items sharing a conflict key into one, preserving the
// position of each key's first occurrence. It must run after every operation
// that combines item lists; it is the single point that guarantees no two
// items share a conflict key.
//
// Merging rules for a later duplicate:
//   - checked is OR-combined
//   - source: custom wins, then template, otherwise the existing source stays
//   - bag: the existing bag stays unless it was empty
//   - quantity: summed when both are set (capped), otherwise whichever is set
func Dedupe(items []Item) []Item {
	out := make([]Item, 0, len(items))
	index := make(map[string]int, len(items))

	for _, it := range items {
		key := it.Key()
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, it)
			continue
		}
		out[i] = mergeDuplicate(out[i], it)
	}

	return uniqueIDs(out)
}

// mergeDuplicate folds incoming into existing per the Dedupe rules.
func mergeDuplicate(existing, incoming Item) Item {
	merged := existing
	merged.Checked = existing.Checked || incoming.Checked
	if incoming.Source.precedence() > existing.Source.precedence() {
		merged.Source = incoming.Source
	}
	if existing.Bag == "" && incoming.Bag != "" {
		merged.Bag = incoming.Bag
	}
	switch {
	case existing.Quantity > 0 && incoming.Quantity > 0:
		merged.Quantity = capQuantity(existing.Quantity + incoming.Quantity)
	case incoming.Quantity > 0:
		merged.Quantity = incoming.Quantity
	}
	return merged
}

// uniqueIDs suffixes ids that collide across different conflict keys
// ("a b" and "a-b" slug identically) so id lookups stay unambiguous.
// The list is modified in place; callers pass a freshly built slice.
func uniqueIDs(items []Item) []Item {
	seen := make(map[string]bool, len(items))
	for i := range items {
		id := items[i].ID
		if !seen[id] {
			seen[id] = true
			continue
		}
		for n := 2; ; n++ {
			candidate := id + "-" + strconv.Itoa(n)
			if !seen[candidate] {
				items[i].ID = candidate
				seen[candidate] = true
				break
			}
		}
	}
	return items
}
