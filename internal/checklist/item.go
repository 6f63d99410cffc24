package checklist

import (
	"math"
	"strings"
)

// CreateItem normalizes a descriptor into an Item.
// It returns false when the label is blank; callers filter such descriptors
// out rather than treating them as errors.
func CreateItem(d Descriptor) (Item, bool) {
	label := strings.TrimSpace(d.Label)
	if label == "" {
		return Item{}, false
	}

	group := NormalizeGroup(d.Group)
	bag := NormalizeBag(d.Bag)

	id := strings.TrimSpace(d.ID)
	if id == "" {
		id = ItemID(d.Source, group, label, bag)
	}

	return Item{
		ID:       id,
		Group:    group,
		Label:    label,
		Source:   ParseSource(d.Source.String()),
		Checked:  d.Checked,
		Bag:      bag,
		Quantity: NormalizeQuantity(d.Quantity),
	}, true
}

// ItemID derives the deterministic id of an item, so regenerating the same
// logical item from the same source always yields the same id.
func ItemID(source Source, group, label string, bag Bag) string {
	return sanitizeSource(source.String()) + "-" + Slugify(group+"-"+label) + "-" + string(bag)
}

// NormalizeQuantity rounds a finite positive quantity up and caps it at
// MaxQuantity. Non-positive and non-finite values mean "unspecified" (0).
func NormalizeQuantity(q float64) int {
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return 0
	}
	n := math.Ceil(q)
	if n > MaxQuantity {
		return MaxQuantity
	}
	return int(n)
}

// capQuantity clamps an integer quantity to 0..MaxQuantity.
func capQuantity(q int) int {
	switch {
	case q <= 0:
		return 0
	case q > MaxQuantity:
		return MaxQuantity
	default:
		return q
	}
}

// createItems converts descriptors into items, dropping invalid ones.
func createItems(descs []Descriptor) []Item {
	items := make([]Item, 0, len(descs))
	for _, d := range descs {
		if it, ok := CreateItem(d); ok {
			items = append(items, it)
		}
	}
	return items
}
