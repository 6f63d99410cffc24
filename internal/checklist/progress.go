package checklist

import "math"

// Progress returns round(packed/total*100), or 0 for an empty list.
func Progress(items []Item) int {
	if len(items) == 0 {
		return 0
	}
	packed := 0
	for _, it := range items {
		if it.Checked {
			packed++
		}
	}
	return int(math.Round(float64(packed) / float64(len(items)) * 100))
}

// BagTotals is the packed/total count of one bag.
type BagTotals struct {
	Bag    Bag    `json:"bag"`
	Name   string `json:"name"`
	Packed int    `json:"packed"`
	Total  int    `json:"total"`
}

// BagSummary returns packed/total per bag, for every bag in display order.
func BagSummary(items []Item) []BagTotals {
	counts := make(map[Bag]*BagTotals, len(Bags))
	out := make([]BagTotals, len(Bags))
	for i, b := range Bags {
		out[i] = BagTotals{Bag: b, Name: b.DisplayName()}
		counts[b] = &out[i]
	}
	for _, it := range items {
		c, ok := counts[it.Bag]
		if !ok {
			c = counts[BagCarryOn]
		}
		c.Total++
		if it.Checked {
			c.Packed++
		}
	}
	return out
}

// GroupSection is the items of one group within a bag, in list order.
type GroupSection struct {
	Group string `json:"group"`
	Items []Item `json:"items"`
}

// BagSection is one bag's groups in display order.
type BagSection struct {
	Bag    Bag            `json:"bag"`
	Name   string         `json:"name"`
	Groups []GroupSection `json:"groups"`
}

// Sections arranges items by bag then group for display. Empty bags are
// omitted; item order within a group follows the list.
func Sections(items []Item) []BagSection {
	byBag := make(map[Bag]map[string][]Item)
	for _, it := range items {
		bag := it.Bag
		if bag == "" {
			bag = BagCarryOn
		}
		if byBag[bag] == nil {
			byBag[bag] = make(map[string][]Item)
		}
		byBag[bag][it.Group] = append(byBag[bag][it.Group], it)
	}

	var out []BagSection
	for _, b := range Bags {
		groups, ok := byBag[b]
		if !ok {
			continue
		}
		names := make([]string, 0, len(groups))
		for g := range groups {
			names = append(names, g)
		}
		SortGroups(names)

		section := BagSection{Bag: b, Name: b.DisplayName()}
		for _, g := range names {
			section.Groups = append(section.Groups, GroupSection{Group: g, Items: groups[g]})
		}
		out = append(out, section)
	}
	return out
}
