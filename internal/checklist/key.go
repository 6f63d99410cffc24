package checklist

import (
	"regexp"
	"sort"
	"strings"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// nonSlugRegex matches runs of characters that cannot appear in a slug
var nonSlugRegex = regexp.MustCompile(`[^a-z0-9]+`)

// nonSourceRegex matches runs of characters that cannot appear in an id prefix
var nonSourceRegex = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// Normalize trims, lowercases and collapses internal whitespace to single spaces.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// ConflictKey returns the dedup key for a (label, bag) pair.
// Two items with equal keys are the same real-world packed thing.
func ConflictKey(label string, bag Bag) string {
	return Normalize(label) + "|" + string(bag)
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	s = nonSlugRegex.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// sanitizeSource turns a source tag into an id prefix ("activity:hiking" -> "activity-hiking").
func sanitizeSource(s string) string {
	return nonSourceRegex.ReplaceAllString(s, "-")
}

// NormalizeBag maps user or wire input onto the fixed bag enum.
// Unknown and empty values become BagCarryOn.
func NormalizeBag(s string) Bag {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "checked":
		return BagChecked
	case "personal":
		return BagPersonal
	case "work":
		return BagWork
	default:
		return BagCarryOn
	}
}

// NormalizeGroup lowercases and trims a group; empty becomes "other".
func NormalizeGroup(s string) string {
	g := Normalize(s)
	if g == "" {
		return GroupOther
	}
	return g
}

// groupOrder is the fixed display order of the known groups.
var groupOrder = map[string]int{
	GroupDocuments: 0,
	GroupTech:      1,
	GroupClothing:  2,
	GroupOther:     3,
}

// SortGroups orders groups for display: known groups first in their fixed
// order, then the rest alphabetically.
func SortGroups(groups []string) {
	sort.SliceStable(groups, func(i, j int) bool {
		oi, iKnown := groupOrder[groups[i]]
		oj, jKnown := groupOrder[groups[j]]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown:
			return true
		case jKnown:
			return false
		default:
			return groups[i] < groups[j]
		}
	})
}
