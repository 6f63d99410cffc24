package checklist

import (
	"math"
	"sort"
	"strings"
)

// rule is a static item a rule contributes.
type rule struct {
	group string
	label string
	bag   Bag
}

// baseRules are packed for every trip.
var baseRules = []rule{
	{GroupDocuments, "Passport / ID", BagPersonal},
	{GroupDocuments, "Travel tickets", BagPersonal},
	{GroupDocuments, "Wallet", BagPersonal},
	{GroupDocuments, "Travel insurance", BagPersonal},
	{GroupTech, "Phone", BagPersonal},
	{GroupTech, "Phone charger", BagCarryOn},
	{GroupTech, "Headphones", BagCarryOn},
	{GroupTech, "Power bank", BagCarryOn},
	{GroupTech, "Travel adapter", BagCarryOn},
	{GroupClothing, "Sleepwear", BagCarryOn},
	{GroupClothing, "Comfortable shoes", BagCarryOn},
	{GroupOther, "Toothbrush", BagCarryOn},
	{GroupOther, "Toothpaste", BagCarryOn},
	{GroupOther, "Deodorant", BagCarryOn},
	{GroupOther, "Medications", BagCarryOn},
}

// activityRules maps activity keys to the items they add.
var activityRules = map[string][]rule{
	"pitching": {
		{GroupClothing, "Formal Outfit", BagCarryOn},
		{GroupClothing, "Dress shoes", BagCarryOn},
		{GroupTech, "Laptop", BagWork},
		{GroupTech, "Presentation clicker", BagWork},
		{GroupTech, "Pitch deck backup (USB)", BagWork},
		{GroupDocuments, "Business cards", BagWork},
	},
	"business": {
		{GroupClothing, "Smart outfit", BagCarryOn},
		{GroupTech, "Laptop", BagWork},
		{GroupTech, "Laptop charger", BagWork},
		{GroupDocuments, "Business cards", BagWork},
	},
	"conference": {
		{GroupDocuments, "Registration / badge", BagPersonal},
		{GroupDocuments, "Business cards", BagWork},
		{GroupOther, "Notebook & pen", BagWork},
	},
	"hiking": {
		{GroupClothing, "Hiking boots", BagChecked},
		{GroupClothing, "Rain jacket", BagCarryOn},
		{GroupOther, "Daypack", BagChecked},
		{GroupOther, "Water bottle", BagCarryOn},
		{GroupOther, "First aid kit", BagChecked},
	},
	"beach": {
		{GroupClothing, "Swimsuit", BagCarryOn},
		{GroupClothing, "Flip-flops", BagChecked},
		{GroupOther, "Beach towel", BagChecked},
		{GroupOther, "Sunscreen", BagCarryOn},
	},
	"running": {
		{GroupClothing, "Running shoes", BagChecked},
		{GroupClothing, "Running clothes", BagChecked},
		{GroupTech, "Sports watch", BagCarryOn},
	},
	"photography": {
		{GroupTech, "Camera", BagCarryOn},
		{GroupTech, "Spare batteries", BagCarryOn},
		{GroupTech, "Memory cards", BagCarryOn},
		{GroupOther, "Lens cloth", BagCarryOn},
	},
	"skiing": {
		{GroupClothing, "Ski jacket", BagChecked},
		{GroupClothing, "Ski pants", BagChecked},
		{GroupClothing, "Thermal layers", BagChecked},
		{GroupClothing, "Gloves", BagCarryOn},
		{GroupOther, "Ski goggles", BagChecked},
	},
}

// KnownActivities returns the activity keys that have rules, sorted.
func KnownActivities() []string {
	keys := make([]string, 0, len(activityRules))
	for k := range activityRules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BaseDescriptors returns the static, duration and activity descriptors for
// a trip, in that order.
func BaseDescriptors(trip Trip) []Descriptor {
	descs := make([]Descriptor, 0, len(baseRules)+8)
	for _, r := range baseRules {
		descs = append(descs, r.descriptor(BaseSource, 0))
	}
	descs = append(descs, DurationDescriptors(trip.DurationDays)...)
	for _, key := range NormalizeActivities(trip.Activities) {
		for _, r := range activityRules[key] {
			descs = append(descs, r.descriptor(ActivitySource(key), 0))
		}
	}
	return descs
}

// DurationDescriptors returns the clothing counts that scale with trip length.
func DurationDescriptors(days int) []Descriptor {
	if days < 1 {
		days = DefaultDurationDays
	}
	d := float64(days)
	descs := []Descriptor{
		rule{GroupClothing, "Underwear", BagCarryOn}.descriptor(DurationSource, d),
		rule{GroupClothing, "Socks", BagCarryOn}.descriptor(DurationSource, d),
		rule{GroupClothing, "T-shirts", BagCarryOn}.descriptor(DurationSource, math.Ceil(d*2/3)),
		rule{GroupClothing, "Trousers", BagCarryOn}.descriptor(DurationSource, math.Ceil(d/3)),
	}
	if days >= 5 {
		descs = append(descs, rule{GroupOther, "Laundry bag", BagCarryOn}.descriptor(DurationSource, 0))
	}
	if days >= 8 {
		descs = append(descs,
			rule{GroupOther, "Travel detergent", BagChecked}.descriptor(DurationSource, 0),
			rule{GroupClothing, "Extra outfit", BagChecked}.descriptor(DurationSource, 0),
		)
	}
	return descs
}

func (r rule) descriptor(source Source, qty float64) Descriptor {
	return Descriptor{
		Group:    r.group,
		Label:    r.label,
		Bag:      string(r.bag),
		Source:   source,
		Quantity: qty,
	}
}

// NormalizeActivities lowercases, trims, deduplicates and sorts activity keys.
func NormalizeActivities(activities []string) []string {
	seen := make(map[string]bool, len(activities))
	out := make([]string, 0, len(activities))
	for _, a := range activities {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
