package checklist

// Bag is one of the four fixed packing zones.
type Bag string

const (
	BagCarryOn  Bag = "carryOn"
	BagChecked  Bag = "checked"
	BagPersonal Bag = "personal"
	BagWork     Bag = "work"
)

// Bags lists every bag in display order.
var Bags = []Bag{BagCarryOn, BagChecked, BagPersonal, BagWork}

// DisplayName returns the human label of the bag.
func (b Bag) DisplayName() string {
	switch b {
	case BagChecked:
		return "Checked bag"
	case BagPersonal:
		return "Personal item"
	case BagWork:
		return "Work bag"
	default:
		return "Carry-on"
	}
}

// Known groups. Groups are open-ended; these have a fixed display order.
const (
	GroupDocuments = "documents"
	GroupTech      = "tech"
	GroupClothing  = "clothing"
	GroupOther     = "other"
)

// MaxQuantity caps any item quantity.
const MaxQuantity = 99

// DefaultDurationDays is used when a trip has no usable duration.
const DefaultDurationDays = 3

// Item is one packable entry.
type Item struct {
	// ID is derived from source, group, label and bag unless supplied explicitly
	ID string `json:"id"`

	// Group is the category tag (documents, tech, clothing, other, ...)
	Group string `json:"group"`

	// Label is the trimmed, non-empty display name
	Label string `json:"label"`

	// Source records which rule or user action produced the item
	Source Source `json:"source"`

	// Checked is the packed flag
	Checked bool `json:"checked"`

	// Bag is the packing zone
	Bag Bag `json:"bag"`

	// Quantity is 1..99, or 0 when unspecified
	Quantity int `json:"quantity,omitempty"`
}

// Key returns the item's conflict key.
func (it Item) Key() string {
	return ConflictKey(it.Label, it.Bag)
}

// Count returns the quantity, treating unspecified as one.
func (it Item) Count() int {
	if it.Quantity <= 0 {
		return 1
	}
	return it.Quantity
}

// Descriptor is the raw input to CreateItem.
type Descriptor struct {
	ID       string
	Group    string
	Label    string
	Source   Source
	Checked  bool
	Bag      string
	Quantity float64
}

// Trip holds the parameters the checklist is derived from.
type Trip struct {
	City         string   `json:"city"`
	Country      string   `json:"country"`
	DurationDays int      `json:"durationDays"`
	Activities   []string `json:"activities"`

	// GeneratedAt is a Unix timestamp in milliseconds
	GeneratedAt int64 `json:"generatedAt"`
}

// Weather is a forecast snapshot for the trip destination.
type Weather struct {
	Location      string  `json:"location"`
	Summary       string  `json:"summary"`
	TempC         float64 `json:"tempC"`
	MinC          float64 `json:"minC"`
	MaxC          float64 `json:"maxC"`
	Precipitation float64 `json:"precipitation"`
	WindKph       float64 `json:"windKph"`
	LastUpdated   string  `json:"lastUpdated"`
}

// ApplyMode selects how a template is applied.
type ApplyMode string

const (
	ApplyMerge   ApplyMode = "merge"
	ApplyReplace ApplyMode = "replace"
)

// AppliedTemplate records the last template applied to the checklist.
type AppliedTemplate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AppliedAt int64     `json:"appliedAt"`
	Mode      ApplyMode `json:"mode"`
}

// Meta carries checklist metadata surfaced to the UI.
type Meta struct {
	LastTemplate *AppliedTemplate `json:"lastTemplate"`
}

// State is one immutable snapshot of the application state.
// Transforms in this package never modify a State they receive; they return
// a new one with freshly allocated slices.
type State struct {
	Trip    Trip     `json:"trip"`
	Items   []Item   `json:"items"`
	Weather *Weather `json:"weather"`
	Meta    Meta     `json:"meta"`
}

// withItems returns a copy of s holding items.
func (s State) withItems(items []Item) State {
	s.Items = items
	return s
}

// IndexOf returns the index of the item with the given id, or -1.
func (s State) IndexOf(id string) int {
	for i, it := range s.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the item with the given id.
func (s State) Find(id string) (Item, bool) {
	if i := s.IndexOf(id); i >= 0 {
		return s.Items[i], true
	}
	return Item{}, false
}

// indexOfKey returns the index of the first item with the given conflict key, or -1.
func indexOfKey(items []Item, key string) int {
	for i, it := range items {
		if it.Key() == key {
			return i
		}
	}
	return -1
}

// keyIndex maps conflict keys to the first item holding them.
func keyIndex(items []Item) map[string]Item {
	m := make(map[string]Item, len(items))
	for _, it := range items {
		if _, ok := m[it.Key()]; !ok {
			m[it.Key()] = it
		}
	}
	return m
}
