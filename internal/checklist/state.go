package checklist

import (
	"strings"

	"github.com/hpungsan/packlist/internal/errors"
)

// NormalizeTrip trims text fields, clamps the duration and normalizes activities.
func NormalizeTrip(t Trip) Trip {
	t.City = strings.TrimSpace(t.City)
	t.Country = strings.TrimSpace(t.Country)
	if t.DurationDays < 1 {
		t.DurationDays = DefaultDurationDays
	}
	t.Activities = NormalizeActivities(t.Activities)
	return t
}

// Init is the bootstrap transition. It starts from initial (a loaded or
// decoded state) or from an empty state for trip, and synthesizes the base,
// duration and activity items when the resulting list is empty.
func Init(initial *State, trip Trip) State {
	var s State
	if initial != nil {
		s = *initial
	} else {
		s = State{Trip: trip}
	}
	s.Trip = NormalizeTrip(s.Trip)

	if len(s.Items) > 0 {
		return s.withItems(Dedupe(append([]Item(nil), s.Items...)))
	}
	return s.withItems(Dedupe(createItems(BaseDescriptors(s.Trip))))
}

// TripPatch holds the trip fields to change; nil fields are left as they are.
type TripPatch struct {
	City         *string
	Country      *string
	DurationDays *int
	Activities   *[]string
}

// UpdateTrip shallow-merges patch into the trip and stamps GeneratedAt.
// It does not regenerate items; callers run Generate when ready, so a trip
// edit and a weather refresh can be batched into one rebuild.
func UpdateTrip(s State, patch TripPatch, nowMillis int64) State {
	t := s.Trip
	t.Activities = append([]string(nil), t.Activities...)
	if patch.City != nil {
		t.City = *patch.City
	}
	if patch.Country != nil {
		t.Country = *patch.Country
	}
	if patch.DurationDays != nil {
		t.DurationDays = *patch.DurationDays
	}
	if patch.Activities != nil {
		t.Activities = append([]string(nil), (*patch.Activities)...)
	}
	t.GeneratedAt = nowMillis
	s.Trip = NormalizeTrip(t)
	return s
}

// GenerateOptions controls the weather layer of Generate.
type GenerateOptions struct {
	// RefreshWeather replaces the weather items with WeatherDescriptors.
	// When false the existing weather items are carried over.
	RefreshWeather     bool
	WeatherDescriptors []Descriptor
}

// Generate rebuilds the checklist from the current trip without losing user state:
//   - base, duration and activity items are recomputed fresh
//   - a fresh item re-adopts the bag and checked flag of the previous item
//     with the same id (a rule item the user moved), otherwise the checked
//     flag of the previous item with the same conflict key
//   - custom and template items are kept untouched; a fresh item colliding
//     with one of them is skipped
//   - weather items are carried over, or rebuilt from opts with checked
//     false unless their conflict key already existed
func Generate(s State, opts GenerateOptions) State {
	prevByID := make(map[string]Item, len(s.Items))
	for _, it := range s.Items {
		prevByID[it.ID] = it
	}
	prevByKey := keyIndex(s.Items)

	var retained, carriedWeather []Item
	retainedKeys := make(map[string]bool)
	for _, it := range s.Items {
		switch {
		case it.Source.UserOwned():
			retained = append(retained, it)
			retainedKeys[it.Key()] = true
		case it.Source.Is(SourceWeather):
			carriedWeather = append(carriedWeather, it)
		}
	}

	items := make([]Item, 0, len(s.Items)+16)
	for _, it := range createItems(BaseDescriptors(s.Trip)) {
		if prev, ok := prevByID[it.ID]; ok && prev.Source == it.Source {
			it.Bag = prev.Bag
			it.Checked = prev.Checked
		} else if prev, ok := prevByKey[it.Key()]; ok {
			it.Checked = prev.Checked
		}
		if retainedKeys[it.Key()] {
			continue
		}
		items = append(items, it)
	}

	items = append(items, retained...)

	if opts.RefreshWeather {
		items = append(items, weatherItems(opts.WeatherDescriptors, prevByKey)...)
	} else {
		items = append(items, carriedWeather...)
	}

	return s.withItems(Dedupe(items))
}

// ReconcileWeather replaces only the weather-sourced items. A weather item
// whose conflict key already existed keeps that item's checked flag; every
// other item is untouched.
func ReconcileWeather(s State, descriptors []Descriptor) State {
	prevByKey := keyIndex(s.Items)

	items := make([]Item, 0, len(s.Items)+len(descriptors))
	for _, it := range s.Items {
		if !it.Source.Is(SourceWeather) {
			items = append(items, it)
		}
	}
	items = append(items, weatherItems(descriptors, prevByKey)...)

	return s.withItems(Dedupe(items))
}

// weatherItems builds weather items, restoring checked flags by conflict key.
func weatherItems(descs []Descriptor, prevByKey map[string]Item) []Item {
	out := make([]Item, 0, len(descs))
	for _, d := range descs {
		d.Source = WeatherSource
		d.Checked = false
		it, ok := CreateItem(d)
		if !ok {
			continue
		}
		if prev, ok := prevByKey[it.Key()]; ok {
			it.Checked = prev.Checked
		}
		out = append(out, it)
	}
	return out
}

// ToggleItem sets the checked flag of the item with the given id.
func ToggleItem(s State, id string, checked bool) (State, error) {
	i := s.IndexOf(id)
	if i < 0 {
		return s, errors.NewNotFound("item", id)
	}
	items := append([]Item(nil), s.Items...)
	items[i].Checked = checked
	return s.withItems(items), nil
}

// DeleteItem removes the item with the given id and returns it.
func DeleteItem(s State, id string) (State, Item, error) {
	i := s.IndexOf(id)
	if i < 0 {
		return s, Item{}, errors.NewNotFound("item", id)
	}
	removed := s.Items[i]
	items := make([]Item, 0, len(s.Items)-1)
	items = append(items, s.Items[:i]...)
	items = append(items, s.Items[i+1:]...)
	return s.withItems(items), removed, nil
}

// SetWeather records a weather snapshot without touching the items.
func SetWeather(s State, w *Weather) State {
	if w != nil {
		cp := *w
		w = &cp
	}
	s.Weather = w
	return s
}
