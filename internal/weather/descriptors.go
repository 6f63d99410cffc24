package weather

import "github.com/hpungsan/packlist/internal/checklist"

// Temperature thresholds in °C.
const (
	ColdBelowC = 5.0
	WarmAboveC = 24.0
)

// Descriptors maps a forecast to weather-sourced item descriptors.
// A nil snapshot yields none.
func Descriptors(w *checklist.Weather) []checklist.Descriptor {
	if w == nil {
		return nil
	}

	var out []checklist.Descriptor
	add := func(group, label string) {
		out = append(out, checklist.Descriptor{
			Group:  group,
			Label:  label,
			Source: checklist.WeatherSource,
		})
	}

	if w.Precipitation > 0 {
		add(checklist.GroupOther, "Umbrella")
		add(checklist.GroupClothing, "Raincoat")
	}
	if w.MinC < ColdBelowC {
		add(checklist.GroupClothing, "Gloves")
		add(checklist.GroupClothing, "Beanie")
	}
	if w.MaxC > WarmAboveC {
		add(checklist.GroupOther, "Sunscreen")
		add(checklist.GroupOther, "Sunglasses")
	}
	return out
}
