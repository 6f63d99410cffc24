package checklist

import "strings"

// SourceKind identifies which rule or user action produced an item.
type SourceKind uint8

const (
	SourceBase SourceKind = iota + 1
	SourceDuration
	SourceActivity
	SourceWeather
	SourceCustom
	SourceTemplate
)

// Source is the provenance of an item. Key is the activity key for
// SourceActivity and the template id for SourceTemplate; it is empty otherwise.
// The zero Source is treated as custom.
type Source struct {
	Kind SourceKind
	Key  string
}

var (
	BaseSource     = Source{Kind: SourceBase}
	DurationSource = Source{Kind: SourceDuration}
	WeatherSource  = Source{Kind: SourceWeather}
	CustomSource   = Source{Kind: SourceCustom}
)

// ActivitySource returns the source for items derived from an activity rule.
func ActivitySource(key string) Source {
	return Source{Kind: SourceActivity, Key: key}
}

// TemplateSource returns the source for items applied from a template.
func TemplateSource(id string) Source {
	return Source{Kind: SourceTemplate, Key: id}
}

// kind resolves the zero kind to custom.
func (s Source) kind() SourceKind {
	if s.Kind == 0 {
		return SourceCustom
	}
	return s.Kind
}

// String returns the wire form: base, duration, activity:<key>, weather,
// custom or template:<id>.
func (s Source) String() string {
	switch s.kind() {
	case SourceBase:
		return "base"
	case SourceDuration:
		return "duration"
	case SourceActivity:
		return "activity:" + s.Key
	case SourceWeather:
		return "weather"
	case SourceTemplate:
		return "template:" + s.Key
	default:
		return "custom"
	}
}

// ParseSource parses the wire form. Unrecognized tags parse as custom so a
// foreign item is never treated as regenerable.
func ParseSource(s string) Source {
	s = strings.TrimSpace(s)
	switch s {
	case "base":
		return BaseSource
	case "duration":
		return DurationSource
	case "weather":
		return WeatherSource
	case "custom", "":
		return CustomSource
	}
	if key, ok := strings.CutPrefix(s, "activity:"); ok && key != "" {
		return ActivitySource(key)
	}
	if id, ok := strings.CutPrefix(s, "template:"); ok && id != "" {
		return TemplateSource(id)
	}
	return CustomSource
}

// Is reports whether s has the given kind.
func (s Source) Is(kind SourceKind) bool {
	return s.kind() == kind
}

// precedence ranks sources for merge: custom beats template beats the rest.
func (s Source) precedence() int {
	switch s.kind() {
	case SourceCustom:
		return 2
	case SourceTemplate:
		return 1
	default:
		return 0
	}
}

// SurvivesReplace reports whether an item with this source is kept when a
// template is applied in replace mode.
func (s Source) SurvivesReplace() bool {
	switch s.kind() {
	case SourceCustom, SourceWeather:
		return true
	default:
		return false
	}
}

// UserOwned reports whether the item was introduced by the user (directly or
// through a template) and therefore survives regeneration untouched.
func (s Source) UserOwned() bool {
	switch s.kind() {
	case SourceCustom, SourceTemplate:
		return true
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Source) UnmarshalText(text []byte) error {
	*s = ParseSource(string(text))
	return nil
}
