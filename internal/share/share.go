// Package share encodes a checklist state into a compact URL-safe payload
// and decodes it back, including the legacy full-key payload format.
package share

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/hpungsan/packlist/internal/checklist"
)

// Version is written into every modern payload.
const Version = 1

// Query parameter names.
const (
	ParamModern = "s"
	ParamLegacy = "state"
)

type payload struct {
	Trip    tripPayload     `json:"t"`
	Items   []itemPayload   `json:"i"`
	Weather *weatherPayload `json:"w,omitempty"`
	Version int             `json:"v"`
}

// decodedPayload mirrors payload with pointers so missing keys are visible.
type decodedPayload struct {
	Trip    *tripPayload    `json:"t"`
	Items   *[]itemPayload  `json:"i"`
	Weather *weatherPayload `json:"w"`
}

type tripPayload struct {
	City         string   `json:"c,omitempty"`
	Country      string   `json:"co,omitempty"`
	DurationDays int      `json:"d,omitempty"`
	Activities   []string `json:"a,omitempty"`
	GeneratedAt  int64    `json:"g,omitempty"`
}

type itemPayload struct {
	ID       string `json:"id"`
	Group    string `json:"g"`
	Label    string `json:"l"`
	Source   string `json:"s"`
	Checked  int    `json:"c,omitempty"`
	Bag      string `json:"b"`
	Quantity int    `json:"q,omitempty"`
}

type weatherPayload struct {
	Location      string  `json:"lo"`
	Summary       string  `json:"su"`
	TempC         float64 `json:"t"`
	MinC          float64 `json:"mn"`
	MaxC          float64 `json:"mx"`
	Precipitation float64 `json:"p"`
	WindKph       float64 `json:"wk"`
	LastUpdated   string  `json:"u"`
}

// Encode returns the modern payload for s: short-key JSON in unpadded
// base64url.
func Encode(s checklist.State) (string, error) {
	p := payload{
		Trip: tripPayload{
			City:         s.Trip.City,
			Country:      s.Trip.Country,
			DurationDays: s.Trip.DurationDays,
			Activities:   s.Trip.Activities,
			GeneratedAt:  s.Trip.GeneratedAt,
		},
		Items:   make([]itemPayload, 0, len(s.Items)),
		Version: Version,
	}
	for _, it := range s.Items {
		ip := itemPayload{
			ID:       it.ID,
			Group:    it.Group,
			Label:    it.Label,
			Source:   it.Source.String(),
			Bag:      string(it.Bag),
			Quantity: it.Quantity,
		}
		if it.Checked {
			ip.Checked = 1
		}
		p.Items = append(p.Items, ip)
	}
	if w := s.Weather; w != nil {
		p.Weather = &weatherPayload{
			Location:      w.Location,
			Summary:       w.Summary,
			TempC:         w.TempC,
			MinC:          w.MinC,
			MaxC:          w.MaxC,
			Precipitation: w.Precipitation,
			WindKph:       w.WindKph,
			LastUpdated:   w.LastUpdated,
		}
	}

	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// URL appends the encoded state to base as the s query parameter,
// replacing any previous share parameters.
func URL(base string, s checklist.State) (string, error) {
	encoded, err := Encode(s)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Del(ParamLegacy)
	q.Set(ParamModern, encoded)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Decode reads a shared state from query parameters. The modern s
// parameter wins over the legacy state parameter. It returns false when
// neither is present or the payload is malformed; it never panics.
func Decode(q url.Values) (*checklist.State, bool) {
	if v := q.Get(ParamModern); v != "" {
		return DecodeModern(v)
	}
	if v := q.Get(ParamLegacy); v != "" {
		return DecodeLegacy(v)
	}
	return nil, false
}

// DecodeModern decodes an s payload.
func DecodeModern(encoded string) (*checklist.State, bool) {
	data, ok := decodeBase64(encoded, base64.RawURLEncoding, base64.URLEncoding)
	if !ok {
		return nil, false
	}

	var p *decodedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	if p == nil || p.Trip == nil || p.Items == nil {
		return nil, false
	}

	s := checklist.State{
		Trip: checklist.Trip{
			City:         p.Trip.City,
			Country:      p.Trip.Country,
			DurationDays: p.Trip.DurationDays,
			Activities:   p.Trip.Activities,
			GeneratedAt:  p.Trip.GeneratedAt,
		},
	}
	for _, ip := range *p.Items {
		s.Items = append(s.Items, checklist.Item{
			ID:       ip.ID,
			Group:    ip.Group,
			Label:    ip.Label,
			Source:   checklist.ParseSource(ip.Source),
			Checked:  ip.Checked != 0,
			Bag:      checklist.Bag(ip.Bag),
			Quantity: ip.Quantity,
		})
	}
	if w := p.Weather; w != nil {
		s.Weather = &checklist.Weather{
			Location:      w.Location,
			Summary:       w.Summary,
			TempC:         w.TempC,
			MinC:          w.MinC,
			MaxC:          w.MaxC,
			Precipitation: w.Precipitation,
			WindKph:       w.WindKph,
			LastUpdated:   w.LastUpdated,
		}
	}
	return normalize(s), true
}

// DecodeLegacy decodes a state payload: standard base64 of the persisted
// state JSON. Spaces are turned back into '+', which query decoding
// produces from an unescaped plus sign.
func DecodeLegacy(encoded string) (*checklist.State, bool) {
	encoded = strings.ReplaceAll(encoded, " ", "+")
	data, ok := decodeBase64(encoded, base64.StdEncoding, base64.RawStdEncoding)
	if !ok {
		return nil, false
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, false
	}
	// a persisted state with no items writes "items": null
	if _, ok := keys["items"]; !ok || !present(keys, "trip") {
		return nil, false
	}

	var s checklist.State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false
	}
	return normalize(s), true
}

// EncodeLegacy returns the legacy payload for s. Only tests and old
// bookmarks need this form.
func EncodeLegacy(s checklist.State) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func present(keys map[string]json.RawMessage, key string) bool {
	raw, ok := keys[key]
	return ok && string(raw) != "null"
}

func decodeBase64(s string, encodings ...*base64.Encoding) ([]byte, bool) {
	s = strings.TrimSpace(s)
	for _, enc := range encodings {
		if data, err := enc.DecodeString(s); err == nil {
			return data, true
		}
	}
	return nil, false
}

// normalize applies defaults and drops items that do not survive the item
// factory, then restores the unique-key invariant.
func normalize(s checklist.State) *checklist.State {
	s.Trip = checklist.NormalizeTrip(s.Trip)

	items := make([]checklist.Item, 0, len(s.Items))
	for _, it := range s.Items {
		normalized, ok := checklist.CreateItem(checklist.Descriptor{
			ID:       it.ID,
			Group:    it.Group,
			Label:    it.Label,
			Source:   it.Source,
			Checked:  it.Checked,
			Bag:      string(it.Bag),
			Quantity: float64(it.Quantity),
		})
		if ok {
			items = append(items, normalized)
		}
	}
	s.Items = checklist.Dedupe(items)
	return &s
}
