// Package export renders a checklist as a Markdown or printable HTML document.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/packlist/internal/checklist"
)

// Format selects the document type.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts "markdown", "md" and "html" (case-insensitive).
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md", "":
		return FormatMarkdown, true
	case "html":
		return FormatHTML, true
	default:
		return "", false
	}
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	if f == FormatHTML {
		return ".html"
	}
	return ".md"
}

// Title returns the document title for a trip.
func Title(t checklist.Trip) string {
	place := strings.Join(nonEmpty(t.City, t.Country), ", ")
	if place == "" {
		place = "Trip"
	}
	days := "days"
	if t.DurationDays == 1 {
		days = "day"
	}
	return fmt.Sprintf("Packing list: %s (%d %s)", place, t.DurationDays, days)
}

// Markdown renders s as a GFM task-list document, grouped by bag then group.
func Markdown(s checklist.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", escape(Title(s.Trip)))
	if len(s.Trip.Activities) > 0 {
		fmt.Fprintf(&b, "**Activities:** %s\n\n", escape(strings.Join(s.Trip.Activities, ", ")))
	}
	if w := s.Weather; w != nil {
		fmt.Fprintf(&b, "**Weather:** %s %s, %.0f–%.0f °C, %.1f mm, wind %.0f km/h (%s)\n\n",
			glyph(w), escape(w.Summary), w.MinC, w.MaxC, w.Precipitation, w.WindKph, escape(w.Location))
	}

	packed := 0
	for _, it := range s.Items {
		if it.Checked {
			packed++
		}
	}
	fmt.Fprintf(&b, "**Progress:** %d%% (%d/%d packed)\n", checklist.Progress(s.Items), packed, len(s.Items))

	totals := make(map[checklist.Bag]checklist.BagTotals)
	for _, bt := range checklist.BagSummary(s.Items) {
		totals[bt.Bag] = bt
	}

	for _, section := range checklist.Sections(s.Items) {
		bt := totals[section.Bag]
		fmt.Fprintf(&b, "\n## %s (%d/%d)\n", section.Name, bt.Packed, bt.Total)
		for _, g := range section.Groups {
			fmt.Fprintf(&b, "\n### %s\n\n", escape(groupTitle(g.Group)))
			for _, it := range g.Items {
				mark := " "
				if it.Checked {
					mark = "x"
				}
				line := escape(it.Label)
				if it.Quantity > 1 {
					line += fmt.Sprintf(" ×%d", it.Quantity)
				}
				fmt.Fprintf(&b, "- [%s] %s\n", mark, line)
			}
		}
	}

	if lt := s.Meta.LastTemplate; lt != nil {
		fmt.Fprintf(&b, "\n---\n\nLast template: %s (%s)\n", escape(lt.Name), lt.Mode)
	}
	return b.String()
}

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 46rem; margin: 2rem auto; padding: 0 1rem; color: #222; }
h1 { font-size: 1.5rem; }
h2 { border-bottom: 1px solid #ccc; padding-bottom: .2rem; margin-top: 2rem; }
h3 { font-size: 1rem; text-transform: uppercase; letter-spacing: .05em; color: #555; }
ul { list-style: none; padding-left: 0; columns: 2; }
li { break-inside: avoid; margin: .15rem 0; }
@media print { body { margin: 0; } a { color: inherit; text-decoration: none; } }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML renders s as a standalone printable page.
func HTML(s checklist.State) ([]byte, error) {
	body, err := MarkdownToHTML(Markdown(s))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{Title(s.Trip), body})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

// MarkdownToHTML converts Markdown to an HTML fragment. Raw HTML in the
// source is not passed through.
func MarkdownToHTML(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Render produces the document bytes for format.
func Render(s checklist.State, format Format) ([]byte, error) {
	if format == FormatHTML {
		return HTML(s)
	}
	return []byte(Markdown(s)), nil
}

// glyph picks an emoji shortcode for the forecast.
func glyph(w *checklist.Weather) string {
	switch {
	case w.Precipitation > 0:
		return ":umbrella:"
	case w.MinC < 0:
		return ":snowflake:"
	case w.MaxC > 24:
		return ":sunny:"
	default:
		return ":cloud:"
	}
}

func groupTitle(g string) string {
	r := []rune(g)
	if len(r) == 0 {
		return g
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func nonEmpty(ss ...string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// markdownEscaper escapes characters that would start inline Markdown markup.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"<", `\<`, ">", `\>`, "#", `\#`, "|", `\|`, "~", `\~`,
)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
