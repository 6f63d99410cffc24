package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/packlist/internal/checklist"
	"github.com/hpungsan/packlist/internal/errors"
	"github.com/hpungsan/packlist/internal/export"
	"github.com/hpungsan/packlist/internal/ops"
	"github.com/hpungsan/packlist/internal/share"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	app      *ops.App
	renderer *Renderer
}

// checklistData builds the checklist page for the current state.
func (h *Handlers) checklistData(flash *Flash) ChecklistPageData {
	s := h.app.State()
	title := export.Title(s.Trip)

	selected := make(map[string]bool, len(s.Trip.Activities))
	for _, a := range s.Trip.Activities {
		selected[a] = true
	}
	known := checklist.KnownActivities()
	activities := make([]ActivityOption, 0, len(known))
	for _, key := range known {
		activities = append(activities, ActivityOption{Key: key, Checked: selected[key]})
	}

	return ChecklistPageData{
		PageData:   h.renderer.page(title, "checklist"),
		State:      s,
		Sections:   checklist.Sections(s.Items),
		Summary:    checklist.BagSummary(s.Items),
		Progress:   checklist.Progress(s.Items),
		Activities: activities,
		Bags:       checklist.Bags,
		Flash:      flash,
	}
}

// respond finishes a checklist mutation. JSON clients get payload; htmx and
// requests carrying a flash get the checklist rendered in place; plain form
// posts are redirected back to the checklist.
func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, flash *Flash, payload any) {
	switch {
	case wantsJSON(r):
		renderJSON(w, http.StatusOK, payload)
	case isHTMX(r) || flash != nil:
		h.renderer.renderPage(w, r, "checklist", h.checklistData(flash))
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (h *Handlers) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return false
	}
	return true
}

// HandleChecklist handles GET /: the checklist. A share query (s or the
// legacy state parameter) replaces the checklist before rendering.
func (h *Handlers) HandleChecklist(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get(share.ParamModern) == "" && q.Get(share.ParamLegacy) == "" {
		if wantsJSON(r) {
			renderJSON(w, http.StatusOK, h.app.State())
			return
		}
		h.renderer.renderPage(w, r, "checklist", h.checklistData(nil))
		return
	}

	s, err := h.app.OpenShared(q)
	if err != nil {
		slog.Warn("ignoring undecodable share link", "error", err)
		h.respond(w, r, &Flash{Message: "This share link could not be opened; showing your saved checklist.", Error: true}, map[string]any{
			"error": map[string]any{"code": string(errors.ErrDecodeFailure), "message": errorMessage(err)},
			"state": s,
		})
		return
	}
	h.respond(w, r, nil, s)
}

// HandleTrip handles POST /trip: edit the trip, optionally regenerating.
// A changed destination schedules a debounced weather lookup.
func (h *Handlers) HandleTrip(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	before := h.app.State().Trip

	var patch checklist.TripPatch
	if _, ok := r.PostForm["city"]; ok {
		city := r.PostFormValue("city")
		patch.City = &city
	}
	if _, ok := r.PostForm["country"]; ok {
		country := r.PostFormValue("country")
		patch.Country = &country
	}
	if v := strings.TrimSpace(r.PostFormValue("duration_days")); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("duration_days must be an integer"))
			return
		}
		patch.DurationDays = &days
	}
	if _, ok := r.PostForm["activities_present"]; ok {
		activities := r.PostForm["activities"]
		patch.Activities = &activities
	}

	s := h.app.UpdateTrip(patch)
	if r.PostFormValue("generate") != "" {
		s = h.app.Generate()
	}

	if s.Trip.City != "" && (s.Trip.City != before.City || s.Trip.Country != before.Country) {
		city := s.Trip.City
		h.app.ScheduleWeatherRefresh(context.Background(), func(status ops.WeatherStatus) {
			slog.Debug("background weather lookup finished", "city", city, "state", status.State, "message", status.Message)
		})
	}
	h.respond(w, r, nil, s)
}

// HandleGenerate handles POST /generate: rebuild the rule items.
func (h *Handlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, nil, h.app.Generate())
}

// HandleWeather handles POST /weather: look up the forecast now.
func (h *Handlers) HandleWeather(w http.ResponseWriter, r *http.Request) {
	status := h.app.RefreshWeather(r.Context())

	var flash *Flash
	switch status.State {
	case ops.WeatherReady:
		flash = &Flash{Message: fmt.Sprintf("Weather updated: %s, %s.", status.Weather.Location, status.Weather.Summary)}
	case ops.WeatherError:
		flash = &Flash{Message: status.Message, Error: true, Retry: true}
	case ops.WeatherSkipped:
		flash = &Flash{Message: status.Message}
	}
	h.respond(w, r, flash, status)
}

// HandleReset handles POST /reset: start over from the configured defaults.
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, nil, h.app.Reset())
}

// HandleAddItem handles POST /items: add a custom item. Adding a label that
// already exists in the bag asks first; the answer comes back as
// confirm=yes or confirm=no.
func (h *Handlers) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	in := ops.AddInput{
		Label: r.PostFormValue("label"),
		Group: r.PostFormValue("group"),
		Bag:   r.PostFormValue("bag"),
	}
	if answer := r.PostFormValue("confirm"); answer != "" {
		yes := answer == "yes"
		in.Confirm = func(_, _ checklist.Item) bool { return yes }
	}

	out, err := h.app.AddCustomItem(in)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	switch out.Outcome {
	case checklist.OutcomeNeedsConfirmation:
		if wantsJSON(r) {
			renderJSON(w, http.StatusOK, out)
			return
		}
		h.renderer.renderPage(w, r, "confirm", ConfirmPageData{
			PageData:  h.renderer.page("Merge duplicate item?", "checklist"),
			Existing:  out.Pending.Existing,
			Candidate: out.Pending.Candidate,
			Label:     in.Label,
			Group:     in.Group,
			Bag:       in.Bag,
		})
	case checklist.OutcomeMerged:
		h.respond(w, r, &Flash{Message: fmt.Sprintf("Merged into %s (×%d).", out.Item.Label, out.Item.Count())}, out)
	case checklist.OutcomeCancelled:
		h.respond(w, r, &Flash{Message: fmt.Sprintf("Kept the existing %s.", out.Item.Label)}, out)
	default:
		h.respond(w, r, nil, out)
	}
}

// HandleToggle handles POST /items/{id}/toggle. An optional checked field
// sets the flag; without it the flag flips.
func (h *Handlers) HandleToggle(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	var checked *bool
	if v := r.PostFormValue("checked"); v != "" {
		b := v == "true" || v == "1" || v == "on"
		checked = &b
	}
	it, err := h.app.ToggleItem(r.PathValue("id"), checked)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.respond(w, r, nil, it)
}

// HandleDeleteItem handles POST /items/{id}/delete.
func (h *Handlers) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.app.DeleteItem(r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.respond(w, r, nil, map[string]any{"deleted": true, "item": it})
}

// HandleMove handles POST /items/{id}/move: move to the bag form field.
func (h *Handlers) HandleMove(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	res, err := h.app.MoveItem(r.PathValue("id"), r.PostFormValue("bag"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	var flash *Flash
	if res.Merged {
		flash = &Flash{Message: fmt.Sprintf("Merged into %s in %s (×%d).", res.Item.Label, res.Item.Bag.DisplayName(), res.Item.Count())}
	}
	h.respond(w, r, flash, res)
}

// HandleTemplates handles GET /templates: the template library.
func (h *Handlers) HandleTemplates(w http.ResponseWriter, r *http.Request) {
	h.renderTemplates(w, r, nil)
}

func (h *Handlers) renderTemplates(w http.ResponseWriter, r *http.Request, flash *Flash) {
	list, err := h.app.ListTemplates()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"templates": list})
		return
	}
	h.renderer.renderPage(w, r, "templates", TemplatesPageData{
		PageData:  h.renderer.page("Templates", "templates"),
		Templates: list,
		ItemCount: len(h.app.State().Items),
		Flash:     flash,
	})
}

// HandleSaveTemplate handles POST /templates: save the checklist as a template.
func (h *Handlers) HandleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	out, err := h.app.SaveTemplate(ops.SaveTemplateInput{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}

	flash := &Flash{Message: fmt.Sprintf("Saved %q with %d items.", out.Name, out.Count)}
	switch {
	case out.Empty:
		flash = &Flash{Message: "Nothing to save: the checklist is empty.", Error: true}
	case out.Truncated:
		flash.Message = fmt.Sprintf("Saved %q with the first %d items.", out.Name, out.Count)
	}
	h.renderTemplates(w, r, flash)
}

// HandleTemplateDetail handles GET /templates/{id}: preview what applying
// the template would add and replace.
func (h *Handlers) HandleTemplateDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tmpl, err := h.app.GetTemplate(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	diff, err := h.app.DiffTemplate(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"template": tmpl, "diff": diff})
		return
	}
	h.renderer.renderPage(w, r, "template", TemplatePageData{
		PageData: h.renderer.page(tmpl.Name, "templates"),
		Template: tmpl,
		Diff:     diff,
	})
}

// HandleApplyTemplate handles POST /templates/{id}/apply with mode merge or replace.
func (h *Handlers) HandleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	res, err := h.app.ApplyTemplate(r.PathValue("id"), checklist.ApplyMode(r.PostFormValue("mode")))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	msg := fmt.Sprintf("Template applied: %d added, %d already present.", res.Added, res.Skipped)
	if res.Mode == checklist.ApplyReplace {
		msg = fmt.Sprintf("Template applied: %d added, %d replaced.", res.Added, res.Replaced)
	}
	if res.Truncated {
		msg += fmt.Sprintf(" Only the first %d template items were used.", checklist.MaxTemplateItems)
	}
	h.respond(w, r, &Flash{Message: msg}, res)
}

// HandleDeleteTemplate handles POST /templates/{id}/delete.
func (h *Handlers) HandleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.app.DeleteTemplate(id); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	switch {
	case wantsJSON(r):
		renderJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
	case isHTMX(r):
		w.Header().Set("HX-Redirect", "/templates")
		w.WriteHeader(http.StatusOK)
	default:
		http.Redirect(w, r, "/templates", http.StatusSeeOther)
	}
}

// HandleShare handles GET /share: the share link for the checklist.
func (h *Handlers) HandleShare(w http.ResponseWriter, r *http.Request) {
	base := ""
	if h.app.Config().ShareBaseURL == "" {
		base = "http://" + r.Host + "/"
	}
	link, err := h.app.ShareURL(base)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]string{"url": link})
		return
	}
	h.renderer.renderPage(w, r, "share", SharePageData{
		PageData: h.renderer.page("Share", "share"),
		URL:      link,
	})
}

// HandleExport handles GET /export: the printable HTML page, or a Markdown
// download with format=markdown.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	format, ok := export.ParseFormat(r.URL.Query().Get("format"))
	if !ok || r.URL.Query().Get("format") == "" {
		format = export.FormatHTML
	}

	doc, err := export.Render(h.app.State(), format)
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}
	if format == export.FormatMarkdown {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="packing-list.md"`)
	} else {
		// the printable page carries its own inline stylesheet
		w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// errorMessage returns the user-facing message of err.
func errorMessage(err error) string {
	var pErr *errors.PackError
	if errors.As(err, &pErr) {
		return pErr.Message
	}
	return err.Error()
}
