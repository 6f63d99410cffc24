package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/packlist/internal/checklist"
	"github.com/hpungsan/packlist/internal/config"
	"github.com/hpungsan/packlist/internal/db"
	"github.com/hpungsan/packlist/internal/errors"
	"github.com/hpungsan/packlist/internal/ops"
)

type stubWeather struct {
	err error
}

func (s stubWeather) Fetch(_ context.Context, city, _ string) (*checklist.Weather, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &checklist.Weather{Location: city, Summary: "Light rain", MinC: 8, MaxC: 14, Precipitation: 6}, nil
}

// testSetup creates a temporary database and controller for testing.
func testSetup(t *testing.T, mutate ...func(*config.Config)) *ops.App {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	for _, m := range mutate {
		m(cfg)
	}

	app, err := ops.New(database, cfg, ops.WithWeather(stubWeather{}))
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func call(t *testing.T, handler ToolHandlerFunc, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := handler(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return result
}

// decodeResult unmarshals a success result's text content into out.
func decodeResult(t *testing.T, result *mcp.CallToolResult, out any) {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			if err := json.Unmarshal([]byte(text.Text), out); err != nil {
				t.Fatalf("failed to unmarshal result: %v", err)
			}
			return
		}
	}
	t.Fatal("no text content in result")
}

func findItem(items []checklist.Item, label string) (checklist.Item, bool) {
	for _, it := range items {
		if it.Label == label {
			return it, true
		}
	}
	return checklist.Item{}, false
}

func TestHandleGet(t *testing.T) {
	h := NewHandlers(testSetup(t))

	var view ops.ChecklistView
	decodeResult(t, call(t, h.HandleGet, nil), &view)

	if len(view.Items) == 0 {
		t.Fatal("expected a bootstrapped checklist")
	}
	if view.Progress != 0 {
		t.Errorf("progress = %d, want 0", view.Progress)
	}
	if len(view.Bags) != len(checklist.Bags) {
		t.Errorf("bags = %d, want %d", len(view.Bags), len(checklist.Bags))
	}
}

func TestHandleTrip(t *testing.T) {
	h := NewHandlers(testSetup(t))

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
		check     func(t *testing.T, v ops.ChecklistView)
	}{
		{
			name: "update and generate",
			args: map[string]any{
				"city":          "Lisbon",
				"duration_days": 5,
				"activities":    []any{"pitching"},
				"generate":      true,
			},
			check: func(t *testing.T, v ops.ChecklistView) {
				if v.Trip.City != "Lisbon" || v.Trip.DurationDays != 5 {
					t.Errorf("trip = %+v", v.Trip)
				}
				if _, ok := findItem(v.Items, "Formal Outfit"); !ok {
					t.Error("expected pitching items after generate")
				}
			},
		},
		{
			name: "update without generate keeps items",
			args: map[string]any{"activities": []any{"beach"}},
			check: func(t *testing.T, v ops.ChecklistView) {
				if _, ok := findItem(v.Items, "Formal Outfit"); !ok {
					t.Error("items must not change until generate")
				}
				if _, ok := findItem(v.Items, "Swimsuit"); ok {
					t.Error("beach items must wait for generate")
				}
			},
		},
		{
			name:      "invalid duration",
			args:      map[string]any{"duration_days": "a week"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := call(t, h.HandleTrip, tt.args)
			if tt.wantError {
				if !result.IsError {
					t.Fatal("expected error result, got success")
				}
				assertErrorCode(t, result, tt.errorCode)
				return
			}
			var view ops.ChecklistView
			decodeResult(t, result, &view)
			tt.check(t, view)
		})
	}
}

func TestHandleAdd_ConfirmationRoundTrip(t *testing.T) {
	app := testSetup(t)
	h := NewHandlers(app)

	var out ops.AddOutput
	decodeResult(t, call(t, h.HandleAdd, map[string]any{"label": "HDMI Cable", "group": "tech"}), &out)
	if out.Outcome != checklist.OutcomeAdded {
		t.Fatalf("outcome = %q, want added", out.Outcome)
	}
	before := len(app.State().Items)

	decodeResult(t, call(t, h.HandleAdd, map[string]any{"label": "hdmi cable", "group": "tech"}), &out)
	if out.Outcome != checklist.OutcomeNeedsConfirmation {
		t.Fatalf("outcome = %q, want needs_confirmation", out.Outcome)
	}
	if out.Pending == nil || out.Pending.Existing.Label != "HDMI Cable" {
		t.Errorf("pending = %+v", out.Pending)
	}
	if got := len(app.State().Items); got != before {
		t.Errorf("items = %d, want %d (unchanged)", got, before)
	}

	decodeResult(t, call(t, h.HandleAdd, map[string]any{"label": "hdmi cable", "group": "tech", "merge": false}), &out)
	if out.Outcome != checklist.OutcomeCancelled {
		t.Errorf("outcome = %q, want cancelled", out.Outcome)
	}

	decodeResult(t, call(t, h.HandleAdd, map[string]any{"label": "hdmi cable", "group": "tech", "merge": true}), &out)
	if out.Outcome != checklist.OutcomeMerged {
		t.Fatalf("outcome = %q, want merged", out.Outcome)
	}
	if out.Item.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", out.Item.Quantity)
	}
}

func TestHandleAdd_BlankLabel(t *testing.T) {
	h := NewHandlers(testSetup(t))
	result := call(t, h.HandleAdd, map[string]any{"label": "   "})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	assertErrorCode(t, result, "EMPTY_INPUT")
}

func TestHandleToggleMoveDelete(t *testing.T) {
	app := testSetup(t)
	h := NewHandlers(app)

	var added ops.AddOutput
	decodeResult(t, call(t, h.HandleAdd, map[string]any{"label": "Kite", "bag": "checked"}), &added)
	id := added.Item.ID

	var item checklist.Item
	decodeResult(t, call(t, h.HandleToggle, map[string]any{"id": id}), &item)
	if !item.Checked {
		t.Error("toggle without checked should flip to packed")
	}
	decodeResult(t, call(t, h.HandleToggle, map[string]any{"id": id, "checked": true}), &item)
	if !item.Checked {
		t.Error("explicit checked=true should keep it packed")
	}

	var moved checklist.MoveResult
	decodeResult(t, call(t, h.HandleMove, map[string]any{"id": id, "bag": "personal"}), &moved)
	if !moved.Moved || moved.Item.Bag != checklist.BagPersonal {
		t.Errorf("move = %+v", moved)
	}

	var deleted struct {
		Deleted bool           `json:"deleted"`
		Item    checklist.Item `json:"item"`
	}
	decodeResult(t, call(t, h.HandleDelete, map[string]any{"id": moved.Item.ID}), &deleted)
	if !deleted.Deleted || deleted.Item.Label != "Kite" {
		t.Errorf("delete = %+v", deleted)
	}
	if _, ok := app.State().Find(moved.Item.ID); ok {
		t.Error("item should be gone")
	}

	tests := []struct {
		name    string
		handler ToolHandlerFunc
		args    map[string]any
		code    string
	}{
		{"toggle unknown", h.HandleToggle, map[string]any{"id": "nope"}, "NOT_FOUND"},
		{"toggle missing id", h.HandleToggle, map[string]any{}, "EMPTY_INPUT"},
		{"delete unknown", h.HandleDelete, map[string]any{"id": "nope"}, "NOT_FOUND"},
		{"move unknown", h.HandleMove, map[string]any{"id": "nope", "bag": "work"}, "NOT_FOUND"},
		{"toggle bad checked", h.HandleToggle, map[string]any{"id": id, "checked": "yes"}, "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := call(t, tt.handler, tt.args)
			if !result.IsError {
				t.Fatal("expected error result")
			}
			assertErrorCode(t, result, tt.code)
		})
	}
}

func TestHandleWeather(t *testing.T) {
	app := testSetup(t)
	h := NewHandlers(app)

	var status ops.WeatherStatus
	decodeResult(t, call(t, h.HandleWeather, nil), &status)
	if status.State != ops.WeatherSkipped {
		t.Errorf("state = %q, want skipped without a city", status.State)
	}

	call(t, h.HandleTrip, map[string]any{"city": "Bergen"})
	decodeResult(t, call(t, h.HandleWeather, nil), &status)
	if status.State != ops.WeatherReady {
		t.Fatalf("state = %q, want ready", status.State)
	}
	if status.Weather == nil || status.Weather.Location != "Bergen" {
		t.Errorf("weather = %+v", status.Weather)
	}
	if _, ok := findItem(app.State().Items, "Umbrella"); !ok {
		t.Error("expected rain items after the lookup")
	}
}

func TestHandleWeather_Unavailable(t *testing.T) {
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	defer database.Close()

	cfg := config.DefaultConfig()
	cfg.DefaultCity = "Atlantis"
	app, err := ops.New(database, cfg, ops.WithWeather(stubWeather{err: errors.NewWeatherUnavailable("Atlantis", fmt.Errorf("no match"))}))
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	defer app.Close()

	result := call(t, NewHandlers(app).HandleWeather, nil)
	if !result.IsError {
		t.Fatal("expected error result")
	}
	assertErrorCode(t, result, "WEATHER_UNAVAILABLE")
}

func TestHandleTemplates(t *testing.T) {
	app := testSetup(t)
	h := NewHandlers(app)

	var list struct {
		Templates []ops.TemplateSummary `json:"templates"`
	}
	decodeResult(t, call(t, h.HandleTemplateList, nil), &list)
	found := false
	for _, tmpl := range list.Templates {
		if tmpl.ID == "builtin-beach" {
			found = tmpl.BuiltIn
		}
	}
	if !found {
		t.Fatal("expected built-in beach template in list")
	}

	var diff checklist.TemplateDiff
	decodeResult(t, call(t, h.HandleTemplateDiff, map[string]any{"id": "builtin-beach"}), &diff)
	if _, ok := findItem(diff.WillAdd, "Swimsuit"); !ok {
		t.Error("diff should add Swimsuit")
	}

	var applied checklist.ApplyResult
	decodeResult(t, call(t, h.HandleTemplateApply, map[string]any{"id": "builtin-beach"}), &applied)
	if applied.Mode != checklist.ApplyMerge || applied.Added == 0 {
		t.Errorf("apply = %+v", applied)
	}
	if _, ok := findItem(app.State().Items, "Swimsuit"); !ok {
		t.Error("Swimsuit should be on the list")
	}

	var saved ops.SaveTemplateOutput
	decodeResult(t, call(t, h.HandleTemplateSave, map[string]any{"name": "Beach plus", "description": "mine"}), &saved)
	if saved.ID == "" || saved.Empty || saved.Count == 0 {
		t.Errorf("save = %+v", saved)
	}

	tests := []struct {
		name    string
		handler ToolHandlerFunc
		args    map[string]any
		code    string
	}{
		{"diff unknown", h.HandleTemplateDiff, map[string]any{"id": "nope"}, "NOT_FOUND"},
		{"apply unknown", h.HandleTemplateApply, map[string]any{"id": "nope"}, "NOT_FOUND"},
		{"apply bad mode", h.HandleTemplateApply, map[string]any{"id": "builtin-beach", "mode": "append"}, "INVALID_REQUEST"},
		{"save blank name", h.HandleTemplateSave, map[string]any{"name": " "}, "EMPTY_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := call(t, tt.handler, tt.args)
			if !result.IsError {
				t.Fatal("expected error result")
			}
			assertErrorCode(t, result, tt.code)
		})
	}
}

func TestHandleShare_RoundTrip(t *testing.T) {
	app := testSetup(t)
	h := NewHandlers(app)

	result := call(t, h.HandleShareEncode, nil)
	if !result.IsError {
		t.Fatal("expected error without a city")
	}
	assertErrorCode(t, result, "EMPTY_INPUT")

	call(t, h.HandleTrip, map[string]any{"city": "Oslo", "duration_days": 4, "generate": true})
	call(t, h.HandleAdd, map[string]any{"label": "Wool hat", "group": "clothing"})

	var link struct {
		URL string `json:"url"`
	}
	decodeResult(t, call(t, h.HandleShareEncode, map[string]any{"base_url": "https://packlist.example/"}), &link)
	if !strings.HasPrefix(link.URL, "https://packlist.example/?s=") {
		t.Fatalf("url = %q", link.URL)
	}

	app.Reset()
	if _, ok := findItem(app.State().Items, "Wool hat"); ok {
		t.Fatal("reset should drop custom items")
	}

	var view ops.ChecklistView
	decodeResult(t, call(t, h.HandleShareOpen, map[string]any{"link": link.URL}), &view)
	if view.Trip.City != "Oslo" {
		t.Errorf("city = %q, want Oslo", view.Trip.City)
	}
	if _, ok := findItem(view.Items, "Wool hat"); !ok {
		t.Error("shared list should carry the custom item")
	}
}

func TestHandleShareOpen_Errors(t *testing.T) {
	app := testSetup(t)
	h := NewHandlers(app)
	before := app.State()

	result := call(t, h.HandleShareOpen, map[string]any{"link": "https://packlist.example/?s=%21%21%21"})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	assertErrorCode(t, result, "DECODE_FAILURE")

	result = call(t, h.HandleShareOpen, map[string]any{"link": ""})
	assertErrorCode(t, result, "EMPTY_INPUT")

	if len(app.State().Items) != len(before.Items) {
		t.Error("failed opens must leave the checklist untouched")
	}
}

func TestServerRegistration(t *testing.T) {
	s := NewServer(testSetup(t), "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"checklist_get",
		"checklist_trip",
		"checklist_generate",
		"checklist_add",
		"checklist_toggle",
		"checklist_delete",
		"checklist_move",
		"checklist_weather",
		"template_list",
		"template_diff",
		"template_apply",
		"template_save",
		"share_encode",
		"share_open",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	app := testSetup(t, func(c *config.Config) {
		c.DisabledTools = []string{"checklist_delete", "template_save", "template_save"}
	})
	tools := NewServer(app, "test").ListTools()

	if len(tools) != 12 {
		t.Errorf("registered tool count = %d, want 12", len(tools))
	}
	for _, name := range []string{"checklist_delete", "template_save"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
	if _, ok := tools["checklist_get"]; !ok {
		t.Error("checklist_get should be registered")
	}
}

func TestServerRegistration_WithDisabledTypes(t *testing.T) {
	app := testSetup(t, func(c *config.Config) {
		c.DisabledTypes = []string{"share"}
		c.DisabledTools = []string{"template_list"}
	})
	tools := NewServer(app, "test").ListTools()

	if len(tools) != 11 {
		t.Errorf("registered tool count = %d, want 11", len(tools))
	}
	for _, name := range []string{"share_encode", "share_open", "template_list"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	app := testSetup(t, func(c *config.Config) {
		c.DisabledTools = AllToolNames()
	})
	if tools := NewServer(app, "test").ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabled(t *testing.T) {
	tests := []struct {
		name    string
		fn      func([]string) []string
		input   []string
		wantLen int
	}{
		{"tools all valid", ValidateDisabledTools, []string{"share_open", "checklist_move"}, 0},
		{"tools one unknown", ValidateDisabledTools, []string{"share_open", "item_rename"}, 1},
		{"tools empty", ValidateDisabledTools, []string{}, 0},
		{"types valid", ValidateDisabledTypes, []string{"checklist", "template", "share"}, 0},
		{"types unknown", ValidateDisabledTypes, []string{"weather", "bag"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.input); len(got) != tt.wantLen {
				t.Errorf("returned %d unknown (%v), want %d", len(got), got, tt.wantLen)
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 14 {
		t.Errorf("AllToolNames() returned %d names, want 14", len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("AllToolNames() not sorted: %v", names)
	}
	for _, name := range names {
		typ := GetTypeForTool(name)
		if len(ValidateDisabledTypes([]string{typ})) != 0 {
			t.Errorf("tool %q has unknown type %q", name, typ)
		}
	}

	got := ExpandTypesToTools([]string{"template"})
	sort.Strings(got)
	want := []string{"template_apply", "template_diff", "template_list", "template_save"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ExpandTypesToTools(template) = %v, want %v", got, want)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj := payload["error"].(map[string]any)

	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedErrorKeepsCode(t *testing.T) {
	r := errorResult(fmt.Errorf("apply: %w", errors.NewImmutableTemplate("builtin-ski")))
	assertErrorCode(t, r, string(errors.ErrImmutableTemplate))
}

func TestErrorResult_PlainErrorIsInternal(t *testing.T) {
	r := errorResult(fmt.Errorf("boom"))
	assertErrorCode(t, r, "INTERNAL")
	if strings.Contains(extractErrorMessage(r), "boom") {
		t.Error("plain error text must not leak")
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	r := errorResult(errors.NewNotFound("template", "abc"))

	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj := payload["error"].(map[string]any)

	if errObj["code"] != string(errors.ErrNotFound) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}

	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}

	if code, _ := errorObj["code"].(string); code != expectedCode {
		t.Errorf("error code = %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
