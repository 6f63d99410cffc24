package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/packlist/internal/checklist"
	"github.com/hpungsan/packlist/internal/errors"
	"github.com/hpungsan/packlist/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	app *ops.App
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(app *ops.App) *Handlers {
	return &Handlers{app: app}
}

// Request types for each tool

// TripRequest represents the arguments for checklist_trip.
type TripRequest struct {
	City         *string   `json:"city,omitempty"`
	Country      *string   `json:"country,omitempty"`
	DurationDays *int      `json:"duration_days,omitempty"`
	Activities   *[]string `json:"activities,omitempty"`
	Generate     bool      `json:"generate,omitempty"`
}

// AddRequest represents the arguments for checklist_add.
type AddRequest struct {
	Label string `json:"label"`
	Group string `json:"group,omitempty"`
	Bag   string `json:"bag,omitempty"`
	Merge *bool  `json:"merge,omitempty"`
}

// ToggleRequest represents the arguments for checklist_toggle.
type ToggleRequest struct {
	ID      string `json:"id"`
	Checked *bool  `json:"checked,omitempty"`
}

// ItemRequest identifies an item by id.
type ItemRequest struct {
	ID string `json:"id"`
}

// MoveRequest represents the arguments for checklist_move.
type MoveRequest struct {
	ID  string `json:"id"`
	Bag string `json:"bag"`
}

// TemplateRequest identifies a template by id.
type TemplateRequest struct {
	ID string `json:"id"`
}

// ApplyRequest represents the arguments for template_apply.
type ApplyRequest struct {
	ID   string `json:"id"`
	Mode string `json:"mode,omitempty"`
}

// SaveRequest represents the arguments for template_save.
type SaveRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ShareEncodeRequest represents the arguments for share_encode.
type ShareEncodeRequest struct {
	BaseURL string `json:"base_url,omitempty"`
}

// ShareOpenRequest represents the arguments for share_open.
type ShareOpenRequest struct {
	Link string `json:"link"`
}

// Handler implementations

// HandleGet handles the checklist_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.NewChecklistView(h.app.State()))
}

// HandleTrip handles the checklist_trip tool call.
func (h *Handlers) HandleTrip(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TripRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	s := h.app.UpdateTrip(checklist.TripPatch{
		City:         input.City,
		Country:      input.Country,
		DurationDays: input.DurationDays,
		Activities:   input.Activities,
	})
	if input.Generate {
		s = h.app.Generate()
	}
	return successResult(ops.NewChecklistView(s))
}

// HandleGenerate handles the checklist_generate tool call.
func (h *Handlers) HandleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.NewChecklistView(h.app.Generate()))
}

// HandleAdd handles the checklist_add tool call. Without a merge answer a
// conflicting add is reported back and the list stays unchanged.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	in := ops.AddInput{Label: input.Label, Group: input.Group, Bag: input.Bag}
	if input.Merge != nil {
		yes := *input.Merge
		in.Confirm = func(_, _ checklist.Item) bool { return yes }
	}

	result, err := h.app.AddCustomItem(in)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleToggle handles the checklist_toggle tool call.
func (h *Handlers) HandleToggle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ToggleRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewEmptyInput("id")), nil
	}

	item, err := h.app.ToggleItem(input.ID, input.Checked)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(item)
}

// HandleDelete handles the checklist_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ItemRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewEmptyInput("id")), nil
	}

	removed, err := h.app.DeleteItem(input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": true, "item": removed})
}

// HandleMove handles the checklist_move tool call.
func (h *Handlers) HandleMove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MoveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewEmptyInput("id")), nil
	}

	result, err := h.app.MoveItem(input.ID, input.Bag)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleWeather handles the checklist_weather tool call. A failed lookup is
// an error result; a skipped or superseded one is reported as a status.
func (h *Handlers) HandleWeather(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := h.app.RefreshWeather(ctx)
	if status.State == ops.WeatherError {
		city := h.app.State().Trip.City
		return errorResult(&errors.PackError{
			Code:    errors.ErrWeatherUnavailable,
			Status:  502,
			Message: status.Message,
			Details: map[string]any{"city": city},
		}), nil
	}
	return successResult(status)
}

// HandleTemplateList handles the template_list tool call.
func (h *Handlers) HandleTemplateList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := h.app.ListTemplates()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"templates": templates})
}

// HandleTemplateDiff handles the template_diff tool call.
func (h *Handlers) HandleTemplateDiff(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TemplateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	diff, err := h.app.DiffTemplate(input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(diff)
}

// HandleTemplateApply handles the template_apply tool call.
func (h *Handlers) HandleTemplateApply(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ApplyRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	mode := checklist.ApplyMerge
	if input.Mode != "" {
		mode = checklist.ApplyMode(input.Mode)
	}

	result, err := h.app.ApplyTemplate(input.ID, mode)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTemplateSave handles the template_save tool call.
func (h *Handlers) HandleTemplateSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.app.SaveTemplate(ops.SaveTemplateInput{
		Name:        input.Name,
		Description: input.Description,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleShareEncode handles the share_encode tool call.
func (h *Handlers) HandleShareEncode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ShareEncodeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	link, err := h.app.ShareURL(input.BaseURL)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"url": link})
}

// HandleShareOpen handles the share_open tool call.
func (h *Handlers) HandleShareOpen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ShareOpenRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	s, err := h.app.OpenShareLink(input.Link)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(ops.NewChecklistView(s))
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var packErr *errors.PackError
	if errors.As(err, &packErr) {
		errorObj := map[string]any{
			"code":    packErr.Code,
			"message": packErr.Message,
			"status":  packErr.Status,
		}
		// details of internal errors may carry paths or SQL
		if packErr.Code != errors.ErrInternal && packErr.Details != nil {
			errorObj["details"] = packErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
