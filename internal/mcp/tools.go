package mcp

import "github.com/mark3labs/mcp-go/mcp"

var stringItems = mcp.Items(map[string]any{"type": "string"})

var getToolDef = mcp.NewTool("checklist_get",
	mcp.WithDescription("Return the current checklist: trip, items, weather, progress and per-bag totals."),
)

var tripToolDef = mcp.NewTool("checklist_trip",
	mcp.WithDescription("Update trip details. Omitted fields are kept. Items are rebuilt only when generate is true."),
	mcp.WithString("city", mcp.Description("Destination city")),
	mcp.WithString("country", mcp.Description("Destination country, used to disambiguate the city")),
	mcp.WithNumber("duration_days", mcp.Description("Trip length in days (at least 1)")),
	mcp.WithArray("activities", stringItems,
		mcp.Description("Activity keys such as pitching, business, conference, hiking, beach, running, photography or skiing. Replaces the current set."),
	),
	mcp.WithBoolean("generate", mcp.Description("Regenerate items after updating the trip")),
)

var generateToolDef = mcp.NewTool("checklist_generate",
	mcp.WithDescription("Rebuild rule-derived items for the current trip. Custom items, template items and packed flags are kept."),
)

var addToolDef = mcp.NewTool("checklist_add",
	mcp.WithDescription("Add a custom item. If the label already exists in the bag and merge is omitted, nothing changes and the result is needs_confirmation; call again with merge true or false."),
	mcp.WithString("label", mcp.Required(), mcp.Description("Item label")),
	mcp.WithString("group", mcp.Description("Group tag (default: other)")),
	mcp.WithString("bag", mcp.Description("Bag: carryOn, checked, personal or work (default: carryOn)")),
	mcp.WithBoolean("merge", mcp.Description("Answer to the merge question for a duplicate label")),
)

var toggleToolDef = mcp.NewTool("checklist_toggle",
	mcp.WithDescription("Mark an item packed or unpacked. Without checked the flag flips."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
	mcp.WithBoolean("checked", mcp.Description("New packed flag")),
)

var deleteToolDef = mcp.NewTool("checklist_delete",
	mcp.WithDescription("Remove an item from the checklist."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
)

var moveToolDef = mcp.NewTool("checklist_move",
	mcp.WithDescription("Move an item to another bag. A same-label item already in that bag absorbs it."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
	mcp.WithString("bag", mcp.Required(), mcp.Description("Target bag: carryOn, checked, personal or work")),
)

var weatherToolDef = mcp.NewTool("checklist_weather",
	mcp.WithDescription("Look up the forecast for the trip city and refresh weather items."),
)

var templateListToolDef = mcp.NewTool("template_list",
	mcp.WithDescription("List built-in and saved templates."),
)

var templateDiffToolDef = mcp.NewTool("template_diff",
	mcp.WithDescription("Preview a template: items it would add, and items a replace would drop."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Template id")),
)

var templateApplyToolDef = mcp.NewTool("template_apply",
	mcp.WithDescription("Apply a template to the checklist."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Template id")),
	mcp.WithString("mode", mcp.Enum("merge", "replace"),
		mcp.Description("merge adds missing items; replace also drops rule-derived items (default: merge)"),
	),
)

var templateSaveToolDef = mcp.NewTool("template_save",
	mcp.WithDescription("Save the current items as a template. Saving under an existing name updates it."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Template name")),
	mcp.WithString("description", mcp.Description("Optional description")),
)

var shareEncodeToolDef = mcp.NewTool("share_encode",
	mcp.WithDescription("Encode the checklist into a share link. Requires a trip city."),
	mcp.WithString("base_url", mcp.Description("Base URL of the link (default: share_base_url from config)")),
)

var shareOpenToolDef = mcp.NewTool("share_open",
	mcp.WithDescription("Replace the checklist with the one carried by a share link."),
	mcp.WithString("link", mcp.Required(), mcp.Description("Share link or its query string")),
)
