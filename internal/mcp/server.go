package mcp

import (
	"context"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/packlist/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"checklist", "template", "share"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"checklist_get": {
		def:     getToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet },
	},
	"checklist_trip": {
		def:     tripToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTrip },
	},
	"checklist_generate": {
		def:     generateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGenerate },
	},
	"checklist_add": {
		def:     addToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAdd },
	},
	"checklist_toggle": {
		def:     toggleToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleToggle },
	},
	"checklist_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"checklist_move": {
		def:     moveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMove },
	},
	"checklist_weather": {
		def:     weatherToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWeather },
	},
	"template_list": {
		def:     templateListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTemplateList },
	},
	"template_diff": {
		def:     templateDiffToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTemplateDiff },
	},
	"template_apply": {
		def:     templateApplyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTemplateApply },
	},
	"template_save": {
		def:     templateSaveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTemplateSave },
	},
	"share_encode": {
		def:     shareEncodeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleShareEncode },
	},
	"share_open": {
		def:     shareOpenToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleShareOpen },
	},
}

// AllToolNames returns all valid tool names, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "template_apply" → "template").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with the packlist tools registered.
// Tools listed in the config's DisabledTools or belonging to DisabledTypes
// are excluded from registration.
func NewServer(app *ops.App, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"packlist",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(app)
	cfg := app.Config()

	// types first, then individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(app *ops.App, version string) error {
	return server.ServeStdio(NewServer(app, version))
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
