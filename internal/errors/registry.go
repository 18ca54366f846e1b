package errors

import (
	"slices"
	"sync"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

var registryMu sync.RWMutex

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (B001-B019)
	// ============================================

	"B001": {
		Category: CategoryRuntime,
		Message:  "Crumb data fetch failed",
		Detail:   "A handle's data source rejected. The crumb keeps its previous state until a later pass fetches it again.",
	},
	"B002": {
		Category: CategoryRuntime,
		Message:  "Pass superseded",
		Detail:   "A newer pass started before this one settled; its results were not committed.",
	},
	"B003": {
		Category: CategoryRuntime,
		Message:  "Tracker closed",
		Detail:   "The tracker was closed and no longer accepts passes.",
	},

	// ============================================
	// Routing Errors (B020-B039)
	// ============================================

	"B020": {
		Category: CategoryRouting,
		Message:  "Invalid route pattern",
		Detail:   "Route patterns must start with '/' and may contain static, :param and *catchall segments.",
	},
	"B021": {
		Category: CategoryRouting,
		Message:  "Duplicate route",
		Detail:   "The same pattern was registered more than once.",
	},
	"B022": {
		Category: CategoryRouting,
		Message:  "No route matched",
		Detail:   "No registered route matches the requested path.",
	},
	"B023": {
		Category: CategoryRouting,
		Message:  "Conflicting parameter name",
		Detail:   "Two patterns use different parameter names for the same segment.",
	},
	"B024": {
		Category: CategoryRouting,
		Message:  "Invalid request path",
		Detail:   "The path contains a backslash, a NUL byte, a bad percent escape, or a '..' that escapes the root.",
	},

	// ============================================
	// Config Errors (B040-B059)
	// ============================================

	"B040": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file has invalid syntax or values.",
	},
	"B041": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No crumbs.json or crumbs.toml was found.",
	},
	"B042": {
		Category: CategoryConfig,
		Message:  "Unsupported config format",
		Detail:   "Configuration files must end in .json or .toml.",
	},

	// ============================================
	// Transport Errors (B060-B079)
	// ============================================

	"B060": {
		Category: CategoryTransport,
		Message:  "WebSocket upgrade failed",
		Detail:   "The HTTP connection could not be upgraded to a live session.",
	},
	"B061": {
		Category: CategoryTransport,
		Message:  "Invalid message",
		Detail:   "A live session frame could not be decoded.",
	},
	"B062": {
		Category: CategoryTransport,
		Message:  "Settle timeout",
		Detail:   "The trail did not settle before the configured timeout.",
	},

	// ============================================
	// CLI Errors (B080-B099)
	// ============================================

	"B080": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
		Detail:   "The command received invalid arguments.",
	},
	"B081": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},
	"B082": {
		Category: CategoryCLI,
		Message:  "Invalid log level",
		Detail:   "Log level must be one of debug, info, warn, error.",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[code] = template
}
