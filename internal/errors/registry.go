package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Invalid rebind.json",
		Detail:   "The rebind.json configuration file is malformed.",
		DocURL:   "https://rebind.dev/docs/errors/E100",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No rebind.json was found. Commands fall back to built-in defaults unless a config file is required.",
		DocURL:   "https://rebind.dev/docs/errors/E101",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid port number",
		Detail:   "The configured port number is outside the valid range or already in use.",
		DocURL:   "https://rebind.dev/docs/errors/E102",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid duration",
		Detail:   "A duration value could not be parsed. Use Go syntax such as \"150ms\" or \"2s\".",
		DocURL:   "https://rebind.dev/docs/errors/E103",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Unknown trigger policy",
		Detail:   "The mount trigger must be one of: if-input-changed, always, never, first-mount-only.",
		DocURL:   "https://rebind.dev/docs/errors/E104",
	},

	// ============================================
	// Scenario Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryScenario,
		Message:  "Scenario file not found",
		Detail:   "The scenario file does not exist at the given path.",
		DocURL:   "https://rebind.dev/docs/errors/E120",
	},
	"E121": {
		Category: CategoryScenario,
		Message:  "Invalid scenario",
		Detail:   "The scenario file could not be parsed or failed validation.",
		DocURL:   "https://rebind.dev/docs/errors/E121",
	},

	// ============================================
	// Feed Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryFeed,
		Message:  "Feed connection failed",
		Detail:   "Unable to establish a websocket connection to the feed hub.",
		DocURL:   "https://rebind.dev/docs/errors/E140",
	},
	"E141": {
		Category: CategoryFeed,
		Message:  "Feed snapshot timeout",
		Detail:   "The hub did not deliver its hello snapshot before the deadline.",
		DocURL:   "https://rebind.dev/docs/errors/E141",
	},
	"E142": {
		Category: CategoryFeed,
		Message:  "Publish failed",
		Detail:   "A channel value could not be published to the hub.",
		DocURL:   "https://rebind.dev/docs/errors/E142",
	},

	// ============================================
	// CLI Errors (E160-E179)
	// ============================================

	"E160": {
		Category: CategoryCLI,
		Message:  "No channels to tail",
		Detail:   "The tail command needs at least one channel, from arguments or from rebind.json.",
		DocURL:   "https://rebind.dev/docs/errors/E160",
	},
	"E161": {
		Category: CategoryCLI,
		Message:  "Journal unavailable",
		Detail:   "The journal file could not be opened for writing.",
		DocURL:   "https://rebind.dev/docs/errors/E161",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
