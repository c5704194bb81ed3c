package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rebind-dev/rebind/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "rebind.json"

	// DefaultPort is the default feed hub port.
	DefaultPort = 8080

	// DefaultHost is the default feed hub host.
	DefaultHost = "localhost"

	// DefaultWindow is the default coalescing window for tailed effects.
	DefaultWindow = "150ms"

	// DefaultTrigger is the default mount trigger policy for tailed
	// effects.
	DefaultTrigger = "if-input-changed"
)

// ValidTriggers lists the accepted mount trigger policy names.
var ValidTriggers = []string{"if-input-changed", "always", "never", "first-mount-only"}

// Config represents the complete rebind.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Serve contains feed hub configuration.
	Serve ServeConfig `json:"serve,omitempty"`

	// Tail contains tail command configuration.
	Tail TailConfig `json:"tail,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServeConfig contains feed hub settings.
type ServeConfig struct {
	// Port is the port to run the hub on.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Scenario is the path to a scenario file replayed into the hub.
	Scenario string `json:"scenario,omitempty"`

	// Journal is the path to a JSONL journal of hub activity.
	Journal string `json:"journal,omitempty"`

	// Metrics exposes Prometheus metrics on /metrics.
	Metrics bool `json:"metrics,omitempty"`
}

// TailConfig contains tail command settings.
type TailConfig struct {
	// URL is the websocket URL of the hub to tail.
	URL string `json:"url,omitempty"`

	// Channels are the channels to watch.
	Channels []string `json:"channels,omitempty"`

	// Window is the coalescing window for the tailing effect
	// (e.g., "150ms").
	Window string `json:"window,omitempty"`

	// Trigger is the mount trigger policy for the tailing effect.
	Trigger string `json:"trigger,omitempty"`

	// Journal is the path to a JSONL journal of effect firings.
	Journal string `json:"journal,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Serve: ServeConfig{
			Port: DefaultPort,
			Host: DefaultHost,
		},
		Tail: TailConfig{
			Window:  DefaultWindow,
			Trigger: DefaultTrigger,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for rebind.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E101").
				WithDetail("No rebind.json found in " + filepath.Dir(path)).
				WithSuggestion("Create rebind.json or pass an explicit --config path")
		}
		return nil, errors.New("E100").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E100").
			WithDetail("Failed to parse rebind.json: " + err.Error()).
			WithSuggestion("Check that rebind.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E100").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E100").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Serve.Port == 0 {
		c.Serve.Port = DefaultPort
	}
	if c.Serve.Host == "" {
		c.Serve.Host = DefaultHost
	}
	if c.Tail.Window == "" {
		c.Tail.Window = DefaultWindow
	}
	if c.Tail.Trigger == "" {
		c.Tail.Trigger = DefaultTrigger
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return errors.New("E102").
			WithDetail("Port must be between 0 and 65535")
	}

	if c.Tail.Window != "" {
		if _, err := time.ParseDuration(c.Tail.Window); err != nil {
			return errors.New("E103").
				WithDetail("Invalid tail window " + strconv.Quote(c.Tail.Window)).
				WithExample(`"tail": {"window": "150ms"}`)
		}
	}

	if c.Tail.Trigger != "" && !validTrigger(c.Tail.Trigger) {
		return errors.New("E104").
			WithDetail("Unknown trigger " + strconv.Quote(c.Tail.Trigger)).
			WithExample(`"tail": {"trigger": "always"}`)
	}

	return nil
}

func validTrigger(name string) bool {
	for _, t := range ValidTriggers {
		if t == name {
			return true
		}
	}
	return false
}

// Address returns the host:port address for the feed hub.
func (c *Config) Address() string {
	return c.Serve.Host + ":" + strconv.Itoa(c.Serve.Port)
}

// FeedURL returns the websocket URL of the locally served hub.
func (c *Config) FeedURL() string {
	return "ws://" + c.Address() + "/ws"
}

// TailURL returns the websocket URL to tail, falling back to the
// locally served hub.
func (c *Config) TailURL() string {
	if c.Tail.URL != "" {
		return c.Tail.URL
	}
	return c.FeedURL()
}

// TailWindow returns the parsed coalescing window for tailed effects.
// Invalid values (caught earlier by Validate) fall back to the default.
func (c *Config) TailWindow() time.Duration {
	d, err := time.ParseDuration(c.Tail.Window)
	if err != nil {
		d, _ = time.ParseDuration(DefaultWindow)
	}
	return d
}

// ScenarioPath returns the absolute path to the scenario file, or ""
// when none is configured.
func (c *Config) ScenarioPath() string {
	return c.resolve(c.Serve.Scenario)
}

// ServeJournalPath returns the absolute path to the hub journal, or ""
// when none is configured.
func (c *Config) ServeJournalPath() string {
	return c.resolve(c.Serve.Journal)
}

// TailJournalPath returns the absolute path to the tail journal, or ""
// when none is configured.
func (c *Config) TailJournalPath() string {
	return c.resolve(c.Tail.Journal)
}

// resolve makes path absolute relative to the config directory.
func (c *Config) resolve(path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing rebind.json, or an error if not
// found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E101").
				WithDetail("No rebind.json found in " + startDir + " or any parent directory").
				WithSuggestion("Create rebind.json at the project root")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working
// directory, walking up to the project root.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
