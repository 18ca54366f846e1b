package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"

	"github.com/vango-dev/breadcrumbs/internal/errors"
)

const (
	// JSONFileName is the name of the JSON configuration file.
	JSONFileName = "crumbs.json"

	// TOMLFileName is the name of the TOML configuration file.
	TOMLFileName = "crumbs.toml"

	// DefaultPort is the default server port.
	DefaultPort = 4000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultSettleTimeout bounds how long GET /crumbs waits for fetches.
	DefaultSettleTimeout = 5 * time.Second

	// DefaultWebSocketPath is where live sessions are served.
	DefaultWebSocketPath = "/ws"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"
)

// fileNames lists the config files Load looks for, in order.
var fileNames = []string{JSONFileName, TOMLFileName}

// Config represents the complete crumbs configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" toml:"name,omitempty"`

	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server" toml:"server"`

	// Log contains logging configuration.
	Log LogConfig `json:"log" toml:"log"`

	// StrictLoading makes the loading flag follow only the latest pass.
	StrictLoading bool `json:"strictLoading,omitempty" toml:"strictLoading,omitempty"`

	// Routes is the route table.
	Routes []RouteConfig `json:"routes" toml:"routes"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" toml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" toml:"port,omitempty"`

	// SettleTimeout bounds how long a one-shot resolve waits for fetches.
	SettleTimeout Duration `json:"settleTimeout,omitempty" toml:"settleTimeout,omitempty"`

	// WebSocket is the path live sessions are served on.
	WebSocket string `json:"websocket,omitempty" toml:"websocket,omitempty"`

	// Metrics enables the Prometheus endpoint.
	Metrics bool `json:"metrics,omitempty" toml:"metrics,omitempty"`

	// MetricsPath is the path metrics are served on.
	MetricsPath string `json:"metricsPath,omitempty" toml:"metricsPath,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" toml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" toml:"format,omitempty"`
}

// Duration is a time.Duration written as a Go duration string ("250ms").
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory. It looks for
// crumbs.json, then crumbs.toml.
func Load(dir string) (*Config, error) {
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("B041").
		WithDetail("No crumbs.json or crumbs.toml found in " + dir).
		WithSuggestion("Create crumbs.json with a \"routes\" list")
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension.
func LoadFile(path string) (*Config, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("B041").
				WithDetail("No config file at " + path)
		}
		return nil, errors.New("B040").Wrap(err)
	}

	cfg := &Config{}
	switch format {
	case "json":
		err = json.Unmarshal(data, cfg)
	case "toml":
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("B040").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid " + strings.ToUpper(format))
	}

	for i := range cfg.Routes {
		cfg.Routes[i].Data = normalize(cfg.Routes[i].Data)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".toml":
		return "toml", nil
	}
	return "", errors.New("B042").WithDetail("Cannot load " + filepath.Base(path))
}

// normalize turns decoded arrays of tables into plain []any so that TOML and
// JSON data look the same.
func normalize(v any) any {
	switch x := v.(type) {
	case []map[string]any:
		out := make([]any, len(x))
		for i, m := range x {
			out[i] = normalize(m)
		}
		return out
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalize(x[k])
		}
		return x
	}
	return v
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path in the format
// given by its extension.
func (c *Config) SaveTo(path string) error {
	format, err := formatOf(path)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case "json":
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	case "toml":
		var b strings.Builder
		err = toml.NewEncoder(&b).Encode(c)
		data = []byte(b.String())
	}
	if err != nil {
		return errors.New("B040").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("B040").Wrap(err)
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
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.SettleTimeout == 0 {
		c.Server.SettleTimeout = Duration(DefaultSettleTimeout)
	}
	if c.Server.WebSocket == "" {
		c.Server.WebSocket = DefaultWebSocketPath
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = DefaultMetricsPath
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("server.port %d must be between 0 and 65535", c.Server.Port))
	}
	if c.Server.SettleTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("server.settleTimeout must not be negative"))
	}
	for name, path := range map[string]string{
		"server.websocket":   c.Server.WebSocket,
		"server.metricsPath": c.Server.MetricsPath,
	} {
		if !strings.HasPrefix(path, "/") {
			result = multierror.Append(result, fmt.Errorf("%s %q must start with '/'", name, path))
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}

	seen := make(map[string]int, len(c.Routes))
	for i, r := range c.Routes {
		if err := r.validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("routes[%d]: %w", i, err))
		}
		if j, ok := seen[r.Path]; ok {
			result = multierror.Append(result, fmt.Errorf("routes[%d]: path %q already used by routes[%d]", i, r.Path, j))
		}
		seen[r.Path] = i
	}

	if err := result.ErrorOrNil(); err != nil {
		return errors.New("B040").Wrap(err).
			WithSuggestion("Fix the listed fields in " + c.fileName())
	}
	return nil
}

func (c *Config) fileName() string {
	if c.configPath == "" {
		return "the configuration"
	}
	return filepath.Base(c.configPath)
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// URL returns the server base URL.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range fileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
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
			return "", errors.New("B041").
				WithDetail("No crumbs.json or crumbs.toml found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
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
