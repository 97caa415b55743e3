package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures all tunable settings for the Spotlight MCP server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Browser   BrowserConfig   `yaml:"browser"`
	Session   SessionConfig   `yaml:"session"`
	Spotlight SpotlightConfig `yaml:"spotlight"`
	MCP       MCPConfig       `yaml:"mcp"`
}

type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	LogFile string `yaml:"log_file"`
}

// BrowserConfig configures how we attach to or launch the user's Chrome.
type BrowserConfig struct {
	// Control endpoint for Rod (e.g., ws://localhost:9222). Required when launch is empty.
	DebuggerURL string `yaml:"debugger_url"`
	// Optional launch command to start Chrome in detached mode (e.g., ["chrome", "--remote-debugging-port=9222"]).
	Launch []string `yaml:"launch"`
	// AutoStart controls whether the server launches/attaches to Chrome at startup.
	AutoStart bool `yaml:"auto_start"`
	// Headless controls whether a launched Chrome runs headless (default: false,
	// since searches run against a page the user is logged into).
	Headless *bool `yaml:"headless"`
	// Default navigation timeout (e.g., "15s").
	DefaultNavigationTimeout string `yaml:"default_navigation_timeout"`
	// Default timeout when attaching to an existing target (e.g., "10s").
	DefaultAttachTimeout string `yaml:"default_attach_timeout"`
	// Optional path to persist page metadata between server restarts.
	PageStore string `yaml:"page_store"`
	// Hostname substrings identifying the host application's tabs.
	HostPatterns []string `yaml:"host_patterns"`
}

// SessionConfig controls session-context extraction and persistence.
type SessionConfig struct {
	// Path the current session context is persisted to ("" keeps it in memory only).
	StorePath string `yaml:"store_path"`
	// Retry delays after page load when the first extraction comes up empty.
	ShortRetryDelay string `yaml:"short_retry_delay"`
	LongRetryDelay  string `yaml:"long_retry_delay"`
}

// SpotlightConfig tunes the search overlay.
type SpotlightConfig struct {
	// Keyboard shortcut that opens the overlay, e.g. "ctrl+shift+space".
	Shortcut string `yaml:"shortcut"`
	// Quiet period after the last keystroke before a search fires (e.g., "300ms").
	Debounce string `yaml:"debounce"`
	// Ceiling on records contributed by a single record type.
	PerTypeLimit int `yaml:"per_type_limit"`
	// TTL for memoized per-type query results ("0" disables the cache).
	CacheTTL string `yaml:"cache_ttl"`
	// Directory for rotating search trace files ("" disables tracing).
	TraceDir string `yaml:"trace_dir"`
}

type MCPConfig struct {
	// When set, starts an SSE server on this port instead of stdio-only.
	SSEPort int `yaml:"sse_port"`
}

// DefaultConfig provides reasonable defaults for local development.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Name:    "spotlight-mcp",
			Version: "0.1.0",
			LogFile: "spotlight-mcp.log",
		},
		Browser: BrowserConfig{
			AutoStart:                true,
			DefaultNavigationTimeout: "15s",
			DefaultAttachTimeout:     "10s",
			PageStore:                "pages.json",
			HostPatterns:             []string{"netsuite.com"},
		},
		Session: SessionConfig{
			StorePath:       "session.json",
			ShortRetryDelay: "2s",
			LongRetryDelay:  "5s",
		},
		Spotlight: SpotlightConfig{
			Shortcut:     "ctrl+shift+space",
			Debounce:     "300ms",
			PerTypeLimit: 20,
			CacheTTL:     "30s",
			TraceDir:     "data/traces",
		},
		MCP: MCPConfig{
			SSEPort: 0,
		},
	}
}

// Load reads YAML config from disk and overlays defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, errors.New("config path is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Validate ensures required fields exist so the server can start deterministically.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return errors.New("server.name is required")
	}
	if c.Browser.AutoStart {
		if c.Browser.DebuggerURL == "" && len(c.Browser.Launch) == 0 {
			return errors.New("browser.debugger_url or browser.launch must be provided")
		}
	}
	if c.Spotlight.Shortcut != "" {
		if err := validateShortcut(c.Spotlight.Shortcut); err != nil {
			return fmt.Errorf("spotlight.shortcut: %w", err)
		}
	}
	return nil
}

// validateShortcut accepts modifier+shift+key bindings like "ctrl+shift+space".
func validateShortcut(s string) error {
	parts := strings.Split(strings.ToLower(s), "+")
	if len(parts) != 3 {
		return fmt.Errorf("want modifier+shift+key, got %q", s)
	}
	switch parts[0] {
	case "ctrl", "cmd", "alt", "meta":
	default:
		return fmt.Errorf("unknown modifier %q", parts[0])
	}
	if parts[1] != "shift" {
		return fmt.Errorf("second key must be shift, got %q", parts[1])
	}
	if parts[2] == "" {
		return errors.New("missing key")
	}
	return nil
}

// NavigationTimeout returns the parsed navigation timeout with a sane default.
func (b BrowserConfig) NavigationTimeout() time.Duration {
	return parseDurationOr(b.DefaultNavigationTimeout, 15*time.Second)
}

// AttachTimeout returns the parsed attach timeout with a sane default.
func (b BrowserConfig) AttachTimeout() time.Duration {
	return parseDurationOr(b.DefaultAttachTimeout, 10*time.Second)
}

// IsHeadless returns whether a launched Chrome runs headless (default: false).
func (b BrowserConfig) IsHeadless() bool {
	if b.Headless == nil {
		return false
	}
	return *b.Headless
}

// GetHostPatterns returns the host matching patterns with a sane default.
func (b BrowserConfig) GetHostPatterns() []string {
	if len(b.HostPatterns) == 0 {
		return []string{"netsuite.com"}
	}
	return b.HostPatterns
}

// ShortDelay returns the parsed short retry delay with a sane default.
func (s SessionConfig) ShortDelay() time.Duration {
	return parseDurationOr(s.ShortRetryDelay, 2*time.Second)
}

// LongDelay returns the parsed long retry delay with a sane default.
func (s SessionConfig) LongDelay() time.Duration {
	return parseDurationOr(s.LongRetryDelay, 5*time.Second)
}

// DebounceDuration returns the parsed debounce with a sane default.
func (s SpotlightConfig) DebounceDuration() time.Duration {
	return parseDurationOr(s.Debounce, 300*time.Millisecond)
}

// CacheTTLDuration returns the parsed cache TTL; "0" disables caching.
func (s SpotlightConfig) CacheTTLDuration() time.Duration {
	return parseDurationOr(s.CacheTTL, 30*time.Second)
}

// GetPerTypeLimit returns the per-type ceiling with a sane default.
func (s SpotlightConfig) GetPerTypeLimit() int {
	if s.PerTypeLimit <= 0 {
		return 20
	}
	return s.PerTypeLimit
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
