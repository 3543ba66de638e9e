package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Channel ChannelConfig `mapstructure:"channel"`
	Host    HostConfig    `mapstructure:"host"`
	Player  PlayerConfig  `mapstructure:"player"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds Plex server configuration
type ServerConfig struct {
	URL    string `mapstructure:"url"`    // API base URL
	Token  string `mapstructure:"token"`  // X-Plex-Token
	Origin string `mapstructure:"origin"` // Origin used in download URLs, defaults to URL's origin
}

// ChannelConfig describes how to reach the playback host
type ChannelConfig struct {
	HostCommand string   `mapstructure:"host_command"`
	HostArgs    []string `mapstructure:"host_args"`
}

// HostConfig holds settings for the playback host process
type HostConfig struct {
	MarkItemsPlayed bool          `mapstructure:"mark_items_played"`
	AllowStream     bool          `mapstructure:"allow_stream"` // play downloadUrl when the file is not local
	PathMappings    []PathMapping `mapstructure:"path_mappings"`
	LogFile         string        `mapstructure:"log_file"`
}

// PathMapping rewrites a server-side path prefix to a local one
type PathMapping struct {
	Server string `mapstructure:"server"`
	Local  string `mapstructure:"local"`
}

// PlayerConfig holds media player configuration
type PlayerConfig struct {
	Command string   `mapstructure:"command"` // empty: detect a known player
	Args    []string `mapstructure:"args"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Channel: ChannelConfig{
			HostCommand: "kinorelay-host",
			HostArgs:    []string{},
		},
		Host: HostConfig{
			MarkItemsPlayed: false,
			AllowStream:     true,
			LogFile:         defaultDataPath("kinorelay-host.log"),
		},
		Player: PlayerConfig{
			Command: "",
			Args:    []string{},
		},
		Logging: LoggingConfig{
			File:  defaultDataPath("kinorelay.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns a file path in the per-user data directory
func defaultDataPath(name string) string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "kinorelay", name)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "kinorelay", name)
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "kinorelay")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "kinorelay")
	}
}

// LoadConfig loads configuration from the default search paths and environment
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(defaultConfigPath())
	v.AddConfigPath(".")
	return load(v)
}

// LoadFile loads configuration from an explicit file
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	// Environment variable overrides, e.g. KINORELAY_SERVER_TOKEN
	v.SetEnvPrefix("KINORELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"server.url", "server.token", "server.origin", "channel.host_command", "logging.level"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// IsConfigured returns true if the server URL and token are set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.Token != ""
}

// Validate checks the fields the relay cannot run without
func (c *Config) Validate() error {
	if !c.IsConfigured() {
		return fmt.Errorf("server.url and server.token are required")
	}
	if _, err := c.Origin(); err != nil {
		return err
	}
	if c.Channel.HostCommand == "" {
		return fmt.Errorf("channel.host_command is required")
	}
	return nil
}

// Origin returns scheme://host[:port] used to build download URLs.
// server.origin wins over the origin of server.url.
func (c *Config) Origin() (string, error) {
	raw := c.Server.Origin
	if raw == "" {
		raw = c.Server.URL
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid server origin %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid server origin %q: scheme and host required", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}

// MapPath rewrites a server path using the first matching mapping. A
// mapping only matches whole path components: "/media" covers "/media" and
// "/media/a.mkv" but not "/media2/a.mkv". ok is false when no mapping applies.
func (h HostConfig) MapPath(serverPath string) (local string, ok bool) {
	for _, m := range h.PathMappings {
		if m.Server == "" {
			continue
		}
		prefix := strings.TrimRight(m.Server, `/\`)
		rest, found := strings.CutPrefix(serverPath, prefix)
		if !found || (rest != "" && rest[0] != '/' && rest[0] != '\\') {
			continue
		}
		return filepath.Join(m.Local, filepath.FromSlash(rest)), true
	}
	return "", false
}
