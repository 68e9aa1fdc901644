package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultContextName is the context new installs and `ring init` use.
const DefaultContextName = "default"

// API describes one context's API endpoint.
type API struct {
	Scheme string `toml:"scheme"`
	Port   int    `toml:"port"`
}

// Context is a single named API endpoint a CLI invocation can target.
type Context struct {
	IP  string `toml:"ip"`
	API API    `toml:"api"`
}

// URL renders the context's base API URL.
func (c Context) URL() string {
	return fmt.Sprintf("%s://%s:%d", c.API.Scheme, c.IP, c.API.Port)
}

// Scheduler holds the scheduler's tick interval, in seconds, as written by
// `ring init`. The running server still allows SCHEDULER_INTERVAL to
// override this at process start.
type Scheduler struct {
	Interval int `toml:"interval"`
}

// Config is the decoded contents of config.toml.
type Config struct {
	CurrentContext string             `toml:"current_context"`
	Contexts       map[string]Context `toml:"contexts"`
	Scheduler      Scheduler          `toml:"scheduler"`
}

// Current returns the active context, or an error if current_context
// points at a name with no matching table.
func (c *Config) Current() (Context, error) {
	ctx, ok := c.Contexts[c.CurrentContext]
	if !ok {
		return Context{}, fmt.Errorf("unknown context %q", c.CurrentContext)
	}
	return ctx, nil
}

// Dir resolves the configuration directory: RING_CONFIG_FILE if set,
// otherwise ~/.config/kemeter/ring.
func Dir() (string, error) {
	if v := os.Getenv("RING_CONFIG_FILE"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "kemeter", "ring"), nil
}

func configPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config.toml from the config directory. If it does not exist,
// it returns a default single-context configuration with the host's
// autodetected non-loopback IP, matching what `ring init` would write.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default()
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Default builds the configuration `ring init` writes on a fresh machine.
func Default() (*Config, error) {
	ip, err := autodetectIP()
	if err != nil {
		return nil, err
	}
	return &Config{
		CurrentContext: DefaultContextName,
		Contexts: map[string]Context{
			DefaultContextName: {
				IP:  ip,
				API: API{Scheme: "http", Port: 3030},
			},
		},
		Scheduler: Scheduler{Interval: 5},
	}, nil
}

// Save writes the configuration to config.toml, creating the config
// directory if necessary.
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Init creates the config directory, writes a default config.toml (unless
// one already exists) and an empty auth.json.
func Init() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg, err := Default()
		if err != nil {
			return err
		}
		if err := Save(cfg); err != nil {
			return err
		}
	}

	return initAuth(dir)
}

// autodetectIP returns the first non-loopback IPv4 address among the
// host's network interfaces, matching the original client's use of the
// local_ip_address crate.
func autodetectIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", fmt.Errorf("enumerating network interfaces: %w", err)
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String(), nil
		}
	}
	return "127.0.0.1", nil
}
