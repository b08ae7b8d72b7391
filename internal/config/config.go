package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/hunterwarburton/walletproxy/internal/routing"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultListenAddr = "127.0.0.1:8000"

type Config struct {
	Debug   bool
	Verbose bool
	// Proxy configuration
	ListenAddr string
	// CA used to sign intercepted hosts; both empty means goproxy's built-in CA
	PrivateKeyPath string
	CACertPath     string
	// Upstream configuration
	RPCURL string
	// Metadata directory file; empty means an empty directory
	TokenListPath string
	// Routes file; empty means the built-in Solflare routes
	RoutesPath string
	Routes     routing.Table
}

// LoadConfig loads the configuration from environment variables. It does not
// validate, so that command line flags can still fill in required values.
func LoadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Debug:          getEnvAsBool("WALLETPROXY_DEBUG", false),
		Verbose:        getEnvAsBool("WALLETPROXY_VERBOSE", false),
		ListenAddr:     getEnv("WALLETPROXY_LISTEN", DefaultListenAddr),
		PrivateKeyPath: getEnv("WALLETPROXY_PRIVATE_KEY", ""),
		CACertPath:     getEnv("WALLETPROXY_CA_CERT", ""),
		RPCURL:         getEnv("WALLETPROXY_RPC_URL", ""),
		TokenListPath:  getEnv("WALLETPROXY_TOKEN_LIST", ""),
		RoutesPath:     getEnv("WALLETPROXY_ROUTES", ""),
		Routes:         routing.DefaultTable(),
	}
}

// LoadRoutes reads RoutesPath, if set, over the default route table. Sections
// missing from the file keep their defaults.
func (c *Config) LoadRoutes() error {
	c.Routes = routing.DefaultTable()
	if c.RoutesPath == "" {
		return nil
	}

	data, err := os.ReadFile(c.RoutesPath)
	if err != nil {
		return fmt.Errorf("failed to read routes file: %w", err)
	}
	table := routing.DefaultTable()
	if err := yaml.Unmarshal(data, &table); err != nil {
		return fmt.Errorf("failed to parse routes file %s: %w", c.RoutesPath, err)
	}
	c.Routes = table
	return nil
}

// Validate checks that all required configuration fields are properly set
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("WALLETPROXY_LISTEN must not be empty")
	}

	if c.RPCURL == "" {
		return fmt.Errorf("WALLETPROXY_RPC_URL is required")
	}
	u, err := url.Parse(c.RPCURL)
	if err != nil {
		return fmt.Errorf("invalid WALLETPROXY_RPC_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid WALLETPROXY_RPC_URL %q: must be an http(s) URL", c.RPCURL)
	}

	if (c.PrivateKeyPath == "") != (c.CACertPath == "") {
		return fmt.Errorf("WALLETPROXY_PRIVATE_KEY and WALLETPROXY_CA_CERT must be set together")
	}

	if err := c.Routes.Validate(); err != nil {
		return fmt.Errorf("invalid routes: %w", err)
	}

	return nil
}

// HasCA reports whether a CA key pair was configured.
func (c *Config) HasCA() bool {
	return c.PrivateKeyPath != "" && c.CACertPath != ""
}

// Helper functions to read environment variables
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
