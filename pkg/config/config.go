package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/boogy/bearer-warden/pkg/utils"
	"github.com/spf13/viper"
)

// Key selection strategies
const (
	StrategySingle = "single"
	StrategyList   = "list"
	StrategyIssuer = "issuer"
)

var (
	once     sync.Once
	instance *Config

	strategy        = StrategyList // Default key strategy
	port            = 8080         // Default listen port
	readTimeout     = "10s"        // Default HTTP read timeout
	writeTimeout    = "10s"        // Default HTTP write timeout
	maxTokenLength  = 16 * 1024    // Default max bearer token size in bytes
	s3MaxObjectSize = 1 << 20      // Default max size of a key object fetched from S3
)

// IssuerKey maps one token issuer to the key file its tokens are verified with
type IssuerKey struct {
	Issuer  string `mapstructure:"issuer"`   // Value of the "iss" claim (e.g., "https://auth.example.com")
	KeyFile string `mapstructure:"key_file"` // PEM file path or s3://bucket/key
	Private bool   `mapstructure:"private"`  // KeyFile holds a private key rather than a public one
}

type Keys struct {
	Strategy    string      `mapstructure:"strategy"`     // single, list or issuer
	PublicKeys  []string    `mapstructure:"public_keys"`  // Public key PEM paths
	PrivateKeys []string    `mapstructure:"private_keys"` // Private key PEM paths, their public half is used for verification
	Issuers     []IssuerKey `mapstructure:"issuers"`      // Issuer to key mappings (issuer strategy only)
}

type Server struct {
	Port           int           `mapstructure:"port"`             // Listen port
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`     // HTTP server read timeout
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`    // HTTP server write timeout
	MaxTokenLength int           `mapstructure:"max_token_length"` // Tokens longer than this are rejected, 0 disables the check
	PublishJWKS    bool          `mapstructure:"publish_jwks"`     // Serve the public keys on /.well-known/jwks.json
}

type AWS struct {
	Region          string `mapstructure:"region"`             // Region for the S3 client, empty uses the SDK default chain
	S3MaxObjectSize int64  `mapstructure:"s3_max_object_size"` // Largest key object read from S3
}

type Config struct {
	Keys   *Keys   `mapstructure:"keys"`   // Key material and selection strategy
	Server *Server `mapstructure:"server"` // HTTP server settings
	AWS    *AWS    `mapstructure:"aws"`    // AWS settings, only used for s3:// key paths
}

// NewConfig initializes and returns the configuration. It ensures that the config is loaded only once.
func NewConfig() (*Config, error) {
	var err error
	once.Do(func() {
		instance = &Config{}
		err = instance.LoadConfig()
	})
	return instance, err
}

// LoadConfig reads the configuration file if there is one, applies defaults and
// environment overrides, then validates the result.
func (c *Config) LoadConfig() error {
	configName := utils.GetEnv("CONFIG_NAME", "config") // Configuration file name without extension
	configPath := utils.GetEnv("CONFIG_PATH", ".")      // Configuration file path, default to current directory

	viper.SetEnvPrefix("bw") // ex: "BW_KEYS_STRATEGY"
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.AddConfigPath("/etc/bearer-warden/")
	viper.AddConfigPath(configPath)
	viper.SetConfigName(configName)

	viper.SetDefault("keys.strategy", strategy)
	viper.SetDefault("server.port", port)
	viper.SetDefault("server.read_timeout", readTimeout)
	viper.SetDefault("server.write_timeout", writeTimeout)
	viper.SetDefault("server.max_token_length", maxTokenLength)
	viper.SetDefault("server.publish_jwks", false)
	viper.SetDefault("aws.s3_max_object_size", s3MaxObjectSize)

	// Keys
	_ = viper.BindEnv("keys.strategy")     // BW_KEYS_STRATEGY
	_ = viper.BindEnv("keys.public_keys")  // BW_KEYS_PUBLIC_KEYS (comma separated)
	_ = viper.BindEnv("keys.private_keys") // BW_KEYS_PRIVATE_KEYS (comma separated)

	// Server
	_ = viper.BindEnv("server.port")             // BW_SERVER_PORT
	_ = viper.BindEnv("server.read_timeout")     // BW_SERVER_READ_TIMEOUT
	_ = viper.BindEnv("server.write_timeout")    // BW_SERVER_WRITE_TIMEOUT
	_ = viper.BindEnv("server.max_token_length") // BW_SERVER_MAX_TOKEN_LENGTH
	_ = viper.BindEnv("server.publish_jwks")     // BW_SERVER_PUBLISH_JWKS

	// AWS
	_ = viper.BindEnv("aws.region")             // BW_AWS_REGION
	_ = viper.BindEnv("aws.s3_max_object_size") // BW_AWS_S3_MAX_OBJECT_SIZE

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; rely on defaults and environment
		} else {
			return fmt.Errorf("problem reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(c); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return c.Validate()
}

// Validate checks if the configuration is valid and fills in missing sections.
func (c *Config) Validate() error {
	if c.Keys == nil {
		c.Keys = &Keys{}
	}
	if c.Server == nil {
		c.Server = &Server{}
	}
	if c.AWS == nil {
		c.AWS = &AWS{}
	}

	if c.Keys.Strategy == "" {
		c.Keys.Strategy = strategy
	}
	c.Keys.Strategy = strings.ToLower(c.Keys.Strategy)

	switch c.Keys.Strategy {
	case StrategySingle:
		if n := len(c.Keys.PublicKeys) + len(c.Keys.PrivateKeys); n != 1 {
			return fmt.Errorf("single strategy needs exactly one public or private key, got %d", n)
		}
	case StrategyList:
		if len(c.Keys.PublicKeys)+len(c.Keys.PrivateKeys) == 0 {
			return errors.New("list strategy needs at least one public or private key")
		}
	case StrategyIssuer:
		if len(c.Keys.Issuers) == 0 {
			return errors.New("issuer strategy needs at least one issuer mapping")
		}
		seen := make(map[string]struct{}, len(c.Keys.Issuers))
		for i, m := range c.Keys.Issuers {
			if m.Issuer == "" || m.KeyFile == "" {
				return fmt.Errorf("issuer and key_file are required for issuer mapping %d", i)
			}
			if _, dup := seen[m.Issuer]; dup {
				return fmt.Errorf("duplicate issuer mapping '%s'", m.Issuer)
			}
			seen[m.Issuer] = struct{}{}
		}
	default:
		return fmt.Errorf("unknown key strategy '%s'", c.Keys.Strategy)
	}

	for _, p := range c.KeyPaths() {
		if strings.TrimSpace(p) == "" {
			return errors.New("key paths must not be empty")
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxTokenLength < 0 {
		return errors.New("server max_token_length must not be negative")
	}
	if c.AWS.S3MaxObjectSize <= 0 {
		c.AWS.S3MaxObjectSize = int64(s3MaxObjectSize)
	}

	return nil
}

// KeyPaths returns every key path referenced by the configuration, in
// declaration order.
func (c *Config) KeyPaths() []string {
	if c.Keys == nil {
		return nil
	}
	paths := make([]string, 0, len(c.Keys.PublicKeys)+len(c.Keys.PrivateKeys)+len(c.Keys.Issuers))
	paths = append(paths, c.Keys.PublicKeys...)
	paths = append(paths, c.Keys.PrivateKeys...)
	for _, m := range c.Keys.Issuers {
		paths = append(paths, m.KeyFile)
	}
	return paths
}
