// Package config loads the rollup publisher app's configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	L1      L1Config      `mapstructure:"l1"      yaml:"l1"`
	Gas     GasConfig     `mapstructure:"gas"     yaml:"gas"`
	Server  ServerConfig  `mapstructure:"server"  yaml:"server"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Log     LogConfig     `mapstructure:"log"     yaml:"log"`
}

// L1Config holds Ethereum L1 integration configuration.
type L1Config struct {
	RPCEndpoint           string `mapstructure:"rpc_endpoint"              yaml:"rpc_endpoint"              env:"L1_RPC_ENDPOINT"`
	ChainID               uint64 `mapstructure:"chain_id"                  yaml:"chain_id"                  env:"L1_CHAIN_ID"`
	RollupVerifierAddr    string `mapstructure:"rollup_verifier_contract"  yaml:"rollup_verifier_contract"  env:"L1_ROLLUP_VERIFIER_CONTRACT"`
	BroadcastRegistryAddr string `mapstructure:"broadcast_registry_contract" yaml:"broadcast_registry_contract" env:"L1_BROADCAST_REGISTRY_CONTRACT"`
	UserApprovalAddr      string `mapstructure:"user_approval_registry_contract" yaml:"user_approval_registry_contract" env:"L1_USER_APPROVAL_REGISTRY_CONTRACT"`
	// PublisherPkHex is the local ECDSA signing key for the publisher's
	// account. It is required: the app signs only with this key.
	PublisherPkHex string `mapstructure:"publisher_pk_hex" yaml:"publisher_pk_hex" env:"L1_PUBLISHER_PK_HEX"`
}

// GasConfig holds the fee ceiling/policy passed straight through to
// publish.Config.
type GasConfig struct {
	MaxFeePerGasWei         string        `mapstructure:"max_fee_per_gas_wei"          yaml:"max_fee_per_gas_wei"`
	MaxPriorityFeePerGasWei string        `mapstructure:"max_priority_fee_per_gas_wei" yaml:"max_priority_fee_per_gas_wei"`
	GasLimit                uint64        `mapstructure:"gas_limit"                    yaml:"gas_limit"`
	GateRetryInterval       time.Duration `mapstructure:"gate_retry_interval"          yaml:"gate_retry_interval"`
	SendRetryInterval       time.Duration `mapstructure:"send_retry_interval"          yaml:"send_retry_interval"`
	RevertRetryInterval     time.Duration `mapstructure:"revert_retry_interval"        yaml:"revert_retry_interval"`
	ReceiptTimeout          time.Duration `mapstructure:"receipt_timeout"              yaml:"receipt_timeout"`
}

// ServerConfig holds the control-surface HTTP server configuration: the
// publish/interrupt/clearInterrupt operations exposed over HTTP so an
// external rollup-producing process can drive this binary.
type ServerConfig struct {
	ListenAddr        string        `mapstructure:"listen_addr"         yaml:"listen_addr"         env:"SERVER_LISTEN_ADDR"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"        yaml:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"       yaml:"write_timeout"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" env:"METRICS_ENABLED"`
	Path    string `mapstructure:"path"    yaml:"path"    env:"METRICS_PATH"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  env:"LOG_LEVEL"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty" env:"LOG_PRETTY"`
}

// Load loads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("l1.rpc_endpoint", "")
	v.SetDefault("l1.chain_id", 0)
	v.SetDefault("l1.rollup_verifier_contract", "")
	v.SetDefault("l1.broadcast_registry_contract", "")
	v.SetDefault("l1.user_approval_registry_contract", "")
	v.SetDefault("l1.publisher_pk_hex", "")

	v.SetDefault("gas.max_fee_per_gas_wei", "0")
	v.SetDefault("gas.max_priority_fee_per_gas_wei", "0")
	v.SetDefault("gas.gas_limit", 0)
	v.SetDefault("gas.gate_retry_interval", "60s")
	v.SetDefault("gas.send_retry_interval", "60s")
	v.SetDefault("gas.revert_retry_interval", "60s")
	v.SetDefault("gas.receipt_timeout", "300s")

	v.SetDefault("server.listen_addr", ":8090")
	v.SetDefault("server.read_header_timeout", "5s")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.L1.RPCEndpoint) == "" {
		return fmt.Errorf("l1.rpc_endpoint is required")
	}
	if strings.TrimSpace(c.L1.RollupVerifierAddr) == "" {
		return fmt.Errorf("l1.rollup_verifier_contract is required")
	}
	if strings.TrimSpace(c.L1.BroadcastRegistryAddr) == "" {
		return fmt.Errorf("l1.broadcast_registry_contract is required")
	}
	if strings.TrimSpace(c.L1.PublisherPkHex) == "" {
		return fmt.Errorf("l1.publisher_pk_hex is required")
	}
	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Path) == "" {
		return fmt.Errorf("metrics.path is required when metrics enabled")
	}
	return nil
}
