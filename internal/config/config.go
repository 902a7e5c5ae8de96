package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Chain   ChainConfig
	Keyring KeyringConfig
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type StoreConfig struct {
	DatabaseURL string `mapstructure:"database_url"`
	MaxConns    int    `mapstructure:"max_conns"`
}

// ChainConfig.ChainID is optional: a zero value tells chain.NewClient to
// fall back to the value the RPC endpoint itself reports.
type ChainConfig struct {
	RPCURL          string `mapstructure:"rpc_url"`
	ContractAddress string `mapstructure:"contract_address"`
	ChainID         int64  `mapstructure:"chain_id"`
}

type KeyringConfig struct {
	PrivateKeyHex      string `mapstructure:"private_key_hex"`
	KMSKeyCiphertext   string `mapstructure:"kms_key_ciphertext"`
	AWSRegion          string `mapstructure:"aws_region"`
	LocalStackEndpoint string `mapstructure:"localstack_endpoint"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("store.max_conns", 5)
	v.SetDefault("keyring.aws_region", "us-east-1")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	_ = v.ReadInConfig()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"server.port":                   "PORT",
		"store.database_url":            "DATABASE_URL",
		"store.max_conns":               "DB_MAX_CONNS",
		"chain.rpc_url":                 "RPC_URL",
		"chain.contract_address":        "CHANNEL_MANAGER_ADDRESS",
		"chain.chain_id":                "CHAIN_ID",
		"keyring.private_key_hex":       "SEQUENCER_PRIVATE_KEY",
		"keyring.kms_key_ciphertext":    "SEQUENCER_KMS_CIPHERTEXT",
		"keyring.aws_region":            "AWS_REGION",
		"keyring.localstack_endpoint":   "KMS_LOCALSTACK_ENDPOINT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	type req struct {
		val  string
		name string
	}
	for _, r := range []req{
		{c.Store.DatabaseURL, "DATABASE_URL"},
		{c.Chain.RPCURL, "RPC_URL"},
		{c.Chain.ContractAddress, "CHANNEL_MANAGER_ADDRESS"},
	} {
		if r.val == "" {
			return fmt.Errorf("required config missing: %s", r.name)
		}
	}
	if c.Keyring.PrivateKeyHex == "" && c.Keyring.KMSKeyCiphertext == "" {
		return fmt.Errorf("required config missing: either SEQUENCER_PRIVATE_KEY or SEQUENCER_KMS_CIPHERTEXT")
	}
	return nil
}
