package config

// Package config provides a reusable loader for vaultscript configuration
// files and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.2.0

import (
	"fmt"

	"github.com/spf13/viper"

	"vaultscript/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.2.0"

// Config represents the unified configuration for a vaultscript node. Its
// structure matches the YAML files Load reads from the config directory.
type Config struct {
	Engine struct {
		// MaxCallDepth is loaded from configuration but not read by the
		// engine; nested call-frame depth is not bounded by it.
		MaxCallDepth int `mapstructure:"max_call_depth" json:"max_call_depth"`
		DBPath       string `mapstructure:"db_path" json:"db_path"`
	} `mapstructure:"engine" json:"engine"`

	Metering struct {
		TbdLimit                 uint64 `mapstructure:"tbd_limit" json:"tbd_limit"`
		PerWasmInstruction       uint64 `mapstructure:"per_wasm_instruction" json:"per_wasm_instruction"`
		HostCallBase             uint64 `mapstructure:"host_call_base" json:"host_call_base"`
		SubstateReadCostPerByte  uint64 `mapstructure:"substate_read_cost_per_byte" json:"substate_read_cost_per_byte"`
		SubstateWriteCostPerByte uint64 `mapstructure:"substate_write_cost_per_byte" json:"substate_write_cost_per_byte"`
	} `mapstructure:"metering" json:"metering"`

	Wasm struct {
		// Compiler names a wasmer-go backend ("cranelift", "llvm",
		// "singlepass"). The engine does not read it: GuestRuntime always
		// uses wasmer-go's default engine.
		Compiler          string `mapstructure:"compiler" json:"compiler"`
		MaxMemoryPages    uint32 `mapstructure:"max_memory_pages" json:"max_memory_pages"`
		ModuleCacheDir    string `mapstructure:"module_cache_dir" json:"module_cache_dir"`
	} `mapstructure:"wasm" json:"wasm"`

	// Network/Consensus are retained as placeholders for a future
	// multi-node deployment of this engine; the engine core itself neither
	// reads nor requires them.
	Network struct {
		ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
	} `mapstructure:"network" json:"network"`

	Consensus struct {
		Type string `mapstructure:"type" json:"type"`
	} `mapstructure:"consensus" json:"consensus"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the VAULTSCRIPT_ENV environment
// variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("VAULTSCRIPT_ENV", ""))
}
