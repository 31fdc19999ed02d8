// Package configmanager loads the VaultLab environment configuration.
//
// Configuration priority: built-in defaults < vaultlab.yaml < VAULTLAB_*
// environment variables. The manager produces a single *v1alpha1.Environment
// at process start; every prober and remediator receives it by reference
// instead of reading ambient state.
package configmanager

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"

	"github.com/vaultlab/vaultlab/pkg/apis/lab/v1alpha1"
	"github.com/vaultlab/vaultlab/pkg/utils/envvar"
)

const (
	configName = "vaultlab"
	envPrefix  = "VAULTLAB"
)

// ConfigManager loads and caches the environment configuration.
type ConfigManager struct {
	Viper  *viper.Viper
	Config *v1alpha1.Environment

	configLoaded bool
}

// NewConfigManager creates a configuration manager with Viper initialized
// for the standard config file locations and environment handling.
func NewConfigManager() *ConfigManager {
	viperInstance := viper.New()
	viperInstance.SetConfigName(configName)
	viperInstance.SetConfigType("yaml")
	viperInstance.AddConfigPath(".")
	viperInstance.SetEnvPrefix(envPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()
	viperInstance.SetTypeByDefaultValue(true)

	return &ConfigManager{
		Viper:  viperInstance,
		Config: v1alpha1.NewEnvironment(),
	}
}

// LoadConfig loads the configuration from file and environment variables.
// A missing config file is not an error; defaults apply. The loaded config
// is cached for subsequent calls.
func (m *ConfigManager) LoadConfig() (*v1alpha1.Environment, error) {
	if m.configLoaded {
		return m.Config, nil
	}

	if err := m.registerDefaults(); err != nil {
		return nil, err
	}

	err := m.Viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	err = m.Viper.Unmarshal(&m.Config, func(cfg *mapstructure.DecoderConfig) {
		cfg.TagName = "mapstructure"
		cfg.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			expandEnvHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	err = m.Config.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	m.configLoaded = true

	return m.Config, nil
}

// registerDefaults feeds the default configuration into Viper so every key
// is known before any lookup. Without registered keys, AutomaticEnv never
// surfaces VAULTLAB_* variables for settings absent from the config file.
func (m *ConfigManager) registerDefaults() error {
	raw, err := yaml.Marshal(m.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	defaults := map[string]any{}

	err = yaml.Unmarshal(raw, &defaults)
	if err != nil {
		return fmt.Errorf("failed to decode default config: %w", err)
	}

	for key, value := range defaults {
		m.Viper.SetDefault(key, value)
	}

	return nil
}

// expandEnvHookFunc expands ${VAR_NAME} placeholders in every string value
// decoded from the config file, so secrets such as the store token can live
// in the environment instead of vaultlab.yaml.
func expandEnvHookFunc() mapstructure.DecodeHookFuncKind {
	return func(from, _ reflect.Kind, data any) (any, error) {
		if from != reflect.String {
			return data, nil
		}

		value, ok := data.(string)
		if !ok {
			return data, nil
		}

		return envvar.Expand(value), nil
	}
}
