package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is searched for in the working directory and $HOME/.config/batchgen.
const DefaultFileName = "batchgen.yaml"

// ErrConfigExists is returned by WriteDefault when it would overwrite a file.
var ErrConfigExists = errors.New("config file already exists")

func defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// DefaultYAML renders every default setting as a config file body.
func DefaultYAML() ([]byte, error) {
	out, err := yaml.Marshal(defaults().AllSettings())
	if err != nil {
		return nil, fmt.Errorf("encode default config: %w", err)
	}
	return out, nil
}

// WriteDefault writes the default settings to path. An existing file is
// only replaced when force is set.
func WriteDefault(path string, force bool) error {
	v := defaults()
	if force {
		if err := v.WriteConfigAs(path); err != nil {
			return fmt.Errorf("write config %s: %w", path, err)
		}
		return nil
	}

	err := v.SafeWriteConfigAs(path)
	var exists viper.ConfigFileAlreadyExistsError
	if errors.As(err, &exists) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
