// File: cmd/config.go
package cmd

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the demo-surface settings: where the image lives and the
// geometry mkfs builds with. The core never reads configuration.
type Config struct {
	ImagePath   string `mapstructure:"image_path"`
	BlockSize   uint32 `mapstructure:"block_size"`
	BlockCount  uint32 `mapstructure:"block_count"`
	Descriptors uint32 `mapstructure:"descriptors"`
}

// LoadConfig loads settings using Viper: file, environment, defaults.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("unixfs-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.unixfs")

	// Set defaults
	viper.SetDefault("image_path", "unixfs.img")
	viper.SetDefault("block_size", 1024)
	viper.SetDefault("block_count", 2048)
	viper.SetDefault("descriptors", 64)

	// Allow environment variables
	viper.SetEnvPrefix("UNIXFS")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
