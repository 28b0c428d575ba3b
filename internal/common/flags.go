package common

import (
	"fmt"
	"os"
)

// ConfigPaths is a custom flag type that allows multiple -config flags
type ConfigPaths []string

func (c *ConfigPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *ConfigPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

// DiscoverConfigFiles returns paths unchanged when any were given, otherwise
// ragbot.toml from the current directory or deployments/local
func DiscoverConfigFiles(paths ConfigPaths) []string {
	if len(paths) > 0 {
		return paths
	}
	for _, candidate := range []string{"ragbot.toml", "deployments/local/ragbot.toml"} {
		if _, err := os.Stat(candidate); err == nil {
			return []string{candidate}
		}
	}
	return nil
}

// LoadConfig loads .env, then defaults -> file1 -> file2 -> ... -> env
func LoadConfig(paths []string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	return LoadFromFiles(paths...)
}
