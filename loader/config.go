package loader

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config lists library candidates. Environment variables are tried first, then the other fields in order.
type Config struct {
	Env    []string `yaml:"env"`    // environment variables holding a file path
	Paths  []string `yaml:"paths"`  // explicit files
	Cached []string `yaml:"cached"` // relative to the user cache directory
	System []string `yaml:"system"` // names for the system search path
}

// ParseConfig decodes a YAML config.
func ParseConfig(b []byte) (c Config, err error) {
	err = yaml.Unmarshal(b, &c)
	return
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (c Config, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return
	}
	return ParseConfig(b)
}

// Merge appends the candidates of o after those of c.
func (c Config) Merge(o Config) Config {
	return Config{
		Env:    append(append([]string{}, c.Env...), o.Env...),
		Paths:  append(append([]string{}, c.Paths...), o.Paths...),
		Cached: append(append([]string{}, c.Cached...), o.Cached...),
		System: append(append([]string{}, c.System...), o.System...),
	}
}

// Sources in trial order.
func (c Config) Sources() (v []Source) {
	for _, p := range c.Env {
		v = append(v, Env(p))
	}
	for _, p := range c.Paths {
		v = append(v, Custom(p))
	}
	for _, p := range c.Cached {
		v = append(v, Cached(p))
	}
	for _, p := range c.System {
		v = append(v, System(p))
	}
	return
}
