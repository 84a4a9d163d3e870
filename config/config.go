// Package config provides the typed surface the runtime is configured
// through: client identity, tick resolution and tempo, virtual-port and
// auto-connect preferences, and per-bus clocking mode. Loading is
// deliberately limited to type-decoding a YAML file into Config; no
// validation business logic lives here, since parsing configuration files
// is an external collaborator the core runtime does not own.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// ClockMode names a bus's clocking behavior.
type ClockMode string

const (
	ClockDisabled     ClockMode = "disabled"
	ClockOff          ClockMode = "off"
	ClockPositionOnly ClockMode = "position"
	ClockModulo       ClockMode = "modulo"
)

// BusConfig configures one input or output bus.
type BusConfig struct {
	PortName string    `yaml:"port_name"`
	Enabled  bool      `yaml:"enabled"`
	Clock    ClockMode `yaml:"clock"`
	ClockMod int       `yaml:"clock_mod"`
}

// Config is the complete set of client-supplied settings.
type Config struct {
	ClientName      string `yaml:"client_name"`
	ApplicationName string `yaml:"application_name"`

	PPQN int     `yaml:"ppqn"`
	BPM  float64 `yaml:"bpm"`

	VirtualPorts   bool `yaml:"virtual_ports"`
	AutoConnect    bool `yaml:"auto_connect"`
	JackPreference bool `yaml:"jack_preference"`

	// PreferredAPI names the desired backend, e.g. "jack" or
	// "alsa"; empty means "let the runtime pick" (midiapi.Unspecified).
	PreferredAPI string `yaml:"preferred_api"`

	Inputs  []BusConfig `yaml:"inputs"`
	Outputs []BusConfig `yaml:"outputs"`
}

// Default returns a Config with the same PPQN/BPM defaults client.New
// uses, so a caller can start from Default and override only what a
// config file supplies.
func Default() Config {
	return Config{
		PPQN: 192,
		BPM:  120,
	}
}

// Load reads and decodes a YAML config file at path, starting from
// Default so unset fields keep their sensible zero-state values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: decode %s: %w", path, err)
	}
	return cfg, nil
}
