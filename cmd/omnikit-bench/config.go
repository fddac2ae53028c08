package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is a connection profile for dial/bench: the address to reach, the
// identity state directory, logging knobs, and the function id/payload to
// exercise once connected. Grounded on the teacher's config.yaml shape, cut
// down to what this CLI actually touches.
type Profile struct {
	Address     string        `yaml:"address"`
	DataDir     string        `yaml:"data_dir"`
	PeerName    string        `yaml:"peer_name"`
	LogLevel    string        `yaml:"log_level"`
	LogFormat   string        `yaml:"log_format"`
	FunctionID  uint32        `yaml:"function_id"`
	Message     string        `yaml:"message"`
	Count       int           `yaml:"count"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

func defaultProfile() Profile {
	return Profile{
		Address:     "127.0.0.1:7790",
		DataDir:     "./omnikit-bench-data",
		PeerName:    "omnikit-bench",
		LogLevel:    "info",
		LogFormat:   "text",
		FunctionID:  1,
		Message:     "ping",
		Count:       1,
		DialTimeout: 5 * time.Second,
	}
}

// LoadProfile reads a YAML connection profile from path, falling back to
// defaultProfile for any field the file does not set; a field the file sets
// explicitly, even to a zero value, overrides the default. An empty path
// returns the defaults unchanged.
func LoadProfile(path string) (Profile, error) {
	profile := defaultProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return profile, nil
}
