package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/danderson/multiqr"
	"github.com/goccy/go-yaml"
)

// config holds the settings that can come from a config file as well
// as from flags.
type config struct {
	Dialect  string `toml:"dialect" yaml:"dialect"`
	Type     string `toml:"type" yaml:"type"`
	MaxLen   int    `toml:"max_len" yaml:"max_len"`
	Network  string `toml:"network" yaml:"network"`
	AllowRaw bool   `toml:"allow_raw" yaml:"allow_raw"`
	FPS      int    `toml:"fps" yaml:"fps"`
}

// loadConfig reads a TOML or YAML config file, chosen by extension.
func loadConfig(path string) (config, error) {
	var ret config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.DecodeFile(path, &ret)
		if err != nil {
			return config{}, fmt.Errorf("reading %s: %w", path, err)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return config{}, fmt.Errorf("reading %s: unknown keys %v", path, undec)
		}
	case ".yaml", ".yml":
		bs, err := os.ReadFile(path)
		if err != nil {
			return config{}, err
		}
		if err := yaml.Unmarshal(bs, &ret); err != nil {
			return config{}, fmt.Errorf("reading %s: %w", path, err)
		}
	default:
		return config{}, fmt.Errorf("unknown config file type %q, want .toml or .yaml", ext)
	}
	return ret, nil
}

// merge returns c with the non-zero fields of o applied on top.
func (c config) merge(o config) config {
	if o.Dialect != "" {
		c.Dialect = o.Dialect
	}
	if o.Type != "" {
		c.Type = o.Type
	}
	if o.MaxLen != 0 {
		c.MaxLen = o.MaxLen
	}
	if o.Network != "" {
		c.Network = o.Network
	}
	if o.AllowRaw {
		c.AllowRaw = true
	}
	if o.FPS != 0 {
		c.FPS = o.FPS
	}
	return c
}

var networks = map[string]*chaincfg.Params{
	"":         &chaincfg.MainNetParams,
	"mainnet":  &chaincfg.MainNetParams,
	"testnet":  &chaincfg.TestNet3Params,
	"testnet3": &chaincfg.TestNet3Params,
	"regtest":  &chaincfg.RegressionNetParams,
	"signet":   &chaincfg.SigNetParams,
}

// settings is a validated config.
type settings struct {
	dialect  multiqr.WireDialect
	typ      multiqr.PayloadType
	maxLen   int
	net      *chaincfg.Params
	allowRaw bool
	fps      int
}

func (c config) settings() (settings, error) {
	dialect, err := multiqr.ParseDialect(c.Dialect)
	if err != nil {
		return settings{}, err
	}
	typ, err := multiqr.ParsePayloadType(c.Type)
	if err != nil {
		return settings{}, err
	}
	net, ok := networks[strings.ToLower(c.Network)]
	if !ok {
		return settings{}, fmt.Errorf("unknown network %q", c.Network)
	}
	if c.MaxLen < 0 {
		return settings{}, fmt.Errorf("invalid max length %d", c.MaxLen)
	}
	fps := c.FPS
	if fps <= 0 {
		fps = 4
	}
	return settings{dialect, typ, c.MaxLen, net, c.AllowRaw, fps}, nil
}
