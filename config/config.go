/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

// Package config holds the immutable run configuration of an acquisition.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"time"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"github.com/qri-io/jsonschema"
	"gopkg.in/yaml.v3"
)

// Tier is the trust level of an acquisition.
type Tier string

const (
	// NoRoot uses unprivileged logical access only.
	NoRoot Tier = "noroot"
	// Root uses su for privileged deep access.
	Root Tier = "root"
)

// ErrInvalid is returned for configurations that fail validation.
var ErrInvalid = errors.New("invalid configuration")

// Options enables or disables groups of artifacts.
type Options struct {
	Contacts         bool `yaml:"contacts" json:"contacts"`
	CallLog          bool `yaml:"calllog" json:"calllog"`
	SMS              bool `yaml:"sms" json:"sms"`
	Calendar         bool `yaml:"calendar" json:"calendar"`
	Downloads        bool `yaml:"downloads" json:"downloads"`
	BrowserProviders bool `yaml:"browser_providers" json:"browser_providers"`
	SystemDumps      bool `yaml:"system_dumps" json:"system_dumps"`
	Network          bool `yaml:"network" json:"network"`
	Logcat           bool `yaml:"logcat" json:"logcat"`
	Bugreport        bool `yaml:"bugreport" json:"bugreport"`
	AdbBackup        bool `yaml:"adb_backup" json:"adb_backup"`
	Packages         bool `yaml:"packages" json:"packages"`
	APKs             bool `yaml:"apks" json:"apks"`
	CoreDatabases    bool `yaml:"core_databases" json:"core_databases"`
	Gmail            bool `yaml:"gmail" json:"gmail"`
	Chrome           bool `yaml:"chrome" json:"chrome"`
	WifiFiles        bool `yaml:"wifi_files" json:"wifi_files"`
	UsageStats       bool `yaml:"usagestats" json:"usagestats"`
	PrivateAppData   bool `yaml:"private_app_data" json:"private_app_data"`
	ExternalAppData  bool `yaml:"external_app_data" json:"external_app_data"`
	WhatsApp         bool `yaml:"whatsapp" json:"whatsapp"`
	Media            bool `yaml:"media" json:"media"`
	ExifInventory    bool `yaml:"exif_inventory" json:"exif_inventory"`
	UserdataImage    bool `yaml:"userdata_image" json:"userdata_image"`
}

// ExtraArtifact declares an additional artifact in the configuration file.
type ExtraArtifact struct {
	ID                   string   `yaml:"id" json:"id"`
	Category             string   `yaml:"category" json:"category"`
	Mode                 string   `yaml:"mode" json:"mode"`
	Dest                 string   `yaml:"dest" json:"dest"`
	Candidates           []string `yaml:"candidates" json:"candidates"`
	RequiresConfirmation bool     `yaml:"requires_confirmation" json:"requires_confirmation"`
	Description          string   `yaml:"description" json:"description"`
}

// Config is the configuration of one run. It is passed by value and never
// shared between runs.
type Config struct {
	Root                    string          `yaml:"root" json:"root"`
	Tier                    Tier            `yaml:"tier" json:"tier"`
	Case                    string          `yaml:"case" json:"case"`
	Serial                  string          `yaml:"serial" json:"serial"`
	AdbPath                 string          `yaml:"adb_path" json:"adb_path"`
	CommandTimeout          time.Duration   `yaml:"command_timeout" json:"command_timeout"`
	BlockSize               string          `yaml:"block_size" json:"block_size"`
	ConfirmHeavy            bool            `yaml:"confirm_heavy" json:"confirm_heavy"`
	LogLevel                string          `yaml:"log_level" json:"log_level"`
	Artifacts               Options         `yaml:"artifacts" json:"artifacts"`
	CriticalPackages        []string        `yaml:"critical_packages" json:"critical_packages"`
	UserdataBlockCandidates []string        `yaml:"userdata_block_candidates" json:"userdata_block_candidates"`
	Extra                   []ExtraArtifact `yaml:"extra_artifacts" json:"extra_artifacts"`
}

// Default returns a fresh default configuration for the tier.
func Default(tier Tier) Config {
	cfg := Config{
		Tier:           tier,
		AdbPath:        "adb",
		CommandTimeout: 5 * time.Minute,
		BlockSize:      "4M",
		LogLevel:       "info",
		Artifacts: Options{
			Contacts:         true,
			CallLog:          true,
			SMS:              true,
			Calendar:         true,
			Downloads:        true,
			BrowserProviders: true,
			SystemDumps:      true,
			Network:          true,
			Logcat:           true,
			Packages:         true,
		},
		CriticalPackages: []string{
			"com.whatsapp",
			"org.telegram.messenger",
			"com.android.chrome",
			"com.google.android.gm",
			"com.facebook.katana",
			"com.instagram.android",
		},
		UserdataBlockCandidates: []string{
			"/dev/block/bootdevice/by-name/userdata",
			"/dev/block/by-name/userdata",
			"/dev/block/platform/bootdevice/by-name/userdata",
		},
	}
	if tier == Root {
		cfg.Artifacts.CoreDatabases = true
		cfg.Artifacts.Gmail = true
		cfg.Artifacts.Chrome = true
		cfg.Artifacts.WifiFiles = true
		cfg.Artifacts.UsageStats = true
		cfg.Artifacts.WhatsApp = true
		cfg.Artifacts.ExifInventory = true
	}
	return cfg
}

// Load reads a YAML configuration file on top of the tier defaults.
func Load(path string) (Config, error) {
	b, err := ioutil.ReadFile(path) // #nosec
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes a YAML configuration on top of the tier defaults.
func Parse(b []byte) (Config, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return Config{}, errors.Wrap(err, "could not parse configuration")
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	if err := validateSchema(raw); err != nil {
		return Config{}, err
	}

	tier := NoRoot
	if t, ok := raw["tier"].(string); ok {
		tier = Tier(t)
	}

	cfg := Default(tier)
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "could not decode configuration")
	}
	return cfg, cfg.Validate()
}

// WithOverrides returns a copy of cfg where every non-zero field of overrides
// replaces the configured value.
func (cfg Config) WithOverrides(overrides Config) (Config, error) {
	merged := cfg.clone()
	if err := mergo.Merge(&merged, overrides, mergo.WithOverride); err != nil {
		return Config{}, err
	}
	return merged, nil
}

func (cfg Config) clone() Config {
	c := cfg
	c.CriticalPackages = append([]string(nil), cfg.CriticalPackages...)
	c.UserdataBlockCandidates = append([]string(nil), cfg.UserdataBlockCandidates...)
	c.Extra = nil
	for _, e := range cfg.Extra {
		e.Candidates = append([]string(nil), e.Candidates...)
		c.Extra = append(c.Extra, e)
	}
	return c
}

// Validate checks the configuration for misconfiguration that must abort a
// run before anything is transferred.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Root) == "" {
		return errors.Wrap(ErrInvalid, "root must not be empty")
	}
	if strings.ContainsRune(cfg.Root, 0) {
		return errors.Wrapf(ErrInvalid, "invalid root %q", cfg.Root)
	}
	if cfg.Tier != NoRoot && cfg.Tier != Root {
		return errors.Wrapf(ErrInvalid, "unknown tier %q", cfg.Tier)
	}
	if _, err := ParseBlockSize(cfg.BlockSize); err != nil {
		return err
	}
	return nil
}

// RootPath returns the cleaned absolute raw store root.
func (cfg Config) RootPath() (string, error) {
	return filepath.Abs(filepath.Clean(cfg.Root))
}

// ParseBlockSize validates a dd block size like "4M".
func ParseBlockSize(s string) (int64, error) {
	if s == "" {
		return 0, errors.Wrap(ErrInvalid, "empty block size")
	}
	multiplier := int64(1)
	switch s[len(s)-1] {
	case 'K':
		multiplier = 1 << 10
	case 'M':
		multiplier = 1 << 20
	case 'G':
		multiplier = 1 << 30
	}
	digits := s
	if multiplier != 1 {
		digits = s[:len(s)-1]
	}
	var n int64
	if _, err := fmt.Sscanf(digits, "%d", &n); err != nil || n <= 0 || fmt.Sprint(n) != digits {
		return 0, errors.Wrapf(ErrInvalid, "invalid block size %q", s)
	}
	return n * multiplier, nil
}

func validateSchema(raw map[string]interface{}) error {
	schema := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(configSchema), schema); err != nil {
		return errors.Wrap(err, "could not load configuration schema")
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}

	errs, err := schema.ValidateBytes(context.Background(), b)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		var flaws []string
		for _, verr := range errs {
			flaws = append(flaws, fmt.Sprintf("%s", verr))
		}
		return errors.Wrap(ErrInvalid, strings.Join(flaws, "; "))
	}
	return nil
}
