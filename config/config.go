// Package config loads the optional .treeline.hcl settings file. The
// file carries durable per-checkout preferences; flags and environment
// variables set on the command line override whatever it contains.
package config

import (
	"os"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/treeline-io/treeline/internal/errors"
	"github.com/treeline-io/treeline/options"
)

// DefaultFileName is the config file looked up in the working directory
// when no explicit path is given.
const DefaultFileName = ".treeline.hcl"

// Config mirrors the attributes of a .treeline.hcl file:
//
//	store_path         = ".treeline/objects"
//	user_ignore_file   = "~/.config/treeline/ignore"
//	system_ignore_file = "/etc/treeline/ignore"
//	ignore_case        = false
//	list_ignored       = false
//	concurrency        = 16
type Config struct {
	StorePath        string `hcl:"store_path,optional"`
	UserIgnoreFile   string `hcl:"user_ignore_file,optional"`
	SystemIgnoreFile string `hcl:"system_ignore_file,optional"`
	Concurrency      int    `hcl:"concurrency,optional"`
	IgnoreCase       bool   `hcl:"ignore_case,optional"`
	ListIgnored      bool   `hcl:"list_ignored,optional"`
}

// Load reads the config file at path. A missing file is not an error and
// yields the zero config; a file that exists but does not parse is.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "loading config %q", path)
	}

	return cfg, nil
}

// Apply copies the config's values onto options, filling only fields the
// CLI has not already set. Flag and env values land on opts before Apply
// runs, so they win.
func (cfg *Config) Apply(opts *options.Options) {
	if opts.StorePath == "" {
		opts.StorePath = cfg.StorePath
	}

	if opts.UserIgnoreFile == "" {
		opts.UserIgnoreFile = cfg.UserIgnoreFile
	}

	if opts.SystemIgnoreFile == "" {
		opts.SystemIgnoreFile = cfg.SystemIgnoreFile
	}

	if opts.Concurrency == 0 {
		opts.Concurrency = cfg.Concurrency
	}

	if !opts.IgnoreCase {
		opts.IgnoreCase = cfg.IgnoreCase
	}

	if !opts.ListIgnored {
		opts.ListIgnored = cfg.ListIgnored
	}
}
