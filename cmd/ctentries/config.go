// Copyright (C) 2025 Opsmate, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla
// Public License, v. 2.0. If a copy of the MPL was not distributed
// with this file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// This software is distributed WITHOUT A WARRANTY OF ANY KIND.
// See the Mozilla Public License for details.

package main

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

type Config struct {
	LogURL        string
	InputFile     string
	Start         uint64
	End           uint64 // inclusive
	BatchSize     uint64
	ParallelFetch int
	DecodeWorkers int
	RequestRate   float64
	MalformedDir  string
	Verbose       bool
}

const envPrefix = "CTENTRIES_"

var defaults = map[string]any{
	"log":            "",
	"input":          "",
	"start":          0,
	"end":            0,
	"batch_size":     1000,
	"parallel_fetch": 2,
	"decode_workers": 1,
	"rate":           0,
	"malformed_dir":  "",
	"verbose":        false,
}

// loadConfig merges, from lowest to highest precedence: defaults, CTENTRIES_*
// environment variables, the file named by --config, and command-line flags.
func loadConfig(args []string) (*Config, error) {
	app := kingpin.New("ctentries", "Download and decode entries from an RFC 6962 Certificate Transparency log.")
	app.HelpFlag.Short('h')
	configFile := app.Flag("config", "Configuration file (YAML, TOML, or JSON)").Short('c').ExistingFile()
	flagValues := map[string]*string{
		"log":            app.Flag("log", "URL of the RFC 6962 log").String(),
		"input":          app.Flag("input", "Decode a saved get-entries response from this file (- for stdin) instead of contacting a log").String(),
		"start":          app.Flag("start", "Index of the first entry").String(),
		"end":            app.Flag("end", "Index of the last entry (inclusive; ignored with --input)").String(),
		"batch_size":     app.Flag("batch_size", "Number of entries per batch").String(),
		"parallel_fetch": app.Flag("parallel_fetch", "Number of batches to download concurrently").String(),
		"decode_workers": app.Flag("decode_workers", "Number of goroutines decoding each batch").String(),
		"rate":           app.Flag("rate", "Maximum get-entries requests per second (0 for no limit)").String(),
		"malformed_dir":  app.Flag("malformed_dir", "Save entries that can't be decoded to this directory").String(),
	}
	verbose := app.Flag("verbose", "Be verbose").Short('v').Bool()
	if _, err := app.Parse(args); err != nil {
		return nil, errors.Wrap(err, "error parsing command-line arguments")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "error reading %s", *configFile)
		}
	}
	// viper ranks the environment above the config file, so apply it by hand
	// to the keys the file leaves unset.
	for key := range defaults {
		if value, ok := os.LookupEnv(envPrefix + strings.ToUpper(key)); ok && !v.InConfig(key) {
			v.Set(key, value)
		}
	}
	for key, value := range flagValues {
		if *value != "" {
			v.Set(key, *value)
		}
	}
	if *verbose {
		v.Set("verbose", true)
	}

	config := &Config{
		LogURL:       v.GetString("log"),
		InputFile:    v.GetString("input"),
		MalformedDir: v.GetString("malformed_dir"),
	}
	var err error
	if config.Start, err = cast.ToUint64E(v.Get("start")); err != nil {
		return nil, errors.Wrap(err, "invalid start")
	}
	if config.End, err = cast.ToUint64E(v.Get("end")); err != nil {
		return nil, errors.Wrap(err, "invalid end")
	}
	if config.BatchSize, err = cast.ToUint64E(v.Get("batch_size")); err != nil {
		return nil, errors.Wrap(err, "invalid batch_size")
	}
	if config.ParallelFetch, err = cast.ToIntE(v.Get("parallel_fetch")); err != nil {
		return nil, errors.Wrap(err, "invalid parallel_fetch")
	}
	if config.DecodeWorkers, err = cast.ToIntE(v.Get("decode_workers")); err != nil {
		return nil, errors.Wrap(err, "invalid decode_workers")
	}
	if config.RequestRate, err = cast.ToFloat64E(v.Get("rate")); err != nil {
		return nil, errors.Wrap(err, "invalid rate")
	}
	if config.Verbose, err = cast.ToBoolE(v.Get("verbose")); err != nil {
		return nil, errors.Wrap(err, "invalid verbose")
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (config *Config) validate() error {
	if config.InputFile == "" {
		if config.LogURL == "" {
			return fmt.Errorf("a log URL (--log or CTENTRIES_LOG) or --input must be specified")
		}
		if config.End == math.MaxUint64 {
			return fmt.Errorf("end must be less than %d", uint64(math.MaxUint64))
		}
		if config.End < config.Start {
			return fmt.Errorf("end (%d) is less than start (%d)", config.End, config.Start)
		}
	}
	if config.BatchSize == 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if config.ParallelFetch < 1 {
		return fmt.Errorf("parallel_fetch must be positive")
	}
	return nil
}
