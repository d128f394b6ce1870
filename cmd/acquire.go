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

package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/androidcollector"
	"github.com/forensicanalysis/androidcollector/acquisition"
	"github.com/forensicanalysis/androidcollector/bridge"
	"github.com/forensicanalysis/androidcollector/config"
)

// Acquire is the androidcollector acquire commandline subcommand
func Acquire() *cobra.Command {
	var configFile, tier string
	var yes, confirmHeavy bool
	var overrides config.Config
	acquireCommand := &cobra.Command{
		Use:   "acquire",
		Short: "Acquire artifacts from a connected device into a raw root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var confirmOverride *bool
			if cmd.Flags().Changed("confirm-heavy") {
				confirmOverride = &confirmHeavy
			}
			cfg, err := loadConfig(configFile, tier, overrides, confirmOverride)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}

			adb := bridge.NewAdb(cfg.AdbPath, cfg.Serial, cfg.CommandTimeout)
			adb.Log = log

			// without --yes heavyweight captures are skipped when confirm_heavy is set
			var confirm acquisition.ConfirmFunc
			if yes {
				confirm = acquisition.ConfirmAll
			}

			events := make(chan acquisition.ProgressEvent, 64)
			done := make(chan struct{})
			go func() {
				defer close(done)
				for event := range events {
					logEvent(log, event)
				}
			}()

			report, err := androidcollector.RunAcquisition(commandContext(cmd), cfg, adb,
				androidcollector.WithLogger(log),
				androidcollector.WithEvents(events),
				androidcollector.WithConfirm(confirm),
			)
			close(events)
			<-done
			if err != nil {
				return err
			}
			printSummary(report)
			return nil
		},
	}
	acquireCommand.Flags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	acquireCommand.Flags().StringVar(&tier, "tier", "", "acquisition tier, noroot or root")
	acquireCommand.Flags().StringVar(&overrides.Root, "root", "", "raw root folder")
	acquireCommand.Flags().StringVar(&overrides.Serial, "serial", "", "serial of the device")
	acquireCommand.Flags().StringVar(&overrides.AdbPath, "adb", "", "path of the adb binary")
	acquireCommand.Flags().StringVar(&overrides.Case, "case", "", "case name")
	acquireCommand.Flags().StringVar(&overrides.LogLevel, "log-level", "", "log level")
	acquireCommand.Flags().BoolVar(&confirmHeavy, "confirm-heavy", false, "ask before heavyweight captures, overrides the configuration file")
	acquireCommand.Flags().BoolVarP(&yes, "yes", "y", false, "acquire heavyweight captures that require confirmation")
	return acquireCommand
}

// loadConfig reads the configuration file or the defaults of the tier and
// applies the commandline overrides. confirmHeavy is nil unless the flag was
// given, so an explicit false wins over the file.
func loadConfig(configFile, tier string, overrides config.Config, confirmHeavy *bool) (config.Config, error) {
	var cfg config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	} else {
		t := config.NoRoot
		if tier != "" {
			t = config.Tier(tier)
		}
		cfg = config.Default(t)
	}
	overrides.Tier = config.Tier(tier)

	cfg, err := cfg.WithOverrides(overrides)
	if err != nil {
		return config.Config{}, err
	}
	if confirmHeavy != nil {
		cfg.ConfirmHeavy = *confirmHeavy
	}
	return cfg, cfg.Validate()
}

// logEvent logs intermediate progress. Final states are logged by the
// orchestrator.
func logEvent(log logrus.FieldLogger, event acquisition.ProgressEvent) {
	if event.Final() {
		return
	}
	log.WithFields(logrus.Fields{"artifact": event.ArtifactID, "state": event.State}).Debug("progress")
}

func printSummary(report *acquisition.Report) {
	fmt.Printf("%d succeeded, %d failed, %d skipped, %s transferred to %s\n",
		report.Count(acquisition.Succeeded), report.Count(acquisition.Failed),
		report.Count(acquisition.Skipped), humanize.Bytes(uint64(report.Bytes())), report.RawRoot)
}
