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

// Package cmd implements the androidcollector commandline subcommands.
package cmd

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Root returns the androidcollector command with all subcommands.
func Root() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "androidcollector",
		Short:         "Acquire and export forensic artifacts of Android devices",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(Acquire(), Export(), Validate(), Report(), Pack(), Unpack(), Ls())
	return rootCmd
}

func newLogger(level string) (*logrus.Logger, error) {
	log := logrus.New()
	if level == "" {
		return log, nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)
	return log, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func requireRawRoot(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("requires exactly one raw root")
	}
	info, err := os.Stat(args[0])
	if os.IsNotExist(err) {
		return errors.Wrap(os.ErrNotExist, args[0])
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", args[0])
	}
	return nil
}
