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
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/androidcollector/sqlar"
)

// Pack is the androidcollector pack commandline subcommand
func Pack() *cobra.Command {
	var spoolDir string
	packCommand := &cobra.Command{
		Use:   "pack <archive> <rawroot>",
		Short: "Add a raw root to a sqlite archive",
		Args:  cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireRawRoot(cmd, args[1:]); err != nil {
				return err
			}
			var opts []sqlar.Option
			if spoolDir != "" {
				opts = append(opts, sqlar.WithSpool(sqlar.DefaultSpoolSize, spoolDir))
			}
			archive, err := sqlar.New(args[0], opts...)
			if err != nil {
				return err
			}
			defer archive.Close()

			summary, err := archive.Pack(commandContext(cmd), afero.NewBasePathFs(afero.NewOsFs(), args[1]))
			if err != nil {
				return err
			}
			for _, skipped := range summary.Skipped {
				fmt.Println("skipped", skipped)
			}
			fmt.Printf("packed %d files (%s)\n", summary.Files, humanize.Bytes(uint64(summary.Bytes)))
			return nil
		},
	}
	packCommand.Flags().StringVar(&spoolDir, "spool-dir", "", "folder for temporary files of large artifacts")
	return packCommand
}

// Unpack is the androidcollector unpack commandline subcommand
func Unpack() *cobra.Command {
	var noValidate bool
	unpackCommand := &cobra.Command{
		Use:   "unpack <archive> <dest>",
		Short: "Extract a sqlite archive into a folder",
		Args:  cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := sqlar.Open(args[0])
			if err != nil {
				return err
			}
			defer archive.Close()

			if err := os.MkdirAll(args[1], 0750); err != nil {
				return err
			}
			summary, err := archive.Unpack(commandContext(cmd), afero.NewBasePathFs(afero.NewOsFs(), args[1]))
			if err != nil {
				return err
			}
			fmt.Printf("unpacked %d files (%s)\n", summary.Files, humanize.Bytes(uint64(summary.Bytes)))

			if noValidate {
				return nil
			}
			flaws, err := validate(args[1])
			if err != nil {
				return err
			}
			for _, flaw := range flaws {
				fmt.Println("flaw", flaw)
			}
			return nil
		},
	}
	unpackCommand.Flags().BoolVar(&noValidate, "no-validate", false, "do not check the custody index after extraction")
	return unpackCommand
}

// Ls is the androidcollector ls commandline subcommand
func Ls() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <archive>",
		Short: "List files in the sqlite archive",
		Args:  cobra.ExactArgs(1), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := sqlar.Open(args[0])
			if err != nil {
				return err
			}
			defer archive.Close()

			entries, err := archive.List()
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if entry.Mode.IsDir() {
					fmt.Printf("%s %8s %s\n", entry.Mode, "-", filepath.ToSlash(entry.Name)+"/")
					continue
				}
				fmt.Printf("%s %8s %s\n", entry.Mode, humanize.Bytes(uint64(entry.Size)), filepath.ToSlash(entry.Name))
			}
			return nil
		},
	}
}
