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

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/androidcollector/acquisition"
)

// Report is the androidcollector report commandline subcommand
func Report() *cobra.Command {
	var failedOnly bool
	reportCommand := &cobra.Command{
		Use:   "report <rawroot>",
		Short: "Show the acquisition report of a raw root",
		Args:  requireRawRoot,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := acquisition.LoadReport(afero.NewBasePathFs(afero.NewOsFs(), args[0]))
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Artifact", "Category", "Status", "Size", "Source"})
			table.SetAutoWrapText(false)
			for _, result := range report.Results {
				if failedOnly && result.Status != acquisition.Failed {
					continue
				}
				detail := result.Source
				if result.Status != acquisition.Succeeded && result.ErrorKind != "" {
					detail = fmt.Sprintf("%s: %s", result.ErrorKind, result.ErrorDetail)
				}
				size := ""
				if result.Status == acquisition.Succeeded {
					size = humanize.Bytes(uint64(result.Bytes))
				}
				table.Append([]string{result.ArtifactID, string(result.Category), string(result.Status), size, detail})
			}
			table.Render()
			printSummary(report)
			return nil
		},
	}
	reportCommand.Flags().BoolVar(&failedOnly, "failed", false, "only list failed artifacts")
	return reportCommand
}
