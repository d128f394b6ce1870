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

	"github.com/spf13/cobra"

	"github.com/forensicanalysis/androidcollector"
	"github.com/forensicanalysis/androidcollector/export"
)

// Export is the androidcollector export commandline subcommand
func Export() *cobra.Command {
	var dest, caseName, logLevel string
	var noPDF bool
	var maxRows, workers int
	exportCommand := &cobra.Command{
		Use:   "export <rawroot>",
		Short: "Normalize a raw root and write the CSV, workbook and PDF exports",
		Args:  requireRawRoot,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			report, err := androidcollector.RunExportPipeline(commandContext(cmd), args[0],
				androidcollector.WithLogger(log),
				androidcollector.WithExportDir(dest),
				androidcollector.WithCase(caseName),
				androidcollector.WithPDF(!noPDF),
				androidcollector.WithMaxRows(maxRows),
				androidcollector.WithWorkers(workers),
			)
			if err != nil {
				return err
			}
			for _, sink := range report.Sinks {
				if sink.Status == export.Failed {
					fmt.Printf("%s: %s (%s)\n", sink.Sink, sink.Status, sink.Error)
					continue
				}
				fmt.Printf("%s: %s\n", sink.Sink, sink.Status)
			}
			return nil
		},
	}
	exportCommand.Flags().StringVar(&dest, "dest", "", "export folder, defaults to 'export' next to the raw root")
	exportCommand.Flags().StringVar(&caseName, "case", "", "case name shown in the workbook")
	exportCommand.Flags().BoolVar(&noPDF, "no-pdf", false, "do not write the PDF report")
	exportCommand.Flags().IntVar(&maxRows, "max-rows", export.DefaultMaxRows, "rows per table in the PDF report")
	exportCommand.Flags().IntVar(&workers, "workers", 0, "number of tables normalized in parallel")
	exportCommand.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	return exportCommand
}
