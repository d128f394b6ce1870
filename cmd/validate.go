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
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/androidcollector/rawstore"
)

// Validate is the androidcollector validate commandline subcommand
func Validate() *cobra.Command {
	var noFail bool
	validateCommand := &cobra.Command{
		Use:   "validate <rawroot>",
		Short: "Check the custody index of a raw root against its files",
		Args:  requireRawRoot,
		RunE: func(cmd *cobra.Command, args []string) error {
			flaws, err := validate(args[0])
			if err != nil {
				return err
			}
			if len(flaws) > 0 {
				for i, v := range flaws {
					flaws[i] = strings.Replace(v, "\"", "\\\"", -1)
				}
				fmt.Printf("[\"%s\"]\n", strings.Join(flaws, "\", \""))
				if noFail {
					return nil
				}
				return errors.Errorf("%d flaws found", len(flaws))
			}
			return nil
		},
	}
	validateCommand.Flags().BoolVar(&noFail, "no-fail", false, "return exit code 0")
	return validateCommand
}

func validate(root string) ([]string, error) {
	store, err := rawstore.Open(root)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Validate()
}
