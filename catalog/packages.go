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

package catalog

import (
	"bufio"
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/forensicanalysis/androidcollector/bridge"
)

// the path may contain '=' on recent releases, the package name never does
var packageLine = regexp.MustCompile(`^package:(?P<path>.+)=(?P<pkg>[^=\s]+)$`)

// InstalledPackage is one line of "pm list packages -f".
type InstalledPackage struct {
	Name    string
	APKPath string
}

// ParsePackageList parses the output of "pm list packages -f". Lines that do
// not match are ignored.
func ParsePackageList(out string) []InstalledPackage {
	var packages []InstalledPackage
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		m := packageLine.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		packages = append(packages, InstalledPackage{
			APKPath: m[packageLine.SubexpIndex("path")],
			Name:    m[packageLine.SubexpIndex("pkg")],
		})
	}
	return packages
}

// PackageSpecs lists the installed packages on the device and returns one
// single file spec per APK, stored as apps/apks/<package>.apk.
func PackageSpecs(ctx context.Context, b bridge.CommandBridge, enabled bool) ([]ArtifactSpec, error) {
	res, err := b.Execute(ctx, []string{"pm", "list", "packages", "-f"})
	if err != nil {
		return nil, errors.Wrap(err, "could not list packages")
	}
	if !res.Success() {
		return nil, errors.Errorf("pm list packages failed with %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	var specs []ArtifactSpec
	seen := map[string]bool{}
	for _, pkg := range ParsePackageList(res.Stdout) {
		if seen[pkg.Name] {
			continue
		}
		seen[pkg.Name] = true
		specs = append(specs, file(Apps, "apk_"+pkg.Name, "apks/"+pkg.Name+".apk", enabled, pkg.APKPath))
	}
	return specs, nil
}
