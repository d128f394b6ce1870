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
	"sort"

	"github.com/pkg/errors"

	"github.com/forensicanalysis/androidcollector/config"
)

// ErrMisconfigured marks catalog errors that abort a run before any transfer.
var ErrMisconfigured = errors.New("catalog misconfigured")

// ErrEmpty is returned for a catalog without artifacts.
var ErrEmpty = errors.Wrap(ErrMisconfigured, "empty catalog")

// Catalog is an immutable list of artifact specs.
type Catalog struct {
	specs []ArtifactSpec
}

// New validates the specs and creates a catalog.
func New(specs ...ArtifactSpec) (*Catalog, error) {
	if len(specs) == 0 {
		return nil, ErrEmpty
	}
	seen := map[string]bool{}
	destinations := map[string]string{}
	c := &Catalog{}
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		if seen[spec.id] {
			return nil, errors.Wrapf(ErrMisconfigured, "duplicate artifact %s", spec.id)
		}
		seen[spec.id] = true
		if other, ok := destinations[spec.RelPath()]; ok {
			return nil, errors.Wrapf(ErrMisconfigured, "%s and %s share destination %s", other, spec.id, spec.RelPath())
		}
		destinations[spec.RelPath()] = spec.id
		c.specs = append(c.specs, spec.clone())
	}
	return c, nil
}

// Len returns the number of specs.
func (c *Catalog) Len() int { return len(c.specs) }

// Specs returns a copy of all specs in declaration order.
func (c *Catalog) Specs() []ArtifactSpec {
	specs := make([]ArtifactSpec, 0, len(c.specs))
	for _, spec := range c.specs {
		specs = append(specs, spec.clone())
	}
	return specs
}

// Ordered returns the specs grouped by category in acquisition order,
// keeping the declaration order within a category.
func (c *Catalog) Ordered() []ArtifactSpec {
	specs := c.Specs()
	sort.SliceStable(specs, func(i, j int) bool {
		return specs[i].category.order() < specs[j].category.order()
	})
	return specs
}

// Get returns the spec with the given id.
func (c *Catalog) Get(id string) (ArtifactSpec, bool) {
	for _, spec := range c.specs {
		if spec.id == id {
			return spec.clone(), true
		}
	}
	return ArtifactSpec{}, false
}

// Extend returns a new catalog with additional specs.
func (c *Catalog) Extend(specs ...ArtifactSpec) (*Catalog, error) {
	return New(append(c.Specs(), specs...)...)
}

// Build creates the default catalog for the configured tier including the
// extra artifacts of the configuration.
func Build(cfg config.Config) (*Catalog, error) {
	var specs []ArtifactSpec
	switch cfg.Tier {
	case config.NoRoot:
		specs = noRootSpecs(cfg)
	case config.Root:
		specs = rootSpecs(cfg)
	default:
		return nil, errors.Wrapf(ErrMisconfigured, "unknown tier %q", cfg.Tier)
	}

	for _, extra := range cfg.Extra {
		spec := NewArtifactSpec(extra.ID, Category(extra.Category), Mode(extra.Mode), extra.Dest, extra.Candidates...).
			WithDescription(extra.Description)
		if extra.RequiresConfirmation {
			spec = spec.WithConfirmation()
		}
		specs = append(specs, spec)
	}
	return New(specs...)
}
