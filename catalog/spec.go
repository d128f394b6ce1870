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

// Package catalog declares the artifacts an acquisition tries to collect.
//
// An ArtifactSpec names an artifact, the category folder it is stored in, the
// candidate sources on the device tried in order, the transfer mode and whether
// the artifact is enabled. A Catalog is an immutable, validated list of specs.
package catalog

import (
	"path"
	"strings"

	"github.com/pkg/errors"
)

// Mode is the way an artifact is transferred from the device.
type Mode string

const (
	// SingleFile streams one remote file.
	SingleFile Mode = "single-file-stream"
	// DirectoryArchive streams a remote directory as an uncompressed tar.
	DirectoryArchive Mode = "directory-archive-stream"
	// LogicalQuery captures the stdout of a command.
	LogicalQuery Mode = "logical-query"
	// BlockCopy images a block device.
	BlockCopy Mode = "block-copy"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case SingleFile, DirectoryArchive, LogicalQuery, BlockCopy:
		return true
	}
	return false
}

// Category is the top level folder of the raw artifact layout.
type Category string

// The categories of the raw artifact layout.
const (
	Logical   Category = "logical"
	System    Category = "system"
	Apps      Category = "apps"
	Media     Category = "media"
	Images    Category = "images"
	Databases Category = "databases"
)

// Categories lists all categories in acquisition order. Cheap textual
// artifacts come first, block images last.
var Categories = []Category{Logical, System, Databases, Apps, Media, Images}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) order() int {
	for i, known := range Categories {
		if c == known {
			return i
		}
	}
	return len(Categories)
}

// ArtifactSpec describes one artifact. The zero value is invalid, use
// NewArtifactSpec. Specs are values, the With* methods return modified copies.
type ArtifactSpec struct {
	id                   string
	category             Category
	mode                 Mode
	dest                 string
	candidates           []string
	enabled              bool
	requiresConfirmation bool
	description          string
}

// NewArtifactSpec creates an enabled spec.
func NewArtifactSpec(id string, category Category, mode Mode, dest string, candidates ...string) ArtifactSpec {
	return ArtifactSpec{
		id:         id,
		category:   category,
		mode:       mode,
		dest:       dest,
		candidates: append([]string(nil), candidates...),
		enabled:    true,
	}
}

func (s ArtifactSpec) ID() string         { return s.id }
func (s ArtifactSpec) Category() Category { return s.category }
func (s ArtifactSpec) Mode() Mode         { return s.mode }
func (s ArtifactSpec) Dest() string       { return s.dest }
func (s ArtifactSpec) Enabled() bool      { return s.enabled }

// Candidates returns a copy of the ordered candidate sources.
func (s ArtifactSpec) Candidates() []string {
	return append([]string(nil), s.candidates...)
}

// RequiresConfirmation reports whether the artifact is only collected after
// an explicit confirmation, e.g. for captures that take hours.
func (s ArtifactSpec) RequiresConfirmation() bool { return s.requiresConfirmation }

func (s ArtifactSpec) Description() string { return s.description }

// RelPath returns the slash separated path in the raw store.
func (s ArtifactSpec) RelPath() string {
	return path.Join(string(s.category), s.dest)
}

// clone returns a copy that shares no candidate slice with s.
func (s ArtifactSpec) clone() ArtifactSpec {
	s.candidates = s.Candidates()
	return s
}

// WithEnabled returns a copy with the enabled flag set.
func (s ArtifactSpec) WithEnabled(enabled bool) ArtifactSpec {
	s = s.clone()
	s.enabled = enabled
	return s
}

// WithConfirmation returns a copy that requires confirmation.
func (s ArtifactSpec) WithConfirmation() ArtifactSpec {
	s = s.clone()
	s.requiresConfirmation = true
	return s
}

// WithDescription returns a copy with a description.
func (s ArtifactSpec) WithDescription(description string) ArtifactSpec {
	s = s.clone()
	s.description = description
	return s
}

// Validate checks a single spec.
func (s ArtifactSpec) Validate() error {
	switch {
	case s.id == "":
		return errors.Wrap(ErrMisconfigured, "artifact without id")
	case !s.category.Valid():
		return errors.Wrapf(ErrMisconfigured, "%s: unknown category %q", s.id, s.category)
	case !s.mode.Valid():
		return errors.Wrapf(ErrMisconfigured, "%s: unknown mode %q", s.id, s.mode)
	case len(s.candidates) == 0:
		return errors.Wrapf(ErrMisconfigured, "%s: no candidates", s.id)
	case s.dest == "" || strings.HasPrefix(s.dest, "/") || strings.HasSuffix(s.dest, "/"):
		return errors.Wrapf(ErrMisconfigured, "%s: invalid destination %q", s.id, s.dest)
	}
	for _, part := range strings.Split(s.dest, "/") {
		if part == ".." || part == "." || part == "" {
			return errors.Wrapf(ErrMisconfigured, "%s: invalid destination %q", s.id, s.dest)
		}
	}
	for _, candidate := range s.candidates {
		if strings.TrimSpace(candidate) == "" {
			return errors.Wrapf(ErrMisconfigured, "%s: empty candidate", s.id)
		}
	}
	return nil
}
