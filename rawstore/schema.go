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

package rawstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/qri-io/jsonschema"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/stixgo"
)

const stixSchemaURL = "http://raw.githubusercontent.com/oasis-open/cti-stix2-json-schemas/stix2.1/schemas/observables/%s.json"

var (
	schemaOnce sync.Once

	// rewrites the draft-07 observable schemas for the draft 2019-09 validator
	draft201909 = strings.NewReplacer(
		`"definitions"`, `"$defs"`,
		`"#/definitions/`, `"#/$defs/`,
		`"$schema": "http://json-schema.org/draft-07/schema#",`, `"$schema": "https://json-schema.org/draft/2019-09/schema#",`,
	)
)

func loadSchema(name string, content []byte) *jsonschema.Schema {
	schema := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(draft201909.Replace(string(content))), schema); err != nil {
		logrus.WithError(err).WithField("schema", name).Warn("could not load schema")
		return nil
	}
	id, ok := schema.JSONProp("$id").(*jsonschema.ID)
	if !ok || id == nil {
		return nil
	}
	schema.Resolve(nil, string(*id))
	return schema
}

// setupSchemaValidation registers the STIX observable schemas once per
// process.
func setupSchemaValidation() {
	schemaOnce.Do(func() {
		registry := jsonschema.GetSchemaRegistry()
		for name, content := range stixgo.FS {
			if schema := loadSchema(name, content); schema != nil {
				registry.Register(schema)
			}
		}
	})
}

// validateSchema checks element against the schema of its type. Types
// without schema are accepted.
func validateSchema(element JSONElement) ([]string, error) {
	elementType := gjson.GetBytes(element, discriminator)
	if !elementType.Exists() {
		return []string{"element needs to have a type"}, nil
	}
	schema := jsonschema.GetSchemaRegistry().GetKnown(fmt.Sprintf(stixSchemaURL, elementType.String()))
	if schema == nil {
		return nil, nil
	}

	errs, err := schema.ValidateBytes(context.Background(), element)
	if err != nil {
		return nil, err
	}
	flaws := make([]string, 0, len(errs))
	for _, keyErr := range errs {
		flaws = append(flaws, "failed to validate element: "+keyErr.Error())
	}
	return flaws, nil
}
