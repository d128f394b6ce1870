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
	"encoding/json"
	"reflect"
	"testing"
)

func jsons(t *testing.T, i interface{}) JSONElement {
	b, err := json.Marshal(i)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func Test_lower(t *testing.T) {
	type args struct {
		f interface{}
	}
	tests := []struct {
		name string
		args args
		want interface{}
	}{
		{"Map", args{map[string]interface{}{"ExportPath": "B"}}, map[string]interface{}{"export_path": "B"}},
		{"List", args{[]interface{}{"A", "B"}}, []interface{}{"A", "B"}},
		{"Hash", args{map[string]interface{}{"SHA-256": "B"}}, map[string]interface{}{"SHA-256": "B"}},
		{"Empty", args{map[string]interface{}{"Errors": []interface{}{}, "Name": ""}}, map[string]interface{}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lower(tt.args.f); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("lower() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_isEmptyValue(t *testing.T) {
	var emptyInterface *int
	tests := []struct {
		name string
		v    reflect.Value
		want bool
	}{
		{"List", reflect.ValueOf([]string{}), true},
		{"Interface", reflect.ValueOf(emptyInterface), true},
		{"Nil", reflect.ValueOf(nil), true},
		{"Zero", reflect.ValueOf(0.0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEmptyValue(tt.v); got != tt.want {
				t.Errorf("isEmptyValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_flatten(t *testing.T) {
	nested := map[string]interface{}{
		"type":   "file",
		"hashes": map[string]interface{}{"MD5": "x"},
		"errors": []interface{}{"a", "b"},
		"none":   nil,
	}
	want := map[string]interface{}{
		"type":       "file",
		"hashes.MD5": "x",
		"errors.0":   "a",
		"errors.1":   "b",
	}
	if got := flatten("", nested); !reflect.DeepEqual(got, want) {
		t.Errorf("flatten() = %v, want %v", got, want)
	}
}

func Test_jsonPath(t *testing.T) {
	if got := jsonPath("hashes.SHA-256"); got != `$."hashes"."SHA-256"` {
		t.Errorf("jsonPath() = %v", got)
	}
}

func Test_typeMap_all(t *testing.T) {
	rm := newTypeMap()
	rm.addAll("file", map[string]interface{}{"name": true})
	rm.addAll("file", map[string]interface{}{"size": true})
	want := map[string]map[string]bool{"file": {"name": true, "size": true}}
	if got := rm.all(); !reflect.DeepEqual(got, want) {
		t.Errorf("all() = %v, want %v", got, want)
	}
	if !rm.changed {
		t.Error("typeMap not changed")
	}
}

func Test_validateSchema(t *testing.T) {
	setupSchemaValidation()
	tests := []struct {
		name      string
		element   interface{}
		wantFlaws int
	}{
		{"valid", map[string]interface{}{"id": "file--920d7c41-0fef-4cf8-bce2-ead120f6b506", "type": "file", "name": "foo.txt"}, 0},
		{"invalid", map[string]interface{}{"id": "file--920d7c41-0fef-4cf8-bce2-ead120f6b506", "type": "file", "foo": "foo.txt"}, 1},
		{"no type", map[string]interface{}{"name": "foo.txt"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotFlaws, err := validateSchema(jsons(t, tt.element))
			if err != nil {
				t.Fatal(err)
			}
			if len(gotFlaws) != tt.wantFlaws {
				t.Errorf("validateSchema() = %v, want %v", gotFlaws, tt.wantFlaws)
			}
		})
	}
}
