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
	"fmt"
	"reflect"
	"strconv"

	"github.com/stoewer/go-strcase"
)

var hashNames = map[string]bool{
	"MD5":     true,
	"SHA-1":   true,
	"SHA-256": true,
	"SHA-512": true,
}

// lower converts the keys of a struct map to snake case. Hash names and
// empty values are kept as they are or dropped respectively.
func lower(f interface{}) interface{} {
	switch f := f.(type) {
	case []interface{}:
		for i := range f {
			if !isEmptyValue(reflect.ValueOf(f[i])) {
				f[i] = lower(f[i])
			}
		}
		return f
	case map[string]interface{}:
		lf := make(map[string]interface{}, len(f))
		for k, v := range f {
			if !isEmptyValue(reflect.ValueOf(v)) {
				if hashNames[k] {
					lf[k] = lower(v)
				} else {
					lf[strcase.SnakeCase(k)] = lower(v)
				}
			}
		}
		return lf
	default:
		return f
	}
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	case reflect.Invalid:
		return true
	}
	return false
}

// flatten returns a one level deep map with dotted keys.
func flatten(prefix string, nested interface{}) map[string]interface{} {
	flatmap := map[string]interface{}{}
	key := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}

	switch value := nested.(type) {
	case nil:
	case map[string]interface{}:
		for k, v := range value {
			for fk, fv := range flatten(key(k), v) {
				flatmap[fk] = fv
			}
		}
	case []interface{}:
		for i, v := range value {
			for fk, fv := range flatten(key(strconv.Itoa(i)), v) {
				flatmap[fk] = fv
			}
		}
	default:
		if prefix == "" {
			prefix = fmt.Sprint(nested)
		}
		flatmap[prefix] = nested
	}
	return flatmap
}
