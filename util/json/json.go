/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package json holds helpers for claim objects represented as map[string]interface{}.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

// Object is a JSON object decoded into a generic map.
type Object = map[string]interface{}

// MergeCustomFields converts v to a JSON object and supplements it with the custom fields in cf.
// Fields that already exist in v win over custom ones.
func MergeCustomFields(v interface{}, cf Object) (Object, error) {
	obj, err := ToMap(v)
	if err != nil {
		return nil, err
	}

	AddCustomFields(obj, cf)

	return obj, nil
}

// AddCustomFields copies the custom fields cf into obj without overwriting existing keys.
func AddCustomFields(obj, cf Object) {
	for k, v := range cf {
		if _, exists := obj[k]; !exists {
			obj[k] = v
		}
	}
}

// SplitJSONObj returns the named fields and the remaining ones as two separate objects.
func SplitJSONObj(obj Object, flds ...string) (Object, Object) {
	selected, rest := Object{}, Object{}

	for k, v := range obj {
		if lo.Contains(flds, k) {
			selected[k] = v
		} else {
			rest[k] = v
		}
	}

	return selected, rest
}

// ShallowCopyObj creates a new object holding the same top-level values.
func ShallowCopyObj(obj Object) Object {
	return lo.Assign(Object{}, obj)
}

// CopyExcept copies all fields except the named ones.
func CopyExcept(obj Object, flds ...string) Object {
	return lo.OmitByKeys(obj, flds)
}

// DeepCopy copies a JSON value recursively. Only maps and slices are duplicated, scalars are shared.
func DeepCopy(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		cp := make(map[string]interface{}, len(val))
		for k, item := range val {
			cp[k] = DeepCopy(item)
		}

		return cp
	case []interface{}:
		cp := make([]interface{}, len(val))
		for i, item := range val {
			cp[i] = DeepCopy(item)
		}

		return cp
	default:
		return val
	}
}

// ToMap converts a struct, JSON string or JSON bytes into an object. Numbers are kept as json.Number so
// that re-encoding reproduces the original representation.
func ToMap(v interface{}) (Object, error) {
	var (
		b   []byte
		err error
	)

	switch cv := v.(type) {
	case map[string]interface{}:
		return cv, nil
	case []byte:
		b = cv
	case string:
		b = []byte(cv)
	default:
		b, err = json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal %T: %w", v, err)
		}
	}

	var m Object

	if err := Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("convert to map: %w", err)
	}

	return m, nil
}

// Unmarshal decodes data into v keeping numbers as json.Number.
func Unmarshal(data []byte, v interface{}) error {
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()

	return d.Decode(v)
}
