/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package verifiable implements the Verifiable Credential and Presentation data model
// (https://www.w3.org/TR/vc-data-model) on top of DID documents.
// An Issuer creates a Credential and issues it either as a JWS (JWT credential) or as a BBS+ signed
// JSON Proof Token (JPT credential). The Holder wraps JWT credentials into a signed Presentation, or
// derives a selectively disclosed JPT presentation. The Verifier validates either form against the
// DID documents of the signers.
package verifiable

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
	util "github.com/trustbloc/did-go/doc/util/time"

	jsonutil "github.com/trustbloc/identity-go/util/json"
)

const (
	// BaseContext is the first context of every credential and presentation.
	BaseContext = "https://www.w3.org/2018/credentials/v1"

	// VCType is the base type of a Verifiable Credential.
	VCType = "VerifiableCredential"

	// VPType is the base type of a Verifiable Presentation.
	VPType = "VerifiablePresentation"
)

// JSONObject used to store json object.
type JSONObject = jsonutil.Object

// CustomFields is a map of extra fields of a credential, presentation, issuer or subject.
type CustomFields map[string]interface{}

func stringSlice(values []interface{}) ([]string, error) {
	s := make([]string, len(values))

	for i := range values {
		t, valid := values[i].(string)
		if !valid {
			return nil, errors.New("array element is not a string")
		}

		s[i] = t
	}

	return s, nil
}

// decodeType decodes raw type(s).
//
// type can be defined as a single string value or array of strings.
func decodeType(t interface{}) ([]string, error) {
	switch rType := t.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{rType}, nil
	case []interface{}:
		types, err := stringSlice(rType)
		if err != nil {
			return nil, fmt.Errorf("types: %w", err)
		}

		return types, nil
	case []string:
		return rType, nil
	default:
		return nil, errors.New("type of unknown structure")
	}
}

// decodeContext decodes raw context(s). Only string contexts are supported.
func decodeContext(c interface{}) ([]string, error) {
	switch rContext := c.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{rContext}, nil
	case []interface{}:
		s, err := stringSlice(rContext)
		if err != nil {
			return nil, fmt.Errorf("context: %w", err)
		}

		return s, nil
	case []string:
		return rContext, nil
	default:
		return nil, errors.New("context of unknown type")
	}
}

func serializeTypes(types []string) interface{} {
	if len(types) == 1 {
		// as string
		return types[0]
	}

	return lo.ToAnySlice(types)
}

// ensureFirst returns values with base in the first position. A base found elsewhere is an error.
func ensureFirst(values []string, base string) ([]string, error) {
	switch idx := lo.IndexOf(values, base); {
	case idx == 0:
		return values, nil
	case idx > 0:
		return nil, fmt.Errorf("%q must be the first entry", base)
	default:
		return append([]string{base}, values...), nil
	}
}

func parseStringFld(obj JSONObject, fldName string) (string, error) {
	jsonStr := obj[fldName]

	if jsonStr == nil {
		return "", nil
	}

	switch str := jsonStr.(type) {
	case string:
		return str, nil

	default:
		return "", fmt.Errorf("field %q should be string, instead got '%v'", fldName, jsonStr)
	}
}

func parseTimeFld(obj JSONObject, fldName string) (*util.TimeWrapper, error) {
	jsonTime := obj[fldName]

	if jsonTime == nil {
		return nil, nil
	}

	timeStr, ok := jsonTime.(string)
	if !ok {
		return nil, fmt.Errorf("field %q should be string, instead got '%v'", fldName, jsonTime)
	}

	t, err := util.ParseTimeWrapper(timeStr)
	if err != nil {
		return nil, fmt.Errorf("field %q contains invalid time value '%v': %w", fldName, jsonTime, err)
	}

	return t, nil
}

func parseBoolFld(obj JSONObject, fldName string) (bool, error) {
	switch v := obj[fldName].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	default:
		return false, fmt.Errorf("field %q should be boolean, instead got '%v'", fldName, v)
	}
}

// numericDateHook decodes numbers of JWT claims maps into jwt.NumericDate.
func numericDateHook() mapstructure.DecodeHookFuncType {
	numericDateType := reflect.TypeOf(jwt.NumericDate(0))

	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != numericDateType {
			return data, nil
		}

		var seconds float64

		switch v := data.(type) {
		case float64:
			seconds = v
		case int64:
			seconds = float64(v)
		default:
			if f.Kind() != reflect.String {
				return data, nil
			}

			parsed, err := strconv.ParseFloat(fmt.Sprint(data), 64)
			if err != nil {
				return nil, err
			}

			seconds = parsed
		}

		return *jwt.NewNumericDate(time.Unix(int64(seconds), 0)), nil
	}
}

func newClaimsDecoder(result interface{}) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       numericDateHook(),
	})
}

func toTimeWrapper(d *jwt.NumericDate) *util.TimeWrapper {
	if d == nil {
		return nil
	}

	return util.NewTime(d.Time().UTC())
}

func toNumericDate(t *util.TimeWrapper) *jwt.NumericDate {
	if t == nil {
		return nil
	}

	return jwt.NewNumericDate(t.Time)
}
