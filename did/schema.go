/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id"],
  "properties": {
    "@context": {
      "oneOf": [
        {"type": "string"},
        {"type": "array", "items": {"oneOf": [{"type": "string"}, {"type": "object"}]}}
      ]
    },
    "id": {"type": "string", "pattern": "^did:"},
    "controller": {
      "oneOf": [
        {"type": "string", "pattern": "^did:"},
        {"type": "array", "items": {"type": "string", "pattern": "^did:"}}
      ]
    },
    "alsoKnownAs": {"type": "array", "items": {"type": "string"}},
    "verificationMethod": {"type": "array", "items": {"$ref": "#/definitions/method"}},
    "authentication": {"$ref": "#/definitions/relationship"},
    "assertionMethod": {"$ref": "#/definitions/relationship"},
    "keyAgreement": {"$ref": "#/definitions/relationship"},
    "capabilityInvocation": {"$ref": "#/definitions/relationship"},
    "capabilityDelegation": {"$ref": "#/definitions/relationship"},
    "service": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "serviceEndpoint"],
        "properties": {
          "id": {"type": "string"},
          "type": {"oneOf": [{"type": "string"}, {"type": "array", "items": {"type": "string"}}]}
        }
      }
    },
    "meta": {"type": "object"}
  },
  "definitions": {
    "method": {
      "type": "object",
      "required": ["id", "type", "controller"],
      "properties": {
        "id": {"type": "string"},
        "type": {"type": "string"},
        "controller": {"type": "string"},
        "publicKeyJwk": {"type": "object"},
        "publicKeyMultibase": {"type": "string"}
      },
      "oneOf": [
        {"required": ["publicKeyJwk"]},
        {"required": ["publicKeyMultibase"]}
      ]
    },
    "relationship": {
      "type": "array",
      "items": {"oneOf": [{"type": "string"}, {"$ref": "#/definitions/method"}]}
    }
  }
}
`

// nolint: gochecknoglobals
var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

func validateSchema(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(errs, "; "))
	}

	return nil
}
