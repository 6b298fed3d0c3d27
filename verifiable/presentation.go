/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"

	jsonutil "github.com/trustbloc/identity-go/util/json"
)

const (
	jsonFldHolder      = "holder"
	jsonFldCredentials = "verifiableCredential"
)

var presentationFields = []string{jsonFldContext, jsonFldID, jsonFldType, jsonFldHolder, jsonFldCredentials}

// Presentation Verifiable Presentation wrapping JWT credentials.
type Presentation struct {
	Context []string
	ID      string
	Types   []string
	Holder  string
	// Credentials are compact JWT credentials.
	Credentials  []string
	CustomFields CustomFields
}

// NewPresentation creates a presentation with the base context and type, and a random urn:uuid id.
func NewPresentation(holder string, credentials ...string) *Presentation {
	return &Presentation{
		Context:     []string{BaseContext},
		ID:          uuidURNPrefix + uuid.NewString(),
		Types:       []string{VPType},
		Holder:      holder,
		Credentials: credentials,
	}
}

// MarshalJSON converts Verifiable Presentation to JSON bytes.
func (vp *Presentation) MarshalJSON() ([]byte, error) {
	raw, err := vp.raw()
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("JSON marshalling of verifiable presentation: %w", err)
	}

	return b, nil
}

func (vp *Presentation) validate() error {
	switch {
	case len(vp.Context) == 0 || vp.Context[0] != BaseContext:
		return fmt.Errorf("%w: %q must be the first context", ErrInvalidStructure, BaseContext)
	case !lo.Contains(vp.Types, VPType):
		return fmt.Errorf("%w: type %q is missing", ErrInvalidStructure, VPType)
	case vp.Holder == "":
		return fmt.Errorf("%w: holder is not defined", ErrInvalidStructure)
	}

	return nil
}

func (vp *Presentation) raw() (JSONObject, error) {
	if err := vp.validate(); err != nil {
		return nil, err
	}

	for name := range vp.CustomFields {
		if lo.Contains(presentationFields, name) {
			return nil, fmt.Errorf("%w: custom field %q shadows a presentation field", ErrInvalidStructure, name)
		}
	}

	raw := JSONObject{
		jsonFldContext: serializeContext(vp.Context),
		jsonFldType:    serializeTypes(vp.Types),
		jsonFldHolder:  vp.Holder,
	}

	if vp.ID != "" {
		raw[jsonFldID] = vp.ID
	}

	if len(vp.Credentials) > 0 {
		raw[jsonFldCredentials] = lo.ToAnySlice(vp.Credentials)
	}

	jsonutil.AddCustomFields(raw, JSONObject(copyCustomFields(vp.CustomFields)))

	return raw, nil
}

func parsePresentationJSON(raw JSONObject) (*Presentation, error) {
	context, err := decodeContext(raw[jsonFldContext])
	if err != nil {
		return nil, fmt.Errorf("fill presentation context from raw: %w", err)
	}

	types, err := decodeType(raw[jsonFldType])
	if err != nil {
		return nil, fmt.Errorf("fill presentation types from raw: %w", err)
	}

	id, err := parseStringFld(raw, jsonFldID)
	if err != nil {
		return nil, fmt.Errorf("fill presentation id from raw: %w", err)
	}

	holder, err := parseStringFld(raw, jsonFldHolder)
	if err != nil {
		return nil, fmt.Errorf("fill presentation holder from raw: %w", err)
	}

	credentials, err := decodeCredentialTokens(raw[jsonFldCredentials])
	if err != nil {
		return nil, fmt.Errorf("fill presentation credentials from raw: %w", err)
	}

	vp := &Presentation{
		Context:      context,
		ID:           id,
		Types:        types,
		Holder:       holder,
		Credentials:  credentials,
		CustomFields: CustomFields(jsonutil.CopyExcept(raw, presentationFields...)),
	}

	if len(vp.CustomFields) == 0 {
		vp.CustomFields = nil
	}

	if err := vp.validate(); err != nil {
		return nil, err
	}

	return vp, nil
}

// decodeCredentialTokens decodes the embedded credentials. Only compact JWT credentials are supported.
func decodeCredentialTokens(raw interface{}) ([]string, error) {
	switch creds := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{creds}, nil
	case []interface{}:
		tokens, err := stringSlice(creds)
		if err != nil {
			return nil, errors.New("only JWT credentials are supported")
		}

		return tokens, nil
	default:
		return nil, errors.New("only JWT credentials are supported")
	}
}
