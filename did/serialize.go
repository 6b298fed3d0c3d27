/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ContextV1 is the DID Core JSON-LD context.
const ContextV1 = "https://www.w3.org/ns/did/v1"

// ErrInvalidDocument is returned when a serialized document is not a valid DID document.
var ErrInvalidDocument = errors.New("invalid DID document")

type rawDocument struct {
	Context              interface{}           `json:"@context,omitempty"`
	ID                   string                `json:"id"`
	Controller           json.RawMessage       `json:"controller,omitempty"`
	AlsoKnownAs          []string              `json:"alsoKnownAs,omitempty"`
	VerificationMethod   []*VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication       []json.RawMessage     `json:"authentication,omitempty"`
	AssertionMethod      []json.RawMessage     `json:"assertionMethod,omitempty"`
	KeyAgreement         []json.RawMessage     `json:"keyAgreement,omitempty"`
	CapabilityInvocation []json.RawMessage     `json:"capabilityInvocation,omitempty"`
	CapabilityDelegation []json.RawMessage     `json:"capabilityDelegation,omitempty"`
	Service              []*Service            `json:"service,omitempty"`
	Meta                 *Metadata             `json:"meta,omitempty"`
}

func (r *rawDocument) relationship(scope MethodScope) *[]json.RawMessage {
	switch scope {
	case Authentication:
		return &r.Authentication
	case AssertionMethod:
		return &r.AssertionMethod
	case KeyAgreement:
		return &r.KeyAgreement
	case CapabilityInvocation:
		return &r.CapabilityInvocation
	case CapabilityDelegation:
		return &r.CapabilityDelegation
	default:
		return nil
	}
}

// ParseDocument validates data against the DID document JSON schema and decodes it.
func ParseDocument(data []byte) (*Document, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	doc := &Document{}

	if err := doc.UnmarshalJSON(data); err != nil {
		return nil, err
	}

	return doc, nil
}

// MarshalJSON encodes the document in DID Core form.
func (d *Document) MarshalJSON() ([]byte, error) {
	raw := rawDocument{
		Context:            ContextV1,
		ID:                 d.id.String(),
		AlsoKnownAs:        d.alsoKnownAs,
		VerificationMethod: d.methods[VerificationMethodScope],
		Service:            d.services,
	}

	if len(d.controllers) > 0 {
		c, err := json.Marshal(d.controllers)
		if err != nil {
			return nil, fmt.Errorf("marshal controllers: %w", err)
		}

		raw.Controller = c
	}

	for scope := Authentication; scope < scopeCount; scope++ {
		entries, err := d.marshalRelationship(scope)
		if err != nil {
			return nil, err
		}

		*raw.relationship(scope) = entries
	}

	if d.meta != (Metadata{}) {
		meta := d.meta
		raw.Meta = &meta
	}

	return json.Marshal(raw)
}

func (d *Document) marshalRelationship(scope MethodScope) ([]json.RawMessage, error) {
	var entries []json.RawMessage

	for _, vm := range d.methods[scope] {
		b, err := json.Marshal(vm)
		if err != nil {
			return nil, fmt.Errorf("marshal %s method: %w", scope, err)
		}

		entries = append(entries, b)
	}

	for _, ref := range d.references[scope] {
		b, err := json.Marshal(d.id.String() + fragmentSeparator + ref)
		if err != nil {
			return nil, fmt.Errorf("marshal %s reference: %w", scope, err)
		}

		entries = append(entries, b)
	}

	return entries, nil
}

// UnmarshalJSON decodes the document. Relationship entries may be references or embedded methods.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw rawDocument

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	id, err := Parse(raw.ID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	doc := &Document{id: id, alsoKnownAs: raw.AlsoKnownAs}

	if raw.Meta != nil {
		doc.meta = *raw.Meta
	}

	doc.controllers, err = parseControllers(raw.Controller)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	for _, vm := range raw.VerificationMethod {
		if err := doc.InsertMethod(vm, VerificationMethodScope); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
	}

	for scope := Authentication; scope < scopeCount; scope++ {
		if err := doc.unmarshalRelationship(scope, *raw.relationship(scope)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
	}

	for _, s := range raw.Service {
		if err := doc.InsertService(s); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
	}

	*d = *doc

	return nil
}

func (d *Document) unmarshalRelationship(scope MethodScope, entries []json.RawMessage) error {
	for _, entry := range entries {
		var ref string

		if err := json.Unmarshal(entry, &ref); err == nil {
			fragment, err := d.referenceFragment(ref)
			if err != nil {
				return fmt.Errorf("%s reference: %w", scope, err)
			}

			if err := d.AttachRelationship(fragment, scope); err != nil {
				return err
			}

			continue
		}

		vm := &VerificationMethod{}

		if err := json.Unmarshal(entry, vm); err != nil {
			return fmt.Errorf("%s method: %w", scope, err)
		}

		if err := d.InsertMethod(vm, scope); err != nil {
			return err
		}
	}

	return nil
}

func (d *Document) referenceFragment(ref string) (string, error) {
	if strings.HasPrefix(ref, fragmentSeparator) {
		return ref[1:], nil
	}

	u, err := ParseDIDURL(ref)
	if err != nil {
		return "", err
	}

	if u.DID != d.id {
		return "", fmt.Errorf("reference %s: %w", ref, ErrDocumentMismatch)
	}

	return u.Fragment, nil
}

func parseControllers(data json.RawMessage) ([]DID, error) {
	values, err := stringOrArray(data)
	if err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}

	if len(values) == 0 {
		return nil, nil
	}

	controllers := make([]DID, 0, len(values))

	for _, v := range values {
		c, err := Parse(v)
		if err != nil {
			return nil, fmt.Errorf("controller: %w", err)
		}

		controllers = append(controllers, c)
	}

	return controllers, nil
}
