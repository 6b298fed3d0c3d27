/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vermethod

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trustbloc/identity-go/did"
)

// ErrIssuerMismatch is returned when the key id does not belong to the expected proof issuer.
var ErrIssuerMismatch = errors.New("verification method does not belong to expected issuer")

// DocumentResolver finds verification methods in an already resolved DID document.
type DocumentResolver struct {
	doc   *did.Document
	scope *did.MethodScope
}

// NewDocumentResolver creates a DocumentResolver. A nil scope accepts every method of doc.
func NewDocumentResolver(doc *did.Document, scope *did.MethodScope) *DocumentResolver {
	return &DocumentResolver{doc: doc, scope: scope}
}

// ResolveVerificationMethod resolves verification method by key id.
func (r *DocumentResolver) ResolveVerificationMethod(keyID string, expectedProofIssuer string) (
	*did.VerificationMethod, error) {
	if err := checkIssuer(keyID, expectedProofIssuer); err != nil {
		return nil, err
	}

	return r.doc.ResolveMethod(keyID, r.scope)
}

func checkIssuer(keyID, expectedProofIssuer string) error {
	if expectedProofIssuer == "" {
		return nil
	}

	methodDID, _, found := strings.Cut(keyID, "#")
	if found && methodDID != "" && methodDID != expectedProofIssuer {
		return fmt.Errorf("%w: %s is not controlled by %s", ErrIssuerMismatch, keyID, expectedProofIssuer)
	}

	return nil
}
