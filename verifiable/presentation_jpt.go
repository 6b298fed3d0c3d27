/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"fmt"
	"time"

	"github.com/trustbloc/identity-go/did"
	"github.com/trustbloc/identity-go/jpt"
)

// JPTPresentationValidationOptions configures the validation of a presented JPT.
type JPTPresentationValidationOptions struct {
	// Nonce is the expected presentation nonce. Empty skips the check.
	Nonce string
	// Audience is the expected presentation audience. Empty skips the check.
	Audience    string
	MethodScope *did.MethodScope

	EarliestExpiryDate *time.Time
	LatestIssuanceDate *time.Time
	ClockSkew          time.Duration
}

// DecodedJPTPresentation is a validated presented JPT. The credential holds the disclosed claims only.
type DecodedJPTPresentation struct {
	Credential   *Credential
	Audience     string
	CustomClaims JSONObject
	Token        *jpt.PresentedToken
}

// JPTPresentationValidator validates presented JPTs against the issuer DID document.
type JPTPresentationValidator struct{}

// NewJPTPresentationValidator creates a JPTPresentationValidator.
func NewJPTPresentationValidator() *JPTPresentationValidator {
	return &JPTPresentationValidator{}
}

// Validate checks the presentation binding and the BBS+ proof of token, rebuilds the credential from the
// disclosed claims and runs the semantic checks on it.
func (v *JPTPresentationValidator) Validate(token string, issuerDoc *did.Document,
	opts JPTPresentationValidationOptions, failFast FailFast) (*DecodedJPTPresentation, error) {
	t, err := jpt.ParsePresented(token)
	if err != nil {
		return nil, newValidationError(ErrInvalidStructure, err)
	}

	issuer, err := jptIssuer(t.Issuer, t.Payloads)
	if err != nil {
		return nil, newValidationError(ErrInvalidStructure, err)
	}

	if !issuer.Equal(issuerDoc.ID()) {
		return nil, newValidationError(ErrIssuerMismatch,
			fmt.Errorf("presented issuer %s, document %s", issuer, issuerDoc.ID()))
	}

	_, pub, err := resolveBBSMethod(issuerDoc, t.Issuer.KeyID, opts.MethodScope)
	if err != nil {
		return nil, err
	}

	// the presentation binding is checked before the proof
	if err := checkNonce(opts.Nonce, t.Presentation.Nonce)(); err != nil {
		return nil, newValidationError(ErrNonceMismatch, err)
	}

	if opts.Audience != "" && opts.Audience != t.Presentation.Audience {
		return nil, newValidationError(ErrAudienceMismatch,
			fmt.Errorf("expected %q, got %q", opts.Audience, t.Presentation.Audience))
	}

	if err := t.Verify(pub); err != nil {
		return nil, newValidationError(ErrProofInvalid, err)
	}

	claims, err := t.Claims()
	if err != nil {
		return nil, newValidationError(ErrInvalidStructure, err)
	}

	vc, _, err := decodeCredentialClaims(claims, false)
	if err != nil {
		return nil, newValidationError(ErrInvalidStructure, err)
	}

	c := newCollector(failFast)
	runChecks(c, credentialChecks(vc, issuerDoc,
		newTimeBounds(opts.EarliestExpiryDate, opts.LatestIssuanceDate, opts.ClockSkew))...)

	if err := c.err(); err != nil {
		return nil, err
	}

	return &DecodedJPTPresentation{
		Credential:   vc,
		Audience:     t.Presentation.Audience,
		CustomClaims: customClaims(claims, jwtFldVC),
		Token:        t,
	}, nil
}
