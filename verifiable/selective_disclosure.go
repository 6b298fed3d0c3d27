/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/trustbloc/identity-go/did"
	"github.com/trustbloc/identity-go/jpt"
)

var (
	subjectClaimPath = jpt.ClaimPath{jpt.Key(jwtFldVC), jpt.Key(jsonFldSubject)}

	// reservedClaims are always disclosed.
	reservedClaims = []jpt.ClaimPath{
		{jpt.Key("iss")},
		{jpt.Key("nbf")},
		{jpt.Key("exp")},
		{jpt.Key(jwtFldVC), jpt.Key(jsonFldType)},
		{jpt.Key(jwtFldVC), jpt.Key(jsonFldContext)},
	}
)

// SDPresentationOptions binds a selective disclosure presentation to a verifier.
type SDPresentationOptions struct {
	Nonce    string
	Audience string
}

// SelectiveDisclosurePresentation builds a JPT presentation that conceals chosen claims of a credential.
// It is single use: Build consumes it.
type SelectiveDisclosurePresentation struct {
	token     *jpt.IssuedToken
	method    *did.VerificationMethod
	concealed map[int]struct{}
	consumed  bool
}

// NewSelectiveDisclosurePresentation starts a presentation of a validated JPT credential.
func NewSelectiveDisclosurePresentation(decoded *DecodedJPTCredential) *SelectiveDisclosurePresentation {
	return &SelectiveDisclosurePresentation{
		token:     decoded.Token,
		method:    decoded.Method,
		concealed: map[int]struct{}{},
	}
}

// ConcealInSubject conceals the claim at path relative to the credential subject. A path naming an
// object or array conceals every claim beneath it.
func (sd *SelectiveDisclosurePresentation) ConcealInSubject(path string) error {
	p, err := jpt.ParseClaimPath(path)
	if err != nil {
		return err
	}

	return sd.conceal(subjectClaimPath.Join(p...))
}

// Conceal conceals the claim at the full claim path, e.g. "vc.credentialSubject.degree.name".
func (sd *SelectiveDisclosurePresentation) Conceal(path string) error {
	p, err := jpt.ParseClaimPath(path)
	if err != nil {
		return err
	}

	return sd.conceal(p)
}

func (sd *SelectiveDisclosurePresentation) conceal(path jpt.ClaimPath) error {
	if sd.consumed {
		return ErrBuilderConsumed
	}

	for _, r := range reservedClaims {
		if path.HasPrefix(r) || r.HasPrefix(path) {
			return fmt.Errorf("%w: %s", ErrConcealmentNotAllowed, path)
		}
	}

	indexes, err := sd.token.Header.Indexes(path)
	if err != nil {
		if errors.Is(err, jpt.ErrClaimPathNotFound) {
			return fmt.Errorf("%w: %s", ErrConcealmentPathNotFound, path)
		}

		return err
	}

	for _, i := range indexes {
		sd.concealed[i] = struct{}{}
	}

	return nil
}

// Build derives the presentation bound to opts using the method the credential was validated with.
func (sd *SelectiveDisclosurePresentation) Build(opts SDPresentationOptions) (string, error) {
	if sd.method == nil {
		return "", fmt.Errorf("build presentation: %w: credential has no validated method",
			ErrVerificationMethodNotFound)
	}

	return sd.build(opts, sd.method)
}

func (sd *SelectiveDisclosurePresentation) build(opts SDPresentationOptions, vm *did.VerificationMethod) (
	string, error) {
	if sd.consumed {
		return "", ErrBuilderConsumed
	}

	sd.consumed = true

	pub, err := bbsPublicKey(vm)
	if err != nil {
		return "", err
	}

	presented, err := sd.token.Present(lo.Keys(sd.concealed), jpt.PresentationHeader{
		Nonce:    opts.Nonce,
		Audience: opts.Audience,
	}, pub)
	if err != nil {
		return "", fmt.Errorf("build presentation: %w", err)
	}

	return presented.Serialize(), nil
}

// CreatePresentationJPT builds sd with the public key of the issuer method named by fragment.
func CreatePresentationJPT(sd *SelectiveDisclosurePresentation, issuerDoc *did.Document, fragment string,
	opts SDPresentationOptions) (string, error) {
	vm, err := issuerDoc.ResolveMethod(fragment, nil)
	if err != nil {
		return "", fmt.Errorf("create JPT presentation: %w", err)
	}

	return sd.build(opts, vm)
}
