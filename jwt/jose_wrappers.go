/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwt

import (
	"errors"
	"fmt"

	"github.com/trustbloc/kms-go/doc/jose"

	"github.com/trustbloc/identity-go/did"
)

// NewJOSESigner creates a jose.Signer that signs with the ProofCreator.
func NewJOSESigner(params SignParameters, signer ProofCreator) (*JoseSigner, error) {
	headers, err := signer.CreateJWTHeaders(params)
	if err != nil {
		return nil, err
	}

	return &JoseSigner{
		signer:     signer,
		signParams: params,
		headers:    headers,
	}, nil
}

// JoseSigner signs the JWS signing input on behalf of go-jose compatible encoders.
type JoseSigner struct {
	signer     ProofCreator
	signParams SignParameters
	headers    jose.Headers
}

// Sign signs data with the key named by the sign parameters.
func (s JoseSigner) Sign(data []byte) ([]byte, error) {
	return s.signer.SignJWT(s.signParams, data)
}

// Headers returns the protected headers built by the proof creator.
func (s JoseSigner) Headers() jose.Headers {
	return s.headers
}

// joseVerifier delegates signature checks to a ProofChecker. Without an expected issuer the signing
// method must belong to the DID of the kid header.
type joseVerifier struct {
	proofChecker        ProofChecker
	expectedProofIssuer *string
}

func (v *joseVerifier) Verify(joseHeaders jose.Headers, _, signingInput, signature []byte) error {
	var expectedProofIssuer string

	if v.expectedProofIssuer != nil {
		expectedProofIssuer = *v.expectedProofIssuer
	} else {
		kid, ok := joseHeaders.KeyID()
		if !ok {
			return errors.New("missed kid in jwt header")
		}

		methodID, err := did.ParseDIDURL(kid)
		if err != nil {
			return fmt.Errorf("kid header: %w", err)
		}

		expectedProofIssuer = methodID.DID.String()
	}

	return v.proofChecker.CheckJWTProof(joseHeaders, expectedProofIssuer, signingInput, signature)
}
