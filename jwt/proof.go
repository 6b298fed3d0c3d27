/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwt

import (
	"github.com/trustbloc/kms-go/doc/jose"
)

// SignParameters names the key and algorithm a token is signed with.
type SignParameters struct {
	// KeyID is the DID URL of the signing verification method. It becomes the kid header.
	KeyID  string
	JWTAlg string
	// AdditionalHeaders are merged into the protected header. alg and kid cannot be overridden.
	AdditionalHeaders jose.Headers
}

// ProofCreator signs the JWS signing input with the key behind a verification method.
type ProofCreator interface {
	SignJWT(params SignParameters, data []byte) ([]byte, error)
	CreateJWTHeaders(params SignParameters) (jose.Headers, error)
}

// ProofChecker checks the signature of a JWS over msg. expectedProofIssuer restricts the DID that may
// own the signing method; empty accepts any.
type ProofChecker interface {
	CheckJWTProof(headers jose.Headers, expectedProofIssuer string, msg, signature []byte) error
}
