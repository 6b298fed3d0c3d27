/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package creator

import (
	"fmt"

	"github.com/trustbloc/kms-go/doc/jose"
	"github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/jwt"
	proofdesc "github.com/trustbloc/identity-go/proof"
)

// ProofCreator incapsulate logic of proof creation.
type ProofCreator struct {
	supportedJWTAlgs []jwtProofCreateDescriptor
}

type jwtProofCreateDescriptor struct {
	proofDescriptor     proofdesc.JWTProofDescriptor
	cryptographicSigner cryptographicSigner
}

type cryptographicSigner interface {
	// Sign will sign document and return signature.
	Sign(data []byte) ([]byte, error)
}

// Opt represent ProofCreator creation options.
type Opt func(c *ProofCreator)

// WithJWTAlg option to set supported jwt alg.
func WithJWTAlg(proofDesc proofdesc.JWTProofDescriptor, cryptographicSigner cryptographicSigner) Opt {
	return func(c *ProofCreator) {
		c.supportedJWTAlgs = append(c.supportedJWTAlgs, jwtProofCreateDescriptor{
			proofDescriptor:     proofDesc,
			cryptographicSigner: cryptographicSigner,
		})
	}
}

// New creates ProofCreator.
func New(opts ...Opt) *ProofCreator {
	c := &ProofCreator{}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// JWTAlgByKeyType returns the jwt alg used to sign with keys of the given type.
func (c *ProofCreator) JWTAlgByKeyType(keyType kms.KeyType) (string, error) {
	for _, supported := range c.supportedJWTAlgs {
		if proofdesc.SupportsKeyType(supported.proofDescriptor, keyType) {
			return supported.proofDescriptor.JWTAlgorithm(), nil
		}
	}

	return "", fmt.Errorf("no jwt algs that support %q key", keyType)
}

// SignJWT will sign document and return signature.
func (c *ProofCreator) SignJWT(params jwt.SignParameters, data []byte) ([]byte, error) {
	supportedProof, err := c.getSupportedProofByAlg(params.JWTAlg)
	if err != nil {
		return nil, err
	}

	return supportedProof.cryptographicSigner.Sign(data)
}

// CreateJWTHeaders creates correct jwt headers.
func (c *ProofCreator) CreateJWTHeaders(params jwt.SignParameters) (jose.Headers, error) {
	if _, err := c.getSupportedProofByAlg(params.JWTAlg); err != nil {
		return nil, err
	}

	headers := map[string]interface{}{}

	for k, v := range params.AdditionalHeaders {
		headers[k] = v
	}

	headers[jose.HeaderAlgorithm] = params.JWTAlg

	if params.KeyID != "" {
		headers[jose.HeaderKeyID] = params.KeyID
	}

	return headers, nil
}

func (c *ProofCreator) getSupportedProofByAlg(jwtAlg string) (jwtProofCreateDescriptor, error) {
	for _, supported := range c.supportedJWTAlgs {
		if supported.proofDescriptor.JWTAlgorithm() == jwtAlg {
			return supported, nil
		}
	}

	return jwtProofCreateDescriptor{}, fmt.Errorf("unsupported jwt alg: %s", jwtAlg)
}
