/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package checker

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/trustbloc/kms-go/doc/jose"
	"github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/crypto-ext/pubkey"
	"github.com/trustbloc/identity-go/did"
	proofdesc "github.com/trustbloc/identity-go/proof"
)

type verificationMethodResolver interface {
	ResolveVerificationMethod(verificationMethod string, expectedProofIssuer string) (*did.VerificationMethod, error)
}

type signatureVerifier interface {
	// SupportedKeyType checks if verifier supports given key.
	SupportedKeyType(keyType kms.KeyType) bool
	// Verify verifies the signature.
	Verify(sig, msg []byte, pub *pubkey.PublicKey) error
}

type jwtCheckDescriptor struct {
	proofDescriptor proofdesc.JWTProofDescriptor
}

// nolint: gochecknoglobals
var possibleIssuerPath = []string{
	"vc.issuer.id",
	"vc.issuer",
	"vp.holder",
	"iss",
}

// ProofCheckerBase basic implementation of proof checker.
type ProofCheckerBase struct {
	supportedJWTProofs []jwtCheckDescriptor
	signatureVerifiers []signatureVerifier
}

// ProofChecker checks JWS proofs against verification methods found by the resolver.
type ProofChecker struct {
	ProofCheckerBase

	verificationMethodResolver verificationMethodResolver
}

// Opt represent checker creation options.
type Opt func(c *ProofCheckerBase)

// WithJWTAlg option to set supported jwt algs.
func WithJWTAlg(proofDescs ...proofdesc.JWTProofDescriptor) Opt {
	return func(c *ProofCheckerBase) {
		for _, proofDesc := range proofDescs {
			c.supportedJWTProofs = append(c.supportedJWTProofs, jwtCheckDescriptor{
				proofDescriptor: proofDesc,
			})
		}
	}
}

// WithSignatureVerifiers option to set signature verifiers.
func WithSignatureVerifiers(verifiers ...signatureVerifier) Opt {
	return func(c *ProofCheckerBase) {
		c.signatureVerifiers = append(c.signatureVerifiers, verifiers...)
	}
}

// New creates new proof checker.
func New(verificationMethodResolver verificationMethodResolver, opts ...Opt) *ProofChecker {
	c := &ProofChecker{
		verificationMethodResolver: verificationMethodResolver,
	}

	for _, opt := range opts {
		opt(&c.ProofCheckerBase)
	}

	return c
}

// CheckJWTProof check jwt proof.
func (c *ProofChecker) CheckJWTProof(headers jose.Headers, expectedProofIssuer string, msg, signature []byte) error {
	keyID, ok := headers.KeyID()
	if !ok {
		return fmt.Errorf("missed kid in jwt header")
	}

	if _, ok = headers.Algorithm(); !ok {
		return fmt.Errorf("missed alg in jwt header")
	}

	vm, err := c.verificationMethodResolver.ResolveVerificationMethod(keyID, expectedProofIssuer)
	if err != nil {
		return fmt.Errorf("invalid public key id: %w", err)
	}

	return c.checkWithMethod(headers, vm, msg, signature)
}

// FindIssuer finds issuer in payload.
func (c *ProofChecker) FindIssuer(payload []byte) string {
	parsed := gjson.ParseBytes(payload)

	for _, p := range possibleIssuerPath {
		if str := parsed.Get(p).Str; str != "" {
			return str
		}
	}

	return ""
}

func (c *ProofCheckerBase) checkWithMethod(headers jose.Headers, vm *did.VerificationMethod, msg,
	signature []byte) error {
	alg, ok := headers.Algorithm()
	if !ok {
		return fmt.Errorf("missed alg in jwt header")
	}

	supportedProof, err := c.getSupportedProofByAlg(alg)
	if err != nil {
		return err
	}

	if !proofdesc.SupportsMethod(supportedProof.proofDescriptor, vm) {
		return fmt.Errorf("jwt with alg %s check: can't verify with %q verification method (key type %q)",
			alg, vm.Type, vm.KeyType)
	}

	pubKey := pubkey.FromMethod(vm)

	verifier, err := c.getSignatureVerifier(pubKey.Type)
	if err != nil {
		return err
	}

	return verifier.Verify(signature, msg, pubKey)
}

// JWTAlgorithm returns the alg of the first supported JWT proof able to verify keys of the given type.
func (c *ProofCheckerBase) JWTAlgorithm(keyType kms.KeyType) (string, error) {
	for _, supported := range c.supportedJWTProofs {
		if proofdesc.SupportsKeyType(supported.proofDescriptor, keyType) {
			return supported.proofDescriptor.JWTAlgorithm(), nil
		}
	}

	return "", fmt.Errorf("no jwt algs that support %q key", keyType)
}

func (c *ProofCheckerBase) getSupportedProofByAlg(jwtAlg string) (jwtCheckDescriptor, error) {
	for _, supported := range c.supportedJWTProofs {
		if supported.proofDescriptor.JWTAlgorithm() == jwtAlg {
			return supported, nil
		}
	}

	return jwtCheckDescriptor{}, fmt.Errorf("unsupported jwt alg: %s", jwtAlg)
}

func (c *ProofCheckerBase) getSignatureVerifier(keyType kms.KeyType) (signatureVerifier, error) {
	for _, verifier := range c.signatureVerifiers {
		if verifier.SupportedKeyType(keyType) {
			return verifier, nil
		}
	}

	return nil, fmt.Errorf("no vefiers with supported key type %s", keyType)
}

// EmbeddedVMProofChecker is a proof checker with embedded verification method.
type EmbeddedVMProofChecker struct {
	ProofCheckerBase
	vm *did.VerificationMethod
}

// CheckJWTProof check jwt proof.
func (c *EmbeddedVMProofChecker) CheckJWTProof(headers jose.Headers, _ string, msg, signature []byte) error {
	return c.checkWithMethod(headers, c.vm, msg, signature)
}

// NewEmbeddedVMProofChecker return new EmbeddedVMProofChecker.
func NewEmbeddedVMProofChecker(vm *did.VerificationMethod, opts ...Opt) *EmbeddedVMProofChecker {
	c := &EmbeddedVMProofChecker{
		vm: vm,
	}

	for _, opt := range opts {
		opt(&c.ProofCheckerBase)
	}

	return c
}
