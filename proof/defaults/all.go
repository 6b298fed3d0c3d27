/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package defaults

import (
	"github.com/trustbloc/identity-go/crypto-ext/verifiers/ecdsa"
	"github.com/trustbloc/identity-go/crypto-ext/verifiers/ed25519"
	"github.com/trustbloc/identity-go/did"
	"github.com/trustbloc/identity-go/proof/checker"
	"github.com/trustbloc/identity-go/proof/creator"
	"github.com/trustbloc/identity-go/proof/jwtproofs/eddsa"
	"github.com/trustbloc/identity-go/proof/jwtproofs/es256"
	"github.com/trustbloc/identity-go/proof/jwtproofs/es256k"
)

type verificationMethodResolver interface {
	ResolveVerificationMethod(verificationMethod string, expectedProofIssuer string) (*did.VerificationMethod, error)
}

type signer interface {
	Sign(data []byte) ([]byte, error)
}

// CheckerOpts returns the options registering every supported JWS algorithm and its verifier.
func CheckerOpts() []checker.Opt {
	return []checker.Opt{
		checker.WithSignatureVerifiers(ed25519.New(), ecdsa.NewES256(), ecdsa.NewSecp256k1()),
		checker.WithJWTAlg(eddsa.New(), es256.New(), es256k.New()),
	}
}

// NewDefaultProofChecker creates a proof checker for EdDSA, ES256 and ES256K.
func NewDefaultProofChecker(verificationMethodResolver verificationMethodResolver) *checker.ProofChecker {
	return checker.New(verificationMethodResolver, CheckerOpts()...)
}

// NewEmbeddedVMProofChecker creates a proof checker bound to a single verification method.
func NewEmbeddedVMProofChecker(vm *did.VerificationMethod) *checker.EmbeddedVMProofChecker {
	return checker.NewEmbeddedVMProofChecker(vm, CheckerOpts()...)
}

// NewProofCreator creates a proof creator signing every supported JWS algorithm with s.
func NewProofCreator(s signer) *creator.ProofCreator {
	return creator.New(
		creator.WithJWTAlg(eddsa.New(), s),
		creator.WithJWTAlg(es256.New(), s),
		creator.WithJWTAlg(es256k.New(), s),
	)
}
