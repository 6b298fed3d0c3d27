/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package es256

import (
	"github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/did"
	"github.com/trustbloc/identity-go/proof"
)

// Proof describes es256 proof type.
type Proof struct {
	supportedVMs []proof.SupportedVerificationMethod
}

// JWTAlg for es256.
const JWTAlg = "ES256"

// New an instance of es256 proof type descriptor.
func New() *Proof {
	p := &Proof{}
	p.supportedVMs = []proof.SupportedVerificationMethod{
		{
			VerificationMethodType: did.EcdsaSecp256r1Key2019,
			KMSKeyType:             kms.ECDSAP256TypeIEEEP1363,
		},
	}

	return p
}

// SupportedVerificationMethods returns list of verification methods supported by this proof type.
func (s *Proof) SupportedVerificationMethods() []proof.SupportedVerificationMethod {
	return s.supportedVMs
}

// JWTAlgorithm return jwt alg that corresponds to VerificationMethod.
func (s *Proof) JWTAlgorithm() string {
	return JWTAlg
}
