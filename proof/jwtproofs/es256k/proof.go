/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package es256k

import (
	"github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/did"
	"github.com/trustbloc/identity-go/proof"
)

// Proof describes es256k proof type.
type Proof struct {
	supportedVMs []proof.SupportedVerificationMethod
}

// JWTAlg for es256k.
const JWTAlg = "ES256K"

// New an instance of es256k proof type descriptor.
func New() *Proof {
	p := &Proof{}
	p.supportedVMs = []proof.SupportedVerificationMethod{
		{
			VerificationMethodType: did.EcdsaSecp256k1Key2019,
			KMSKeyType:             kms.ECDSASecp256k1TypeIEEEP1363,
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
