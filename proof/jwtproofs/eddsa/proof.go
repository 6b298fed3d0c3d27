/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package eddsa

import (
	"github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/did"
	"github.com/trustbloc/identity-go/proof"
)

// Proof describes eddsa proof type.
type Proof struct {
	supportedVMs []proof.SupportedVerificationMethod
}

// JWTAlg for eddsa.
const JWTAlg = "EdDSA"

// New an instance of eddsa proof type descriptor.
func New() *Proof {
	p := &Proof{}
	p.supportedVMs = []proof.SupportedVerificationMethod{
		{
			VerificationMethodType: did.JSONWebKey2020,
			KMSKeyType:             kms.ED25519Type,
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
