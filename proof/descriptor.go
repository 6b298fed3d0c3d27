/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package proof describes the JWT proof algorithms by the verification methods they work with.
package proof

import (
	"github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/did"
)

// SupportedVerificationMethod pairs a verification method type with the key type it carries.
type SupportedVerificationMethod struct {
	VerificationMethodType string // e.g. JsonWebKey2020
	KMSKeyType             kms.KeyType
}

// Matches reports whether vm has the method type and key type of s.
func (s SupportedVerificationMethod) Matches(vm *did.VerificationMethod) bool {
	return s.VerificationMethodType == vm.Type && s.KMSKeyType == vm.KeyType
}

// JWTProofDescriptor describes a JWT proof algorithm.
type JWTProofDescriptor interface {
	JWTAlgorithm() string

	SupportedVerificationMethods() []SupportedVerificationMethod
}

// SupportsKeyType reports whether d can sign or verify with keys of keyType.
func SupportsKeyType(d JWTProofDescriptor, keyType kms.KeyType) bool {
	for _, vm := range d.SupportedVerificationMethods() {
		if vm.KMSKeyType == keyType {
			return true
		}
	}

	return false
}

// SupportsMethod reports whether d can verify with vm.
func SupportsMethod(d JWTProofDescriptor, vm *did.VerificationMethod) bool {
	for _, supported := range d.SupportedVerificationMethods() {
		if supported.Matches(vm) {
			return true
		}
	}

	return false
}
