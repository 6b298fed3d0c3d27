/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package pubkey

import (
	"github.com/trustbloc/kms-go/doc/jose/jwk"
	"github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/did"
)

// BytesKey contains bytes of public key.
type BytesKey struct {
	Bytes []byte
}

// PublicKey is the key material a verifier checks signatures against.
type PublicKey struct {
	Type kms.KeyType

	BytesKey *BytesKey
	JWK      *jwk.JWK
}

// FromMethod takes the public key of a DID verification method. Ed25519 keys are also exposed as JWK.
func FromMethod(vm *did.VerificationMethod) *PublicKey {
	pk := &PublicKey{
		Type:     vm.KeyType,
		BytesKey: &BytesKey{Bytes: vm.PublicKey},
	}

	if j, err := vm.JWK(); err == nil {
		pk.JWK = j
	}

	return pk
}

// Bytes returns the raw key bytes, or nil when the key is only available as JWK.
func (pk *PublicKey) Bytes() []byte {
	if pk.BytesKey == nil {
		return nil
	}

	return pk.BytesKey.Bytes
}
