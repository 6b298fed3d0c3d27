/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ed25519

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/crypto-ext/pubkey"
)

// Verifier verifies EdDSA signatures made with Ed25519 keys.
type Verifier struct{}

// New creates a new ed25519 Verifier.
func New() *Verifier {
	return &Verifier{}
}

// SupportedKeyType checks if verifier supports given key.
func (sv *Verifier) SupportedKeyType(keyType kms.KeyType) bool {
	return keyType == kms.ED25519Type
}

// Verify verifies the signature. Raw key bytes take precedence over the JWK form.
func (sv *Verifier) Verify(signature, msg []byte, pubKey *pubkey.PublicKey) error {
	if !sv.SupportedKeyType(pubKey.Type) {
		return fmt.Errorf("unsupported key type %s", pubKey.Type)
	}

	value := pubKey.Bytes()

	if value == nil && pubKey.JWK != nil {
		jwkKey, ok := pubKey.JWK.Public().Key.(ed25519.PublicKey)
		if !ok {
			return errors.New("ed25519: jwk is not an ed25519 public key")
		}

		value = jwkKey
	}

	// ed25519.Verify panics on keys of the wrong size
	if len(value) != ed25519.PublicKeySize {
		return errors.New("ed25519: invalid key")
	}

	if !ed25519.Verify(value, msg, signature) {
		return errors.New("ed25519: invalid signature")
	}

	return nil
}
