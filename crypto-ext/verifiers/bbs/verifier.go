/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/trustbloc/bbs-signature-go/bbs12381g2pub"
	"github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/crypto-ext/pubkey"
)

// G2SignatureVerifier verifies BBS+ signatures over message vectors with Bls12381G2Key2020 public key bytes.
type G2SignatureVerifier struct{}

// NewBBSG2SignatureVerifier creates a new G2SignatureVerifier.
func NewBBSG2SignatureVerifier() *G2SignatureVerifier {
	return &G2SignatureVerifier{}
}

// SupportedKeyType checks if verifier supports given key.
func (sv *G2SignatureVerifier) SupportedKeyType(keyType kms.KeyType) bool {
	return keyType == kms.BLS12381G2Type
}

// Verify verifies a signature over a single message.
func (sv *G2SignatureVerifier) Verify(signature, msg []byte, pubKeyValue *pubkey.PublicKey) error {
	return sv.VerifyMessages(signature, [][]byte{msg}, pubKeyValue)
}

// VerifyMessages verifies a signature over the ordered messages.
func (sv *G2SignatureVerifier) VerifyMessages(signature []byte, msgs [][]byte, pubKeyValue *pubkey.PublicKey) error {
	key, err := keyBytes(pubKeyValue)
	if err != nil {
		return err
	}

	if err := bbs12381g2pub.New().Verify(msgs, signature, key); err != nil {
		return fmt.Errorf("bbs: %w", err)
	}

	return nil
}

// G2SignatureProofVerifier verifies BBS+ selective disclosure proofs.
type G2SignatureProofVerifier struct{}

// NewBBSG2SignatureProofVerifier creates a new G2SignatureProofVerifier.
func NewBBSG2SignatureProofVerifier() *G2SignatureProofVerifier {
	return &G2SignatureProofVerifier{}
}

// VerifyProof verifies that proof discloses the revealed messages, in their original order, of a
// signature made with the key and bound to nonce.
func (v *G2SignatureProofVerifier) VerifyProof(proof []byte, revealed [][]byte, nonce []byte,
	pubKeyValue *pubkey.PublicKey) error {
	key, err := keyBytes(pubKeyValue)
	if err != nil {
		return err
	}

	// VerifyProof may modify the proof buffer
	if err := bbs12381g2pub.New().VerifyProof(revealed, bytes.Clone(proof), nonce, key); err != nil {
		return fmt.Errorf("bbs proof: %w", err)
	}

	return nil
}

// DeriveProof derives a proof of the signature over msgs that reveals the messages at the
// revealed indexes and is bound to nonce.
func DeriveProof(msgs [][]byte, signature, nonce []byte, revealed []int, pubKeyValue *pubkey.PublicKey) ([]byte, error) {
	key, err := keyBytes(pubKeyValue)
	if err != nil {
		return nil, err
	}

	proof, err := bbs12381g2pub.New().DeriveProof(msgs, signature, nonce, key, slices.Clone(revealed))
	if err != nil {
		return nil, fmt.Errorf("bbs derive proof: %w", err)
	}

	return proof, nil
}

func keyBytes(pubKeyValue *pubkey.PublicKey) ([]byte, error) {
	if pubKeyValue.Type != kms.BLS12381G2Type {
		return nil, fmt.Errorf("unsupported key type %s", pubKeyValue.Type)
	}

	if b := pubKeyValue.Bytes(); b != nil {
		return b, nil
	}

	if pubKeyValue.JWK != nil {
		b, err := pubKeyValue.JWK.PublicKeyBytes()
		if err != nil {
			return nil, fmt.Errorf("invalid jwk: %w", err)
		}

		return b, nil
	}

	return nil, errors.New("incorrect pub key, should contain key bytes or jwk")
}
