/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ecdsa

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/crypto-ext/pubkey"
)

const (
	p256KeySize      = 32
	secp256k1KeySize = 32
)

type ellipticCurve struct {
	curve   elliptic.Curve
	keySize int
	hash    crypto.Hash
}

// Verifier verifies elliptic curve signatures given in IEEE P1363 or ASN.1 DER form.
type Verifier struct {
	ec         ellipticCurve
	kmsKeyType []kms.KeyType
}

// NewES256 creates a verifier of ES256 (P-256, SHA-256) signatures.
func NewES256() *Verifier {
	return &Verifier{
		ec: ellipticCurve{
			curve:   elliptic.P256(),
			keySize: p256KeySize,
			hash:    crypto.SHA256,
		},
		kmsKeyType: []kms.KeyType{kms.ECDSAP256TypeIEEEP1363, kms.ECDSAP256TypeDER},
	}
}

// NewSecp256k1 creates a verifier of ES256K (secp256k1, SHA-256) signatures.
func NewSecp256k1() *Verifier {
	return &Verifier{
		ec: ellipticCurve{
			curve:   btcec.S256(),
			keySize: secp256k1KeySize,
			hash:    crypto.SHA256,
		},
		kmsKeyType: []kms.KeyType{kms.ECDSASecp256k1TypeIEEEP1363, kms.ECDSASecp256k1TypeDER},
	}
}

// SupportedKeyType checks if verifier supports given key.
func (sv *Verifier) SupportedKeyType(keyType kms.KeyType) bool {
	return slices.Contains(sv.kmsKeyType, keyType)
}

// Verify verifies the signature.
func (sv *Verifier) Verify(signature, msg []byte, pubKey *pubkey.PublicKey) error {
	ecdsaPubKey, err := sv.parseKey(pubKey)
	if err != nil {
		return err
	}

	r, s, err := sv.parseSignature(signature)
	if err != nil {
		return err
	}

	hasher := sv.ec.hash.New()
	_, _ = hasher.Write(msg)

	if !ecdsa.Verify(ecdsaPubKey, hasher.Sum(nil), r, s) {
		return errors.New("ecdsa: invalid signature")
	}

	return nil
}

func (sv *Verifier) parseSignature(signature []byte) (*big.Int, *big.Int, error) {
	size := sv.ec.keySize

	switch {
	case len(signature) == 2*size:
		return new(big.Int).SetBytes(signature[:size]), new(big.Int).SetBytes(signature[size:]), nil
	case len(signature) > 2*size:
		var esig struct {
			R, S *big.Int
		}

		if _, err := asn1.Unmarshal(signature, &esig); err != nil {
			return nil, nil, fmt.Errorf("ecdsa: parse DER signature: %w", err)
		}

		return esig.R, esig.S, nil
	default:
		return nil, nil, errors.New("ecdsa: invalid signature size")
	}
}

func (sv *Verifier) parseKey(pubKey *pubkey.PublicKey) (*ecdsa.PublicKey, error) {
	if !sv.SupportedKeyType(pubKey.Type) {
		return nil, fmt.Errorf("unsupported key type %s", pubKey.Type)
	}

	if pubKey.JWK != nil {
		key, ok := pubKey.JWK.Key.(*ecdsa.PublicKey)
		if !ok {
			return nil, errors.New("ecdsa: invalid public key type")
		}

		return key, nil
	}

	x, y := elliptic.Unmarshal(sv.ec.curve, pubKey.Bytes()) //nolint:staticcheck
	if x == nil {
		return nil, errors.New("ecdsa: invalid public key bytes")
	}

	return &ecdsa.PublicKey{Curve: sv.ec.curve, X: x, Y: y}, nil
}
