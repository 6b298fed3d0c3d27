/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keystore holds private keys outside DID documents and binds them to verification methods.
package keystore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/hyperledger/aries-framework-go/component/log"
	kmsstore "github.com/trustbloc/kms-go/kms"
	"github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/did"
)

var logger = log.New("identity-go/keystore")

var (
	// ErrKeyNotFound is returned when the key store has no key with the requested id.
	// It is the error the local kms expects from its keyset store.
	ErrKeyNotFound = kmsstore.ErrKeyNotFound
	// ErrKeyIDNotFound is returned when no key id is mapped to a method digest.
	ErrKeyIDNotFound = errors.New("key id not found")
	// ErrKeyIDExists is returned when a method digest already has a key id.
	ErrKeyIDExists = errors.New("key id already mapped")
	// ErrUnsupportedKeyAlgorithm is returned for key types not usable by the requested operation.
	ErrUnsupportedKeyAlgorithm = did.ErrUnsupportedKeyAlgorithm
)

// KeyStore generates private keys and signs with them. Private material never leaves the store.
type KeyStore interface {
	Generate(ctx context.Context, keyType kms.KeyType) (keyID string, pub []byte, err error)
	Sign(ctx context.Context, keyID string, msg []byte) ([]byte, error)
	Delete(ctx context.Context, keyID string) error
	Exists(ctx context.Context, keyID string) (bool, error)
}

// BBSKeyStore signs ordered message vectors with BLS12-381 G2 keys.
type BBSKeyStore interface {
	KeyStore
	SignMessages(ctx context.Context, keyID string, msgs [][]byte) ([]byte, error)
}

// MethodDigest identifies a verification method independently of the document it is part of.
type MethodDigest string

// NewMethodDigest computes the digest of a method from its fragment and public key.
func NewMethodDigest(vm *did.VerificationMethod) MethodDigest {
	h := sha256.New()
	h.Write([]byte(vm.Fragment()))
	h.Write([]byte{0})
	h.Write(vm.PublicKey)

	return MethodDigest(hex.EncodeToString(h.Sum(nil)))
}

// KeyIDStore maps method digests to key store ids.
type KeyIDStore interface {
	Insert(ctx context.Context, digest MethodDigest, keyID string) error
	Get(ctx context.Context, digest MethodDigest) (string, error)
	Delete(ctx context.Context, digest MethodDigest) error
}
