/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keystore

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/trustbloc/kms-go/secretlock/noop"
	"github.com/trustbloc/kms-go/spi/kms"
	"github.com/trustbloc/kms-go/wrapper/api"
	"github.com/trustbloc/kms-go/wrapper/localsuite"
)

const primaryKeyURI = "local-lock://custom/master/key/"

var memKeyTypes = []kms.KeyType{
	kms.ED25519Type,
	kms.ECDSAP256TypeIEEEP1363,
	kms.ECDSASecp256k1TypeIEEEP1363,
	kms.BLS12381G2Type,
}

type memKey struct {
	// serializes signing with this key
	mu      sync.Mutex
	keyType kms.KeyType
	signer  api.FixedKeyMultiSigner
}

// MemKeyStore keeps keys in memory behind a local kms. Signing with one key is serialized,
// different keys sign concurrently.
type MemKeyStore struct {
	mu      sync.RWMutex
	keys    map[string]*memKey
	keysets *keysetStore
	suite   api.Suite
	creator api.KeyCreator
}

// NewMemKeyStore creates an empty in-memory key store.
func NewMemKeyStore() (*MemKeyStore, error) {
	keysets := &keysetStore{data: make(map[string][]byte)}

	suite, err := localsuite.NewLocalCryptoSuite(primaryKeyURI, keysets, &noop.NoLock{})
	if err != nil {
		return nil, fmt.Errorf("init local kms: %w", err)
	}

	creator, err := suite.KeyCreator()
	if err != nil {
		return nil, fmt.Errorf("init key creator: %w", err)
	}

	return &MemKeyStore{
		keys:    make(map[string]*memKey),
		keysets: keysets,
		suite:   suite,
		creator: creator,
	}, nil
}

// Generate creates a new key of the given type and returns its id and public key bytes.
// ECDSA public keys are uncompressed points.
func (s *MemKeyStore) Generate(ctx context.Context, keyType kms.KeyType) (string, []byte, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	if !lo.Contains(memKeyTypes, keyType) {
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyAlgorithm, keyType)
	}

	pk, err := s.creator.Create(keyType)
	if err != nil {
		return "", nil, fmt.Errorf("create %s key: %w", keyType, err)
	}

	pub, _, err := s.creator.ExportPubKeyBytes(pk.KeyID)
	if err != nil {
		return "", nil, fmt.Errorf("export %s public key: %w", keyType, err)
	}

	signer, err := s.suite.FixedKeyMultiSigner(pk.KeyID)
	if err != nil {
		return "", nil, fmt.Errorf("signer for %s: %w", pk.KeyID, err)
	}

	s.mu.Lock()
	s.keys[pk.KeyID] = &memKey{keyType: keyType, signer: signer}
	s.mu.Unlock()

	logger.Debugf("generated %s key %s", keyType, pk.KeyID)

	return pk.KeyID, pub, nil
}

// Sign signs msg. ECDSA signatures are returned in IEEE P1363 form.
// A BLS12-381 G2 key signs msg as a single message vector.
func (s *MemKeyStore) Sign(ctx context.Context, keyID string, msg []byte) ([]byte, error) {
	k, err := s.lockKey(ctx, keyID)
	if err != nil {
		return nil, err
	}
	defer k.mu.Unlock()

	if k.keyType == kms.BLS12381G2Type {
		return k.signer.SignMulti([][]byte{msg})
	}

	sig, err := k.signer.Sign(msg)
	if err != nil {
		return nil, fmt.Errorf("%s sign: %w", k.keyType, err)
	}

	return sig, nil
}

// SignMessages produces a BBS+ signature over msgs.
func (s *MemKeyStore) SignMessages(ctx context.Context, keyID string, msgs [][]byte) ([]byte, error) {
	k, err := s.lockKey(ctx, keyID)
	if err != nil {
		return nil, err
	}
	defer k.mu.Unlock()

	if k.keyType != kms.BLS12381G2Type {
		return nil, fmt.Errorf("%w: %s key cannot sign message vectors", ErrUnsupportedKeyAlgorithm, k.keyType)
	}

	sig, err := k.signer.SignMulti(msgs)
	if err != nil {
		return nil, fmt.Errorf("bbs sign: %w", err)
	}

	return sig, nil
}

// Delete removes the key and its keyset.
func (s *MemKeyStore) Delete(ctx context.Context, keyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[keyID]; !ok {
		return fmt.Errorf("delete %s: %w", keyID, ErrKeyNotFound)
	}

	if err := s.keysets.Delete(keyID); err != nil {
		return fmt.Errorf("delete %s: %w", keyID, err)
	}

	delete(s.keys, keyID)

	logger.Debugf("deleted key %s", keyID)

	return nil
}

// Exists reports whether the key is in the store.
func (s *MemKeyStore) Exists(ctx context.Context, keyID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.keys[keyID]

	return ok, nil
}

func (s *MemKeyStore) lockKey(ctx context.Context, keyID string) (*memKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	k, ok := s.keys[keyID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("sign with %s: %w", keyID, ErrKeyNotFound)
	}

	k.mu.Lock()

	return k, nil
}

// keysetStore holds the wrapped keysets of the local kms.
type keysetStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func (k *keysetStore) Put(keysetID string, key []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.data[keysetID] = append([]byte(nil), key...)

	return nil
}

func (k *keysetStore) Get(keysetID string) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	key, ok := k.data[keysetID]
	if !ok {
		return nil, fmt.Errorf("keyset %s: %w", keysetID, ErrKeyNotFound)
	}

	return key, nil
}

func (k *keysetStore) Delete(keysetID string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	delete(k.data, keysetID)

	return nil
}
