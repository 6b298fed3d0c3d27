/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/did"
)

// nolint: gochecknoglobals
var (
	jwsKeyTypes = []kms.KeyType{kms.ED25519Type, kms.ECDSAP256TypeIEEEP1363, kms.ECDSASecp256k1TypeIEEEP1363}
	jwpKeyTypes = []kms.KeyType{kms.BLS12381G2Type}
)

// Storage combines a key store with the key id mapping and maintains both in step with DID documents.
type Storage struct {
	Keys   KeyStore
	KeyIDs KeyIDStore
}

// NewStorage creates Storage.
func NewStorage(keys KeyStore, keyIDs KeyIDStore) *Storage {
	return &Storage{Keys: keys, KeyIDs: keyIDs}
}

// NewMemStorage creates Storage with in-memory stores.
func NewMemStorage() (*Storage, error) {
	keys, err := NewMemKeyStore()
	if err != nil {
		return nil, err
	}

	return NewStorage(keys, NewMemKeyIDStore()), nil
}

// GenerateMethod generates a JWS signing key and inserts the matching method into doc.
// An empty fragment is replaced by a random one. Returns the fragment of the new method.
func (s *Storage) GenerateMethod(ctx context.Context, doc *did.Document, keyType kms.KeyType,
	fragment string, scope did.MethodScope) (string, error) {
	if !lo.Contains(jwsKeyTypes, keyType) {
		return "", fmt.Errorf("generate JWS method: %w: %s", ErrUnsupportedKeyAlgorithm, keyType)
	}

	return s.generateMethod(ctx, doc, keyType, fragment, scope)
}

// GenerateMethodJWP generates a BBS+ key and inserts the matching method into doc.
func (s *Storage) GenerateMethodJWP(ctx context.Context, doc *did.Document, keyType kms.KeyType,
	fragment string, scope did.MethodScope) (string, error) {
	if !lo.Contains(jwpKeyTypes, keyType) {
		return "", fmt.Errorf("generate JWP method: %w: %s", ErrUnsupportedKeyAlgorithm, keyType)
	}

	if _, ok := s.Keys.(BBSKeyStore); !ok {
		return "", fmt.Errorf("generate JWP method: key store %T cannot sign message vectors", s.Keys)
	}

	return s.generateMethod(ctx, doc, keyType, fragment, scope)
}

func (s *Storage) generateMethod(ctx context.Context, doc *did.Document, keyType kms.KeyType,
	fragment string, scope did.MethodScope) (string, error) {
	if fragment == "" {
		fragment = uuid.NewString()
	}

	id, err := doc.ID().Join(fragment)
	if err != nil {
		return "", fmt.Errorf("generate method: %w", err)
	}

	if _, err = doc.ResolveMethod(id.Fragment, nil); err == nil {
		return "", fmt.Errorf("generate method %s: %w", id, did.ErrFragmentCollision)
	}

	keyID, pub, err := s.Keys.Generate(ctx, keyType)
	if err != nil {
		return "", fmt.Errorf("generate method key: %w", err)
	}

	vm, err := did.NewVerificationMethod(id, doc.ID(), keyType, pub)
	if err != nil {
		return "", s.rollback(ctx, keyID, "", err)
	}

	digest := NewMethodDigest(vm)

	if err = s.KeyIDs.Insert(ctx, digest, keyID); err != nil {
		return "", s.rollback(ctx, keyID, "", err)
	}

	if err = doc.InsertMethod(vm, scope); err != nil {
		return "", s.rollback(ctx, keyID, digest, err)
	}

	return id.Fragment, nil
}

// rollback removes storage entries created for a method that could not be added to a document.
func (s *Storage) rollback(ctx context.Context, keyID string, digest MethodDigest, cause error) error {
	// cleanup must run even when ctx is already canceled
	ctx = context.WithoutCancel(ctx)
	errs := []error{cause}

	if digest != "" {
		if err := s.KeyIDs.Delete(ctx, digest); err != nil {
			errs = append(errs, fmt.Errorf("rollback key id: %w", err))
		}
	}

	if err := s.Keys.Delete(ctx, keyID); err != nil {
		logger.Errorf("failed to delete key %s after method generation error: %s", keyID, err)
		errs = append(errs, fmt.Errorf("rollback key: %w", err))
	}

	return fmt.Errorf("generate method: %w", errors.Join(errs...))
}

// PurgeMethod removes the method from doc and deletes its key and key id mapping.
func (s *Storage) PurgeMethod(ctx context.Context, doc *did.Document, fragment string) error {
	vm, err := doc.ResolveMethod(fragment, nil)
	if err != nil {
		return fmt.Errorf("purge method: %w", err)
	}

	digest := NewMethodDigest(vm)

	keyID, err := s.KeyIDs.Get(ctx, digest)
	if err != nil {
		return fmt.Errorf("purge method %s: %w", vm.ID, err)
	}

	if err = s.Keys.Delete(ctx, keyID); err != nil {
		return fmt.Errorf("purge method %s: %w", vm.ID, err)
	}

	if err = s.KeyIDs.Delete(ctx, digest); err != nil {
		return fmt.Errorf("purge method %s: %w", vm.ID, err)
	}

	if _, err = doc.RemoveMethod(vm.Fragment()); err != nil {
		return fmt.Errorf("purge method: %w", err)
	}

	return nil
}

// KeyIDFor returns the key store id of the key behind vm.
func (s *Storage) KeyIDFor(ctx context.Context, vm *did.VerificationMethod) (string, error) {
	return s.KeyIDs.Get(ctx, NewMethodDigest(vm))
}

// Signer returns a signer bound to the key of the method with the given fragment.
func (s *Storage) Signer(ctx context.Context, doc *did.Document, fragment string) (*Signer, error) {
	vm, err := doc.ResolveMethod(fragment, nil)
	if err != nil {
		return nil, fmt.Errorf("signer: %w", err)
	}

	keyID, err := s.KeyIDFor(ctx, vm)
	if err != nil {
		return nil, fmt.Errorf("signer for %s: %w", vm.ID, err)
	}

	return &Signer{ctx: ctx, keys: s.Keys, keyID: keyID, method: vm}, nil
}

// Signer signs with a single stored key. It is meant to live for the duration of one operation.
type Signer struct {
	ctx    context.Context //nolint:containedctx
	keys   KeyStore
	keyID  string
	method *did.VerificationMethod
}

// Sign signs data.
func (s *Signer) Sign(data []byte) ([]byte, error) {
	return s.keys.Sign(s.ctx, s.keyID, data)
}

// SignMessages produces a BBS+ signature over msgs.
func (s *Signer) SignMessages(msgs [][]byte) ([]byte, error) {
	bbsKeys, ok := s.keys.(BBSKeyStore)
	if !ok {
		return nil, fmt.Errorf("%w: key store %T cannot sign message vectors", ErrUnsupportedKeyAlgorithm, s.keys)
	}

	return bbsKeys.SignMessages(s.ctx, s.keyID, msgs)
}

// KeyType returns the type of the key.
func (s *Signer) KeyType() kms.KeyType {
	return s.method.KeyType
}

// Method returns the verification method of the key.
func (s *Signer) Method() *did.VerificationMethod {
	return s.method
}
