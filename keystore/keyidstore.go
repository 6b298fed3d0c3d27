/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keystore

import (
	"context"
	"fmt"
	"sync"
)

// MemKeyIDStore is an in-memory KeyIDStore.
type MemKeyIDStore struct {
	mu  sync.RWMutex
	ids map[MethodDigest]string
}

// NewMemKeyIDStore creates an empty MemKeyIDStore.
func NewMemKeyIDStore() *MemKeyIDStore {
	return &MemKeyIDStore{ids: make(map[MethodDigest]string)}
}

// Insert maps digest to keyID.
func (s *MemKeyIDStore) Insert(ctx context.Context, digest MethodDigest, keyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[digest]; ok {
		return fmt.Errorf("insert %s: %w", digest, ErrKeyIDExists)
	}

	s.ids[digest] = keyID

	return nil
}

// Get returns the key id mapped to digest.
func (s *MemKeyIDStore) Get(ctx context.Context, digest MethodDigest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keyID, ok := s.ids[digest]
	if !ok {
		return "", fmt.Errorf("get %s: %w", digest, ErrKeyIDNotFound)
	}

	return keyID, nil
}

// Delete removes the mapping of digest.
func (s *MemKeyIDStore) Delete(ctx context.Context, digest MethodDigest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[digest]; !ok {
		return fmt.Errorf("delete %s: %w", digest, ErrKeyIDNotFound)
	}

	delete(s.ids, digest)

	return nil
}
