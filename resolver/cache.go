/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resolver

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/trustbloc/identity-go/did"
)

// CachingHandler keeps the documents resolved by a handler for a limited time.
// Failed resolutions are not cached.
type CachingHandler struct {
	next  Handler
	cache *expirable.LRU[string, *did.Document]
}

// NewCachingHandler wraps next with a cache of at most size documents kept for ttl.
func NewCachingHandler(next Handler, size int, ttl time.Duration) *CachingHandler {
	return &CachingHandler{
		next:  next,
		cache: expirable.NewLRU[string, *did.Document](size, nil, ttl),
	}
}

// Resolve returns a copy of the cached document or resolves it with the wrapped handler.
func (h *CachingHandler) Resolve(ctx context.Context, id did.DID) (*did.Document, error) {
	key := id.String()

	if doc, ok := h.cache.Get(key); ok {
		return doc.Clone(), nil
	}

	doc, err := h.next.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	h.cache.Add(key, doc.Clone())

	return doc, nil
}

// Purge drops every cached document.
func (h *CachingHandler) Purge() {
	h.cache.Purge()
}
