/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package memledger is an in-memory DID ledger. Documents are kept in their packed state metadata form.
// The state map is authoritative, fastcache only holds recently read states and may evict them.
package memledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/trustbloc/identity-go/did"
)

var logger = log.New("identity-go/resolver/memledger")

const aliasIDLen = 32

var (
	// ErrNotFound is returned for a DID that was never published.
	ErrNotFound = errors.New("DID not published")
	// ErrDeactivated is returned when updating a deactivated document.
	ErrDeactivated = errors.New("DID document is deactivated")
	// ErrWrongNetwork is returned for documents of another method or network.
	ErrWrongNetwork = errors.New("document does not belong to this ledger")
)

// Ledger stores published DID documents of one method and network.
type Ledger struct {
	method  string
	network string

	mu     sync.RWMutex
	states map[string][]byte
	cache  *fastcache.Cache
}

// New creates a ledger for method and network. Up to cacheBytes of packed state are cached.
func New(method, network string, cacheBytes int) *Ledger {
	return &Ledger{
		method:  method,
		network: network,
		states:  make(map[string][]byte),
		cache:   fastcache.New(cacheBytes),
	}
}

// Placeholder returns a new placeholder document for this ledger.
func (l *Ledger) Placeholder() *did.Document {
	return did.NewPlaceholder(l.method, l.network)
}

// Publish assigns the final DID to the placeholder doc and stores it. doc is left unchanged.
func (l *Ledger) Publish(ctx context.Context, doc *did.Document) (*did.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !doc.IsPlaceholder() {
		return nil, fmt.Errorf("publish %s: %w", doc.ID(), did.ErrNotPlaceholder)
	}

	if err := l.checkNetwork(doc.ID()); err != nil {
		return nil, err
	}

	id, err := l.newDID()
	if err != nil {
		return nil, err
	}

	published := doc.Clone()

	if err := published.AssignID(id); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.put(published); err != nil {
		return nil, err
	}

	logger.Debugf("published %s", id)

	return published, nil
}

// Update replaces the state of a published document with doc.
func (l *Ledger) Update(ctx context.Context, doc *did.Document) (*did.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.get(doc.ID())
	if err != nil {
		return nil, err
	}

	if current.Metadata().Deactivated {
		return nil, fmt.Errorf("update %s: %w", doc.ID(), ErrDeactivated)
	}

	if err := current.ReplaceState(doc); err != nil {
		return nil, err
	}

	if err := l.put(current); err != nil {
		return nil, err
	}

	logger.Debugf("updated %s", doc.ID())

	return current, nil
}

// Deactivate marks the document of id as deactivated. It stays resolvable.
func (l *Ledger) Deactivate(ctx context.Context, id did.DID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.get(id)
	if err != nil {
		return err
	}

	meta := current.Metadata()
	meta.Deactivated = true
	current.SetMetadata(meta)

	if err := l.put(current); err != nil {
		return err
	}

	logger.Debugf("deactivated %s", id)

	return nil
}

// Resolve unpacks the stored state of id.
func (l *Ledger) Resolve(ctx context.Context, id did.DID) (*did.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := []byte(id.String())

	if data := l.cache.GetBig(nil, key); len(data) > 0 {
		return did.Unpack(data)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	doc, err := l.get(id)
	if err != nil {
		return nil, err
	}

	l.cache.SetBig(key, l.states[id.String()])

	return doc, nil
}

// get expects l.mu to be held.
func (l *Ledger) get(id did.DID) (*did.Document, error) {
	data, ok := l.states[id.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return did.Unpack(data)
}

func (l *Ledger) put(doc *did.Document) error {
	data, err := did.Pack(doc, did.EncodingJSON)
	if err != nil {
		return err
	}

	key := doc.ID().String()

	l.states[key] = data
	l.cache.Del([]byte(key))

	return nil
}

func (l *Ledger) checkNetwork(id did.DID) error {
	expected := l.Placeholder().ID()
	if id.Method != expected.Method || id.MethodSpecificID != expected.MethodSpecificID {
		return fmt.Errorf("%w: %s", ErrWrongNetwork, id)
	}

	return nil
}

func (l *Ledger) newDID() (did.DID, error) {
	alias := make([]byte, aliasIDLen)

	if _, err := rand.Read(alias); err != nil {
		return did.DID{}, fmt.Errorf("generate alias id: %w", err)
	}

	msi := "0x" + hex.EncodeToString(alias)
	if l.network != "" {
		msi = l.network + ":" + msi
	}

	return did.DID{Method: l.method, MethodSpecificID: msi}, nil
}
