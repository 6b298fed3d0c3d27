/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package resolver resolves DIDs into DID documents by dispatching to per-method handlers.
package resolver

//go:generate mockgen -destination ../internal/mock/resolver/handler.go -package resolver -mock_names Handler=MockHandler . Handler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/trustbloc/identity-go/did"
)

var logger = log.New("identity-go/resolver")

const defaultConcurrency = 8

var (
	// ErrUnsupportedMethod is returned when no handler is attached for the DID method.
	ErrUnsupportedMethod = errors.New("unsupported DID method")
	// ErrResolutionFailed is returned when a handler cannot produce the document.
	ErrResolutionFailed = errors.New("DID resolution failed")
	// ErrDIDMismatch is returned when a handler returns the document of another DID.
	ErrDIDMismatch = errors.New("resolved document does not match requested DID")
)

// Handler resolves DIDs of one method.
type Handler interface {
	Resolve(ctx context.Context, id did.DID) (*did.Document, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, id did.DID) (*did.Document, error)

// Resolve calls f.
func (f HandlerFunc) Resolve(ctx context.Context, id did.DID) (*did.Document, error) {
	return f(ctx, id)
}

// Option is a Resolver option.
type Option func(r *Resolver)

// WithConcurrency bounds the number of concurrent resolutions of ResolveMultiple.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithRegisterer registers the resolution metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Resolver) {
		r.metrics = newMetrics(reg)
	}
}

// WithHandler attaches h for method.
func WithHandler(method string, h Handler) Option {
	return func(r *Resolver) {
		r.handlers[method] = h
	}
}

// Resolver dispatches DID resolution to the handler attached for the DID method. It keeps no cache;
// wrap handlers with NewCachingHandler for that.
type Resolver struct {
	mu          sync.RWMutex
	handlers    map[string]Handler
	concurrency int
	metrics     *metrics
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		handlers:    map[string]Handler{},
		concurrency: defaultConcurrency,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// AttachHandler attaches h for method, replacing a previous handler.
func (r *Resolver) AttachHandler(method string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[method] = h

	logger.Debugf("attached handler for DID method %s", method)
}

// Methods lists the methods with an attached handler in sorted order.
func (r *Resolver) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	methods := make([]string, 0, len(r.handlers))
	for m := range r.handlers {
		methods = append(methods, m)
	}

	sort.Strings(methods)

	return methods
}

// Resolve resolves didStr with the handler of its method.
func (r *Resolver) Resolve(ctx context.Context, didStr string) (*did.Document, error) {
	id, err := did.Parse(didStr)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	h, ok := r.handlers[id.Method]
	r.mu.RUnlock()

	if !ok {
		r.metrics.observe(unsupportedMethodLabel, outcomeUnsupported, 0)

		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, id.Method)
	}

	start := time.Now()

	doc, err := h.Resolve(ctx, id)
	if err != nil {
		r.metrics.observe(id.Method, outcomeFailed, time.Since(start))

		return nil, fmt.Errorf("%w: %s: %w", ErrResolutionFailed, id, err)
	}

	if doc == nil || !doc.ID().Equal(id) {
		r.metrics.observe(id.Method, outcomeFailed, time.Since(start))

		return nil, fmt.Errorf("%w: %w: %s", ErrResolutionFailed, ErrDIDMismatch, id)
	}

	r.metrics.observe(id.Method, outcomeResolved, time.Since(start))

	return doc, nil
}

// Results is the outcome of a batch resolution.
type Results struct {
	Documents map[string]*did.Document
	Errors    map[string]error
}

// ResolveMultiple resolves dids concurrently. It is best effort: DIDs that fail to resolve are left out
// of the result. Only a canceled context is returned as error.
func (r *Resolver) ResolveMultiple(ctx context.Context, dids []string) (map[string]*did.Document, error) {
	res, err := r.ResolveMultipleDetailed(ctx, dids)
	if err != nil {
		return nil, err
	}

	return res.Documents, nil
}

// ResolveMultipleDetailed resolves dids concurrently and reports the failure of every DID that did
// not resolve. Duplicates are resolved once.
func (r *Resolver) ResolveMultipleDetailed(ctx context.Context, dids []string) (*Results, error) {
	res := &Results{
		Documents: make(map[string]*did.Document, len(dids)),
		Errors:    map[string]error{},
	}

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	seen := make(map[string]struct{}, len(dids))

	for _, d := range dids {
		if _, ok := seen[d]; ok {
			continue
		}

		seen[d] = struct{}{}

		g.Go(func() error {
			doc, err := r.Resolve(gctx, d)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				logger.Warnf("resolve %s: %s", d, err)

				res.Errors[d] = err

				return nil
			}

			res.Documents[d] = doc

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve multiple: %w", err)
	}

	return res, nil
}
