/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vermethod

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trustbloc/identity-go/did"
)

const (
	resolveDIDParts = 2

	defaultResolveTimeout = 30 * time.Second
)

type didResolver interface {
	Resolve(ctx context.Context, did string) (*did.Document, error)
}

// VDRResolver resolves DID in order to find public keys for VC verification.
// A source of DID could be issuer of VC or holder of VP, obtained from the JWS kid header.
type VDRResolver struct {
	vdr     didResolver
	scope   *did.MethodScope
	timeout time.Duration
}

// VDROpt configures VDRResolver.
type VDROpt func(r *VDRResolver)

// WithScope restricts resolution to methods usable in the given scope.
func WithScope(scope did.MethodScope) VDROpt {
	return func(r *VDRResolver) {
		r.scope = &scope
	}
}

// WithTimeout bounds every DID resolution.
func WithTimeout(timeout time.Duration) VDROpt {
	return func(r *VDRResolver) {
		r.timeout = timeout
	}
}

// NewVDRResolver creates VDRResolver.
func NewVDRResolver(vdr didResolver, opts ...VDROpt) *VDRResolver {
	r := &VDRResolver{vdr: vdr, timeout: defaultResolveTimeout}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ResolveVerificationMethod resolves verification method by key id.
func (r *VDRResolver) ResolveVerificationMethod(keyID string, expectedProofIssuer string) (
	*did.VerificationMethod, error) {
	idSplit := strings.Split(keyID, "#")
	if len(idSplit) != resolveDIDParts {
		return nil, fmt.Errorf("wrong id %s to resolve", idSplit)
	}

	if err := checkIssuer(keyID, expectedProofIssuer); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	doc, err := r.vdr.Resolve(ctx, idSplit[0])
	if err != nil {
		return nil, fmt.Errorf("resolve DID %s: %w", idSplit[0], err)
	}

	return NewDocumentResolver(doc, r.scope).ResolveVerificationMethod(keyID, expectedProofIssuer)
}
