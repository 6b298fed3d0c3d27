/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/trustbloc/identity-go/did"
	"github.com/trustbloc/identity-go/proof/checker"
	"github.com/trustbloc/identity-go/proof/defaults"
	"github.com/trustbloc/identity-go/vermethod"
)

// DocumentResolver resolves DIDs one at a time or in batches. DIDs that cannot be resolved are missing
// from a batch result.
type DocumentResolver interface {
	Resolve(ctx context.Context, did string) (*did.Document, error)
	ResolveMultiple(ctx context.Context, dids []string) (map[string]*did.Document, error)
}

// Verifier validates presentations, resolving the holder and issuer documents they refer to.
type Verifier struct {
	resolver DocumentResolver
}

// NewVerifier creates a Verifier backed by resolver.
func NewVerifier(resolver DocumentResolver) *Verifier {
	return &Verifier{resolver: resolver}
}

// VerifiedPresentation is a JWT presentation whose holder and credentials are valid.
type VerifiedPresentation struct {
	Presentation *DecodedPresentation
	Credentials  []*DecodedCredential
}

// VerifyPresentation validates a JWT presentation and every JWT credential it carries. The holder
// document is resolved first, the issuer documents of all credentials in one batch.
func (v *Verifier) VerifyPresentation(ctx context.Context, token string, presOpts PresentationValidationOptions,
	credOpts CredentialValidationOptions, rel SubjectHolderRelationship,
	failFast FailFast) (*VerifiedPresentation, error) {
	holder, err := ExtractHolderFromJWT(token)
	if err != nil {
		return nil, newValidationError(ErrInvalidStructure, err)
	}

	holderDoc, err := v.resolveOne(ctx, holder)
	if err != nil {
		return nil, err
	}

	vp, err := NewJWTPresentationValidator().Validate(token, holderDoc, presOpts, failFast)
	if err != nil {
		return nil, err
	}

	issuers := make([]string, len(vp.Presentation.Credentials))

	for i, vcToken := range vp.Presentation.Credentials {
		issuer, err := ExtractIssuerFromJWT(vcToken)
		if err != nil {
			return nil, newValidationError(ErrInvalidStructure, fmt.Errorf("credential %d: %w", i, err))
		}

		issuers[i] = issuer.String()
	}

	docs, err := v.resolver.ResolveMultiple(ctx, lo.Uniq(issuers))
	if err != nil {
		return nil, newValidationError(ErrResolutionFailed, err)
	}

	verified := &VerifiedPresentation{Presentation: vp}
	credValidator := NewJWTCredentialValidator()
	c := newCollector(failFast)

	for i, vcToken := range vp.Presentation.Credentials {
		issuerDoc, ok := docs[issuers[i]]
		if !ok {
			if c.check(ErrResolutionFailed, fmt.Errorf("credential %d: no document for %s", i, issuers[i])) {
				break
			}

			continue
		}

		vc, err := credValidator.Validate(vcToken, issuerDoc, credOpts, failFast)
		if err != nil {
			if c.merge(fmt.Errorf("credential %d: %w", i, err)) {
				break
			}

			continue
		}

		if c.check(ErrSubjectHolderMismatch,
			CheckSubjectHolderRelationship(vc.Credential, vp.Presentation.Holder, rel)) {
			break
		}

		verified.Credentials = append(verified.Credentials, vc)
	}

	if err := c.err(); err != nil {
		return nil, err
	}

	return verified, nil
}

// VerifyJPTPresentation resolves the issuer of a presented JPT and validates it.
func (v *Verifier) VerifyJPTPresentation(ctx context.Context, token string, opts JPTPresentationValidationOptions,
	failFast FailFast) (*DecodedJPTPresentation, error) {
	issuer, err := ExtractIssuerFromPresentedJPT(token)
	if err != nil {
		return nil, newValidationError(ErrInvalidStructure, err)
	}

	issuerDoc, err := v.resolveOne(ctx, issuer)
	if err != nil {
		return nil, err
	}

	return NewJPTPresentationValidator().Validate(token, issuerDoc, opts, failFast)
}

// ProofChecker returns a JWS proof checker that resolves the DID of every kid header on demand.
// It serves jwt.Parse for tokens whose signer document is not known up front.
func (v *Verifier) ProofChecker(opts ...vermethod.VDROpt) *checker.ProofChecker {
	return defaults.NewDefaultProofChecker(vermethod.NewVDRResolver(v.resolver, opts...))
}

func (v *Verifier) resolveOne(ctx context.Context, id did.DID) (*did.Document, error) {
	docs, err := v.resolver.ResolveMultiple(ctx, []string{id.String()})
	if err != nil {
		return nil, newValidationError(ErrResolutionFailed, err)
	}

	doc, ok := docs[id.String()]
	if !ok {
		return nil, newValidationError(ErrResolutionFailed, fmt.Errorf("no document for %s", id))
	}

	return doc, nil
}
