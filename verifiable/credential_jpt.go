/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v3/jwt"
	kmsapi "github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/crypto-ext/pubkey"
	"github.com/trustbloc/identity-go/did"
	"github.com/trustbloc/identity-go/jpt"
	"github.com/trustbloc/identity-go/keystore"
	jsonutil "github.com/trustbloc/identity-go/util/json"
)

// JWPCredentialOptions holds optional parameters of a JPT credential.
type JWPCredentialOptions struct {
	// ExpiresAt overrides the exp claim.
	ExpiresAt *time.Time
	// CustomClaims are added next to the registered claims. They take part in selective disclosure.
	CustomClaims JSONObject
}

// CreateCredentialJPT signs vc as a BBS+ JPT with the BLS12-381 G2 method of the issuer document named
// by fragment. Every leaf claim becomes a separately disclosable message.
func CreateCredentialJPT(ctx context.Context, vc *Credential, issuerDoc *did.Document, storage *keystore.Storage,
	fragment string, opts JWPCredentialOptions) (string, error) {
	if err := checkIssuer(vc, issuerDoc); err != nil {
		return "", fmt.Errorf("create JPT credential: %w: %w", ErrIssuerMismatch, err)
	}

	signer, err := storage.Signer(ctx, issuerDoc, fragment)
	if err != nil {
		return "", fmt.Errorf("create JPT credential: %w", err)
	}

	if signer.KeyType() != kmsapi.BLS12381G2Type {
		return "", fmt.Errorf("create JPT credential: %w: %s", ErrUnsupportedKeyAlgorithm, signer.KeyType())
	}

	claims, err := vc.JWTClaims()
	if err != nil {
		return "", fmt.Errorf("create JPT credential: %w", err)
	}

	if opts.ExpiresAt != nil {
		claims.Expiry = jwt.NewNumericDate(*opts.ExpiresAt)
	}

	claimsMap, err := jsonutil.MergeCustomFields(claims, opts.CustomClaims)
	if err != nil {
		return "", fmt.Errorf("create JPT credential: %w", err)
	}

	token, err := jpt.Issue(claimsMap, signer.Method().ID.String(), signer)
	if err != nil {
		return "", fmt.Errorf("create JPT credential: %w", err)
	}

	return token.Serialize(), nil
}

// DecodedJPTCredential is a validated issued JPT credential.
type DecodedJPTCredential struct {
	Credential   *Credential
	Token        *jpt.IssuedToken
	CustomClaims JSONObject

	// Method is the issuer method the token was verified with.
	Method *did.VerificationMethod
}

// JPTCredentialValidator validates issued JPT credentials against the issuer DID document.
type JPTCredentialValidator struct{}

// NewJPTCredentialValidator creates a JPTCredentialValidator.
func NewJPTCredentialValidator() *JPTCredentialValidator {
	return &JPTCredentialValidator{}
}

// Validate verifies the BBS+ signature of token with the method named by its kid header, then runs the
// semantic checks.
func (v *JPTCredentialValidator) Validate(token string, issuerDoc *did.Document, opts JPTCredentialValidationOptions,
	failFast FailFast) (*DecodedJPTCredential, error) {
	t, err := jpt.ParseIssued(token)
	if err != nil {
		return nil, newValidationError(ErrInvalidStructure, err)
	}

	vm, pub, err := resolveBBSMethod(issuerDoc, t.Header.KeyID, opts.MethodScope)
	if err != nil {
		return nil, err
	}

	if err := t.Verify(pub); err != nil {
		return nil, newValidationError(ErrSignatureInvalid, err)
	}

	claims, err := t.Claims()
	if err != nil {
		return nil, newValidationError(ErrInvalidStructure, err)
	}

	vc, _, err := decodeCredentialClaims(claims, true)
	if err != nil {
		return nil, newValidationError(ErrInvalidStructure, err)
	}

	c := newCollector(failFast)
	runChecks(c, credentialChecks(vc, issuerDoc,
		newTimeBounds(opts.EarliestExpiryDate, opts.LatestIssuanceDate, opts.ClockSkew))...)

	if err := c.err(); err != nil {
		return nil, err
	}

	return &DecodedJPTCredential{
		Credential:   vc,
		Token:        t,
		CustomClaims: customClaims(claims, jwtFldVC),
		Method:       vm,
	}, nil
}

func resolveBBSMethod(doc *did.Document, kid string, scope *did.MethodScope) (
	*did.VerificationMethod, *pubkey.PublicKey, error) {
	vm, err := doc.ResolveMethod(kid, scope)
	if err != nil {
		return nil, nil, newValidationError(ErrVerificationMethodNotFound, err)
	}

	pub, err := bbsPublicKey(vm)
	if err != nil {
		return nil, nil, err
	}

	return vm, pub, nil
}

func bbsPublicKey(vm *did.VerificationMethod) (*pubkey.PublicKey, error) {
	if vm.KeyType != kmsapi.BLS12381G2Type {
		return nil, newValidationError(ErrUnsupportedKeyAlgorithm,
			fmt.Errorf("method %s has key type %s", vm.ID, vm.KeyType))
	}

	return pubkey.FromMethod(vm), nil
}
