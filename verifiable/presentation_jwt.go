/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/samber/lo"
	"github.com/trustbloc/kms-go/doc/jose"

	"github.com/trustbloc/identity-go/did"
	"github.com/trustbloc/identity-go/keystore"
	jsonutil "github.com/trustbloc/identity-go/util/json"
)

const jwtFldVP = "vp"

// JWTPresClaims is JWT Claims extension by Verifiable Presentation (with custom "vp" claim).
type JWTPresClaims struct {
	*jwt.Claims

	Nonce string     `json:"nonce,omitempty"`
	VP    JSONObject `json:"vp,omitempty"`
}

// JWTPresentationOptions holds the registered claims of a JWT presentation.
type JWTPresentationOptions struct {
	// ExpirationDate sets the exp claim.
	ExpirationDate *time.Time
	// IssuanceDate sets the nbf claim. Defaults to now.
	IssuanceDate *time.Time
	// Audience sets the aud claim.
	Audience string
}

// JWTClaims converts the presentation into JWT claims. The id and holder are moved into jti and iss.
func (vp *Presentation) JWTClaims(opts JWTPresentationOptions) (*JWTPresClaims, error) {
	raw, err := vp.raw()
	if err != nil {
		return nil, err
	}

	delete(raw, jsonFldID)
	delete(raw, jsonFldHolder)

	issued := time.Now()
	if opts.IssuanceDate != nil {
		issued = *opts.IssuanceDate
	}

	claims := &jwt.Claims{
		Issuer:    vp.Holder,
		ID:        vp.ID,
		NotBefore: jwt.NewNumericDate(issued),
	}

	if opts.ExpirationDate != nil {
		claims.Expiry = jwt.NewNumericDate(*opts.ExpirationDate)
	}

	if opts.Audience != "" {
		claims.Audience = jwt.Audience{opts.Audience}
	}

	return &JWTPresClaims{Claims: claims, VP: raw}, nil
}

// CreatePresentationJWT signs vp as a JWT with the method of the holder document named by fragment.
func CreatePresentationJWT(ctx context.Context, vp *Presentation, holderDoc *did.Document,
	storage *keystore.Storage, fragment string, sigOpts JWSSignatureOptions, opts JWTPresentationOptions,
) (string, error) {
	if vp.Holder != holderDoc.ID().String() {
		return "", fmt.Errorf("create JWT presentation: %w: holder %s, document %s",
			ErrHolderMismatch, vp.Holder, holderDoc.ID())
	}

	claims, err := vp.JWTClaims(opts)
	if err != nil {
		return "", fmt.Errorf("create JWT presentation: %w", err)
	}

	claims.Nonce = sigOpts.Nonce

	token, err := signClaims(ctx, claims, holderDoc, storage, fragment, sigOpts)
	if err != nil {
		return "", fmt.Errorf("create JWT presentation: %w", err)
	}

	return token, nil
}

// PresentationValidationOptions configures the validation of a JWT presentation.
type PresentationValidationOptions struct {
	// Nonce is the expected nonce claim. Empty skips the check.
	Nonce string
	// Audience must be one of the aud claim values when set.
	Audience string
	// EarliestExpiryDate is the date the presentation must still be valid at. Defaults to now.
	EarliestExpiryDate *time.Time
	// LatestIssuanceDate is the date the presentation must have been issued by. Defaults to now.
	LatestIssuanceDate *time.Time
	ClockSkew          time.Duration
	MethodScope        *did.MethodScope
}

// DecodedPresentation is a validated JWT presentation. Embedded credentials are not validated.
type DecodedPresentation struct {
	Presentation   *Presentation
	Header         jose.Headers
	Audience       []string
	IssuanceDate   *time.Time
	ExpirationDate *time.Time
	CustomClaims   JSONObject
}

// JWTPresentationValidator validates JWT presentations against the holder DID document.
type JWTPresentationValidator struct{}

// NewJWTPresentationValidator creates a JWTPresentationValidator.
func NewJWTPresentationValidator() *JWTPresentationValidator {
	return &JWTPresentationValidator{}
}

// Validate verifies the holder signature of token and runs the semantic checks.
func (v *JWTPresentationValidator) Validate(token string, holderDoc *did.Document,
	opts PresentationValidationOptions, failFast FailFast) (*DecodedPresentation, error) {
	headers, payload, err := verifyJWS(token, holderDoc, opts.MethodScope)
	if err != nil {
		return nil, err
	}

	claims, vp, err := decodePresentationClaims(payload)
	if err != nil {
		return nil, newValidationError(ErrInvalidStructure, err)
	}

	bounds := newTimeBounds(opts.EarliestExpiryDate, opts.LatestIssuanceDate, opts.ClockSkew)
	issued, expires := toTimeWrapper(claims.NotBefore), toTimeWrapper(claims.Expiry)

	c := newCollector(failFast)
	runChecks(c,
		semanticCheck{ErrHolderMismatch, func() error {
			if vp.Holder != holderDoc.ID().String() {
				return fmt.Errorf("holder %s, document %s", vp.Holder, holderDoc.ID())
			}

			return nil
		}},
		semanticCheck{ErrNonceMismatch, checkNonce(opts.Nonce, claims.Nonce)},
		semanticCheck{ErrAudienceMismatch, func() error {
			if opts.Audience == "" || lo.Contains(claims.Audience, opts.Audience) {
				return nil
			}

			return fmt.Errorf("expected %q, got %v", opts.Audience, []string(claims.Audience))
		}},
		semanticCheck{ErrPresentationExpired, func() error { return bounds.checkExpiry(expires) }},
		semanticCheck{ErrPresentationNotYetValid, func() error { return bounds.checkIssuance(issued) }},
	)

	if err := c.err(); err != nil {
		return nil, err
	}

	decoded := &DecodedPresentation{
		Presentation: vp,
		Header:       headers,
		Audience:     claims.Audience,
		CustomClaims: customClaims(payload, jwtFldVP),
	}

	if issued != nil {
		decoded.IssuanceDate = &issued.Time
	}

	if expires != nil {
		decoded.ExpirationDate = &expires.Time
	}

	return decoded, nil
}

func decodePresentationClaims(payload JSONObject) (*JWTPresClaims, *Presentation, error) {
	claims, err := decodeRegisteredClaims(payload)
	if err != nil {
		return nil, nil, err
	}

	rawVP, ok := payload[jwtFldVP].(map[string]interface{})
	if !ok {
		return nil, nil, errors.New("vp claim is missing or not an object")
	}

	vpJSON := jsonutil.DeepCopy(rawVP).(JSONObject)

	if claims.ID != "" {
		vpJSON[jsonFldID] = claims.ID
	}

	if claims.Issuer != "" {
		vpJSON[jsonFldHolder] = claims.Issuer
	}

	vp, err := parsePresentationJSON(vpJSON)
	if err != nil {
		return nil, nil, err
	}

	nonce, _ := payload[jwtFldNonce].(string)

	return &JWTPresClaims{Claims: claims, Nonce: nonce, VP: rawVP}, vp, nil
}
