/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/trustbloc/kms-go/doc/jose"

	"github.com/trustbloc/identity-go/did"
	"github.com/trustbloc/identity-go/keystore"
	jsonutil "github.com/trustbloc/identity-go/util/json"
)

const (
	jwtFldVC    = "vc"
	jwtFldNonce = "nonce"
)

var registeredClaims = []string{"iss", "sub", "aud", "exp", "nbf", "iat", "jti", jwtFldNonce}

// JWTCredClaims is JWT Claims extension by Verifiable Credential (with custom "vc" claim).
type JWTCredClaims struct {
	*jwt.Claims

	Nonce string     `json:"nonce,omitempty"`
	VC    JSONObject `json:"vc,omitempty"`
}

// JWTClaims converts the credential into JWT claims. Fields expressed by registered claims (id, issuer,
// single subject id, issuance and expiration dates) are moved out of the vc claim.
func (vc *Credential) JWTClaims() (*JWTCredClaims, error) {
	vcc := &vc.credentialContents
	if vcc.Issuer == nil {
		return nil, fmt.Errorf("%w: issuer is not defined", ErrInvalidStructure)
	}

	subjectID, err := SubjectID(vcc.Subject)
	if err != nil {
		subjectID = ""
	}

	claims := &jwt.Claims{
		Issuer:    vcc.Issuer.ID,
		ID:        vcc.ID,
		Subject:   subjectID,
		NotBefore: toNumericDate(vcc.Issued),
		Expiry:    toNumericDate(vcc.Expired),
	}

	return &JWTCredClaims{
		Claims: claims,
		VC:     minimizeVC(vc.ToRawJSON(), subjectID != ""),
	}, nil
}

func minimizeVC(raw JSONObject, subjectIDMoved bool) JSONObject {
	delete(raw, jsonFldID)
	delete(raw, jsonFldIssued)
	delete(raw, jsonFldExpired)

	if issuer, ok := raw[jsonFldIssuer].(map[string]interface{}); ok {
		delete(issuer, jsonFldIssuerID)
	} else {
		delete(raw, jsonFldIssuer)
	}

	if subject, ok := raw[jsonFldSubject].(map[string]interface{}); ok && subjectIDMoved {
		delete(subject, jsonFldSubjectID)
	}

	return raw
}

// refineFromJWTClaims restores the fields moved into registered claims.
func refineFromJWTClaims(claims *jwt.Claims, raw JSONObject) {
	if claims.ID != "" {
		raw[jsonFldID] = claims.ID
	}

	if claims.Issuer != "" {
		if issuer, ok := raw[jsonFldIssuer].(map[string]interface{}); ok {
			issuer[jsonFldIssuerID] = claims.Issuer
		} else {
			raw[jsonFldIssuer] = claims.Issuer
		}
	}

	if claims.Subject != "" {
		switch subject := raw[jsonFldSubject].(type) {
		case map[string]interface{}:
			subject[jsonFldSubjectID] = claims.Subject
		case nil:
			raw[jsonFldSubject] = JSONObject{jsonFldSubjectID: claims.Subject}
		}
	}

	issued := claims.NotBefore
	if issued == nil {
		issued = claims.IssuedAt
	}

	if issued != nil {
		raw[jsonFldIssued] = toTimeWrapper(issued).FormatToString()
	}

	if claims.Expiry != nil {
		raw[jsonFldExpired] = toTimeWrapper(claims.Expiry).FormatToString()
	}
}

func decodeRegisteredClaims(payload JSONObject) (*jwt.Claims, error) {
	var claims jwt.Claims

	d, err := newClaimsDecoder(&claims)
	if err != nil {
		return nil, err
	}

	if err := d.Decode(payload); err != nil {
		return nil, fmt.Errorf("decode registered claims: %w", err)
	}

	return &claims, nil
}

// decodeCredentialClaims rebuilds a credential from the claims of a JWT or JPT. Full validation is
// skipped for disclosure views.
func decodeCredentialClaims(payload JSONObject, validate bool) (*Credential, *JWTCredClaims, error) {
	claims, err := decodeRegisteredClaims(payload)
	if err != nil {
		return nil, nil, err
	}

	rawVC, ok := payload[jwtFldVC].(map[string]interface{})
	if !ok {
		if !validate && payload[jwtFldVC] == nil {
			rawVC = JSONObject{}
		} else {
			return nil, nil, errors.New("vc claim is missing or not an object")
		}
	}

	vcJSON := jsonutil.DeepCopy(rawVC).(JSONObject)
	refineFromJWTClaims(claims, vcJSON)

	vc, err := newCredentialFromJSON(vcJSON, validate)
	if err != nil {
		return nil, nil, err
	}

	nonce, _ := payload[jwtFldNonce].(string)

	return vc, &JWTCredClaims{Claims: claims, Nonce: nonce, VC: rawVC}, nil
}

func customClaims(payload JSONObject, envelope string) JSONObject {
	custom := jsonutil.CopyExcept(payload, append(registeredClaims, envelope)...)
	if len(custom) == 0 {
		return nil
	}

	return custom
}

// CreateCredentialJWT signs vc as a JWT with the method of the issuer document named by fragment.
func CreateCredentialJWT(ctx context.Context, vc *Credential, issuerDoc *did.Document, storage *keystore.Storage,
	fragment string, opts JWSSignatureOptions) (string, error) {
	if err := checkIssuer(vc, issuerDoc); err != nil {
		return "", fmt.Errorf("create JWT credential: %w: %w", ErrIssuerMismatch, err)
	}

	claims, err := vc.JWTClaims()
	if err != nil {
		return "", fmt.Errorf("create JWT credential: %w", err)
	}

	claims.Nonce = opts.Nonce

	token, err := signClaims(ctx, claims, issuerDoc, storage, fragment, opts)
	if err != nil {
		return "", fmt.Errorf("create JWT credential: %w", err)
	}

	return token, nil
}

// DecodedCredential is a validated JWT credential.
type DecodedCredential struct {
	Credential   *Credential
	Header       jose.Headers
	CustomClaims JSONObject
}

// JWTCredentialValidator validates JWT credentials against the issuer DID document.
type JWTCredentialValidator struct{}

// NewJWTCredentialValidator creates a JWTCredentialValidator.
func NewJWTCredentialValidator() *JWTCredentialValidator {
	return &JWTCredentialValidator{}
}

// Validate verifies the signature of token with the method named by its kid header, then runs the
// semantic checks. A signature or structure failure is returned as *ValidationError, semantic
// violations as *CompoundValidationError collected according to failFast.
func (v *JWTCredentialValidator) Validate(token string, issuerDoc *did.Document, opts CredentialValidationOptions,
	failFast FailFast) (*DecodedCredential, error) {
	headers, payload, err := verifyJWS(token, issuerDoc, opts.MethodScope)
	if err != nil {
		return nil, err
	}

	vc, claims, err := decodeCredentialClaims(payload, true)
	if err != nil {
		return nil, newValidationError(ErrInvalidStructure, err)
	}

	bounds := newTimeBounds(opts.EarliestExpiryDate, opts.LatestIssuanceDate, opts.ClockSkew)

	c := newCollector(failFast)
	runChecks(c, append(credentialChecks(vc, issuerDoc, bounds),
		semanticCheck{ErrNonceMismatch, checkNonce(opts.Nonce, claims.Nonce)})...)

	if err := c.err(); err != nil {
		return nil, err
	}

	return &DecodedCredential{
		Credential:   vc,
		Header:       headers,
		CustomClaims: customClaims(payload, jwtFldVC),
	}, nil
}
