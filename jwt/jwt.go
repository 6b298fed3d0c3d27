/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwt

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/go-jose/go-jose/v3/json"
	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/trustbloc/kms-go/doc/jose"
)

const (
	// TypeJWT defines JWT type.
	TypeJWT = "JWT"

	jwsParts = 3
)

var (
	// ErrNotCompactJWS is returned for tokens that are not compact JWS.
	ErrNotCompactJWS = errors.New("JWT of compacted JWS form is supported only")
	// ErrNoProofChecker is returned by Parse without WithProofChecker.
	ErrNoProofChecker = errors.New("proof checker is not defined")
	// ErrInvalidHeaders is returned when the protected headers do not describe a plain signed JWT.
	ErrInvalidHeaders = errors.New("invalid JWT headers")
)

// Claims defines JSON Web Token Claims (https://tools.ietf.org/html/rfc7519#section-4)
type Claims jwt.Claims

type parseOpts struct {
	proofChecker        ProofChecker
	expectedProofIssuer *string
}

// ParseOpt is the JWT Parser option.
type ParseOpt func(opts *parseOpts)

// WithProofChecker sets the checker of the JWS signature. Required.
func WithProofChecker(proofChecker ProofChecker) ParseOpt {
	return func(opts *parseOpts) {
		opts.proofChecker = proofChecker
	}
}

// WithExpectedIssuer sets the DID expected to control the signing key.
// By default it is derived from the kid header.
func WithExpectedIssuer(issuer string) ParseOpt {
	return func(opts *parseOpts) {
		opts.expectedProofIssuer = &issuer
	}
}

// JSONWebToken defines JSON Web Token (https://tools.ietf.org/html/rfc7519)
type JSONWebToken struct {
	Headers jose.Headers

	Payload map[string]interface{}

	jws *jose.JSONWebSignature
}

// Parse verifies the signature of a compact JWS and returns the token with its raw payload.
func Parse(jwtSerialized string, opts ...ParseOpt) (*JSONWebToken, []byte, error) {
	if !jose.IsCompactJWS(jwtSerialized) {
		return nil, nil, ErrNotCompactJWS
	}

	pOpts := &parseOpts{}

	for _, opt := range opts {
		opt(pOpts)
	}

	if pOpts.proofChecker == nil {
		return nil, nil, ErrNoProofChecker
	}

	jws, err := jose.ParseJWS(jwtSerialized, &joseVerifier{
		proofChecker:        pOpts.proofChecker,
		expectedProofIssuer: pOpts.expectedProofIssuer,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("parse JWT from compact JWS: %w", err)
	}

	if err = CheckHeaders(jws.ProtectedHeaders); err != nil {
		return nil, nil, err
	}

	claims, err := PayloadToMap(jws.Payload)
	if err != nil {
		return nil, nil, fmt.Errorf("read JWT claims from JWS payload: %w", err)
	}

	return &JSONWebToken{Headers: jws.ProtectedHeaders, Payload: claims, jws: jws}, jws.Payload, nil
}

// DecodeHeaders reads the protected headers of a compact JWS without verifying it.
func DecodeHeaders(jwtSerialized string) (jose.Headers, error) {
	parts, err := splitCompact(jwtSerialized)
	if err != nil {
		return nil, err
	}

	headers, err := decodeSegment(parts[0])
	if err != nil {
		return nil, fmt.Errorf("read JWT headers: %w", err)
	}

	return headers, nil
}

// DecodeClaims fills input c with claims of a token.
func (j *JSONWebToken) DecodeClaims(c interface{}) error {
	pBytes, err := json.Marshal(j.Payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(pBytes, c)
}

// LookupStringHeader returns the header value, or "" when it is absent or not a string.
func (j *JSONWebToken) LookupStringHeader(name string) string {
	s, _ := j.Headers[name].(string)

	return s
}

// Serialize makes (compact) serialization of token.
func (j *JSONWebToken) Serialize() (string, error) {
	if j.jws == nil {
		return "", errors.New("JWS serialization is supported only")
	}

	return j.jws.SerializeCompact(false)
}

// NewSigned creates new signed JSON Web Token based on input claims.
func NewSigned(claims interface{}, signParams SignParameters, signer ProofCreator) (*JSONWebToken, error) {
	joseSigner, err := NewJOSESigner(signParams, signer)
	if err != nil {
		return nil, err
	}

	return NewJoseSigned(claims, signParams.AdditionalHeaders, joseSigner)
}

// NewJoseSigned creates new signed JSON Web Token based on input claims.
func NewJoseSigned(claims interface{}, headers jose.Headers, signer jose.Signer) (*JSONWebToken, error) {
	payloadMap, err := PayloadToMap(claims)
	if err != nil {
		return nil, fmt.Errorf("unmarshallable claims: %w", err)
	}

	payloadBytes, err := json.Marshal(payloadMap)
	if err != nil {
		return nil, fmt.Errorf("marshal JWT claims: %w", err)
	}

	// compact serialization carries protected headers only
	jws, err := jose.NewJWS(headers, nil, payloadBytes, signer)
	if err != nil {
		return nil, fmt.Errorf("create JWS: %w", err)
	}

	return &JSONWebToken{Headers: jws.ProtectedHeaders, Payload: payloadMap, jws: jws}, nil
}

// IsJWS reports whether s has three segments and JSON objects for headers and payload.
func IsJWS(s string) bool {
	parts, err := splitCompact(s)
	if err != nil || parts[2] == "" {
		return false
	}

	for _, p := range parts[:2] {
		if _, err = decodeSegment(p); err != nil {
			return false
		}
	}

	return true
}

func splitCompact(s string) ([]string, error) {
	parts := strings.Split(s, ".")
	if len(parts) != jwsParts {
		return nil, ErrNotCompactJWS
	}

	return parts, nil
}

func decodeSegment(segment string) (map[string]interface{}, error) {
	b, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return nil, fmt.Errorf("decode segment: %w", err)
	}

	return PayloadToMap(b)
}

// CheckHeaders accepts headers of a signed, non-nested JWT. A typ header must be JWT
// or an explicit type ending in +jwt.
func CheckHeaders(headers map[string]interface{}) error {
	h := jose.Headers(headers)

	if _, ok := h[jose.HeaderAlgorithm]; !ok {
		return fmt.Errorf("%w: alg header is not defined", ErrInvalidHeaders)
	}

	if _, present := h[jose.HeaderType]; present {
		typ, ok := h.Type()
		if !ok {
			return fmt.Errorf("%w: invalid typ header format", ErrInvalidHeaders)
		}

		if !isJWTType(typ) {
			return fmt.Errorf("%w: typ %q is not JWT", ErrInvalidHeaders, typ)
		}
	}

	if cty, _ := h.ContentType(); cty == TypeJWT {
		return fmt.Errorf("%w: nested JWT is not supported", ErrInvalidHeaders)
	}

	return nil
}

// RFC 8725 section 3.11 explicit typing, e.g. vc+jwt.
func isJWTType(typ string) bool {
	if _, suffix, explicit := strings.Cut(typ, "+"); explicit {
		return strings.EqualFold(suffix, TypeJWT)
	}

	return typ == TypeJWT
}

// PayloadToMap decodes JSON bytes, a JSON string, or any marshallable value into a map.
// Numbers are kept as json.Number.
func PayloadToMap(i interface{}) (map[string]interface{}, error) {
	var b []byte

	switch v := i.(type) {
	case map[string]interface{}:
		return v, nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		var err error

		if b, err = json.Marshal(i); err != nil {
			return nil, fmt.Errorf("marshal interface[%T]: %w", i, err)
		}
	}

	var m map[string]interface{}

	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()

	if err := d.Decode(&m); err != nil {
		return nil, fmt.Errorf("convert to map: %w", err)
	}

	return m, nil
}
