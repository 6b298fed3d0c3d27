/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/trustbloc/identity-go/did"
	"github.com/trustbloc/identity-go/jpt"
)

var (
	jwtIssuerPaths = []string{"iss", "vc.issuer.id", "vc.issuer"}
	jwtHolderPaths = []string{"iss", "vp.holder"}
)

// ExtractIssuerFromJWT returns the issuer DID of a JWT credential. The signature is not verified.
func ExtractIssuerFromJWT(token string) (did.DID, error) {
	payload, err := jwtPayload(token)
	if err != nil {
		return did.DID{}, err
	}

	return didAt(payload, jwtIssuerPaths)
}

// ExtractHolderFromJWT returns the holder DID of a JWT presentation. The signature is not verified.
func ExtractHolderFromJWT(token string) (did.DID, error) {
	payload, err := jwtPayload(token)
	if err != nil {
		return did.DID{}, err
	}

	return didAt(payload, jwtHolderPaths)
}

// ExtractIssuerFromJPT returns the issuer DID of an issued JPT. The signature is not verified.
func ExtractIssuerFromJPT(token string) (did.DID, error) {
	t, err := jpt.ParseIssued(token)
	if err != nil {
		return did.DID{}, fmt.Errorf("%w: %w", ErrInvalidStructure, err)
	}

	return jptIssuer(t.Header, t.Payloads)
}

// ExtractIssuerFromPresentedJPT returns the issuer DID of a presented JPT. The proof is not verified.
func ExtractIssuerFromPresentedJPT(token string) (did.DID, error) {
	t, err := jpt.ParsePresented(token)
	if err != nil {
		return did.DID{}, fmt.Errorf("%w: %w", ErrInvalidStructure, err)
	}

	return jptIssuer(t.Issuer, t.Payloads)
}

// jptIssuer reads the iss claim, falling back to the DID of the kid header.
func jptIssuer(header jpt.IssuerHeader, payloads [][]byte) (did.DID, error) {
	for i, path := range header.Claims {
		if path != "iss" || payloads[i] == nil {
			continue
		}

		if iss := gjson.ParseBytes(payloads[i]); iss.Type == gjson.String {
			return parseDID(iss.Str)
		}
	}

	kid, _, _ := strings.Cut(header.KeyID, "#")

	return parseDID(kid)
}

func jwtPayload(token string) ([]byte, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: JWT of compacted JWS form is supported only", ErrInvalidStructure)
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: decode JWT payload: %w", ErrInvalidStructure, err)
	}

	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: JWT payload is not JSON", ErrInvalidStructure)
	}

	return payload, nil
}

func didAt(payload []byte, paths []string) (did.DID, error) {
	for _, p := range paths {
		if v := gjson.GetBytes(payload, p); v.Type == gjson.String && v.Str != "" {
			return parseDID(v.Str)
		}
	}

	return did.DID{}, fmt.Errorf("%w: no DID in claims", ErrInvalidStructure)
}

func parseDID(s string) (did.DID, error) {
	if s == "" {
		return did.DID{}, errors.New("empty DID")
	}

	d, err := did.Parse(s)
	if err != nil {
		return did.DID{}, fmt.Errorf("%w: %w", ErrInvalidStructure, err)
	}

	return d, nil
}
