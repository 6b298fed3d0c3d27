/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jpt implements compact JSON Proof Tokens signed with BBS+ over BLS12-381.
//
// An issued token carries the issuer protected header, one payload per flattened claim and
// the BBS+ signature. A presented token adds a presentation header, withholds concealed payloads
// and replaces the signature with a proof bound to the presentation header.
package jpt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	// TypeJPT is the typ of the issuer protected header.
	TypeJPT = "JPT"
	// AlgorithmBBS is the issuer signature algorithm.
	AlgorithmBBS = "BBS-BLS12381-SHA256"
	// AlgorithmBBSProof is the presentation proof algorithm.
	AlgorithmBBSProof = "BBS-BLS12381-SHA256-PROOF"

	partSeparator    = "."
	payloadSeparator = "~"

	issuedParts    = 3
	presentedParts = 4
)

var (
	// ErrMalformedToken is returned when a token does not follow the compact serialization.
	ErrMalformedToken = errors.New("malformed JPT")
	// ErrUnsupportedAlgorithm is returned for an unknown alg or typ header.
	ErrUnsupportedAlgorithm = errors.New("unsupported JPT algorithm")
	// ErrInvalidClaimPath is returned when a claim path cannot be parsed.
	ErrInvalidClaimPath = errors.New("invalid claim path")
	// ErrClaimPathNotFound is returned when a claim path matches no claim of the token.
	ErrClaimPathNotFound = errors.New("claim path not found")
	// ErrDisclosureMismatch is returned when the payloads of a presented token are not the messages its
	// proof discloses.
	ErrDisclosureMismatch = errors.New("disclosed claims do not match proof")
)

func encodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeSegment(name, s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrMalformedToken, name, err)
	}

	return b, nil
}

func encodePayloads(payloads [][]byte) string {
	segments := make([]string, len(payloads))

	for i, p := range payloads {
		if p != nil {
			segments[i] = encodeSegment(p)
		}
	}

	return strings.Join(segments, payloadSeparator)
}

// decodePayloads splits the payload part into count payloads. Empty segments decode to nil
// and are accepted only when allowEmpty is set.
func decodePayloads(part string, count int, allowEmpty bool) ([][]byte, error) {
	if count == 0 {
		if part != "" {
			return nil, fmt.Errorf("%w: payloads present without claims", ErrMalformedToken)
		}

		return nil, nil
	}

	segments := strings.Split(part, payloadSeparator)
	if len(segments) != count {
		return nil, fmt.Errorf("%w: %d payloads for %d claims", ErrMalformedToken, len(segments), count)
	}

	payloads := make([][]byte, count)

	for i, s := range segments {
		if s == "" {
			if !allowEmpty {
				return nil, fmt.Errorf("%w: empty payload %d", ErrMalformedToken, i)
			}

			continue
		}

		p, err := decodeSegment("payload", s)
		if err != nil {
			return nil, err
		}

		payloads[i] = p
	}

	return payloads, nil
}
