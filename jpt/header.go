/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jpt

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// IssuerHeader is the issuer protected header. Claims lists the claim paths in message order.
type IssuerHeader struct {
	Typ    string   `json:"typ"`
	Alg    string   `json:"alg"`
	KeyID  string   `json:"kid"`
	Claims []string `json:"claims"`
}

// PresentationHeader is the presentation protected header. Its serialized bytes are the proof nonce.
type PresentationHeader struct {
	Alg      string `json:"alg"`
	Nonce    string `json:"nonce,omitempty"`
	Audience string `json:"aud,omitempty"`
}

// Indexes returns the claim indexes addressed by prefix, including every leaf of a subtree.
func (h *IssuerHeader) Indexes(prefix ClaimPath) ([]int, error) {
	var out []int

	for i, c := range h.Claims {
		p, err := ParseClaimPath(c)
		if err != nil {
			return nil, err
		}

		if p.HasPrefix(prefix) {
			out = append(out, i)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrClaimPathNotFound, prefix)
	}

	return out, nil
}

func parseIssuerHeader(b []byte) (*IssuerHeader, error) {
	var h IssuerHeader

	if err := json.Unmarshal(b, &h); err != nil {
		return nil, fmt.Errorf("%w: issuer header: %w", ErrMalformedToken, err)
	}

	if h.Typ != TypeJPT || h.Alg != AlgorithmBBS {
		return nil, fmt.Errorf("%w: typ %q alg %q", ErrUnsupportedAlgorithm, h.Typ, h.Alg)
	}

	for _, c := range h.Claims {
		if _, err := ParseClaimPath(c); err != nil {
			return nil, fmt.Errorf("%w: issuer header: %w", ErrMalformedToken, err)
		}
	}

	return &h, nil
}

func parsePresentationHeader(b []byte) (*PresentationHeader, error) {
	var h PresentationHeader

	if err := json.Unmarshal(b, &h); err != nil {
		return nil, fmt.Errorf("%w: presentation header: %w", ErrMalformedToken, err)
	}

	if h.Alg != AlgorithmBBSProof {
		return nil, fmt.Errorf("%w: presentation alg %q", ErrUnsupportedAlgorithm, h.Alg)
	}

	return &h, nil
}

// message binds a claim value to its path: the JSON array [path, value].
func message(path string, payload []byte) ([]byte, error) {
	p, err := json.Marshal(path)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	buf.WriteByte('[')
	buf.Write(p)
	buf.WriteByte(',')
	buf.Write(payload)
	buf.WriteByte(']')

	return buf.Bytes(), nil
}

func decodeValue(payload []byte) (interface{}, error) {
	var v interface{}

	d := json.NewDecoder(bytes.NewReader(payload))
	d.UseNumber()

	if err := d.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: payload: %w", ErrMalformedToken, err)
	}

	if d.More() {
		return nil, fmt.Errorf("%w: trailing data in payload", ErrMalformedToken)
	}

	return v, nil
}
