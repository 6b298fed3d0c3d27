/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jpt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/trustbloc/identity-go/crypto-ext/pubkey"
	"github.com/trustbloc/identity-go/crypto-ext/verifiers/bbs"
)

// MessageSigner produces a BBS+ signature over an ordered message vector.
type MessageSigner interface {
	SignMessages(msgs [][]byte) ([]byte, error)
}

// IssuedToken is a JPT in its issued form.
type IssuedToken struct {
	Header    IssuerHeader
	Payloads  [][]byte
	Signature []byte

	header []byte
}

// Issue flattens claims and signs them with signer. The kid header is set to keyID. Claims whose
// path has no string form, such as an empty object key, are rejected.
func Issue(claims map[string]interface{}, keyID string, signer MessageSigner) (*IssuedToken, error) {
	flat := Flatten(claims)

	t := &IssuedToken{
		Header: IssuerHeader{
			Typ:    TypeJPT,
			Alg:    AlgorithmBBS,
			KeyID:  keyID,
			Claims: make([]string, len(flat)),
		},
		Payloads: make([][]byte, len(flat)),
	}

	for i, c := range flat {
		v, err := json.Marshal(c.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal claim %s: %w", c.Path, err)
		}

		path := c.Path.String()
		if _, err := ParseClaimPath(path); err != nil {
			return nil, err
		}

		t.Header.Claims[i] = path
		t.Payloads[i] = v
	}

	header, err := json.Marshal(t.Header)
	if err != nil {
		return nil, fmt.Errorf("marshal issuer header: %w", err)
	}

	t.header = header

	msgs, err := t.messages()
	if err != nil {
		return nil, err
	}

	t.Signature, err = signer.SignMessages(msgs)
	if err != nil {
		return nil, fmt.Errorf("sign JPT: %w", err)
	}

	return t, nil
}

// ParseIssued decodes the compact serialization of an issued token. The signature is not verified.
func ParseIssued(s string) (*IssuedToken, error) {
	parts := strings.Split(s, partSeparator)
	if len(parts) != issuedParts {
		return nil, fmt.Errorf("%w: expected %d parts, got %d", ErrMalformedToken, issuedParts, len(parts))
	}

	header, err := decodeSegment("issuer header", parts[0])
	if err != nil {
		return nil, err
	}

	h, err := parseIssuerHeader(header)
	if err != nil {
		return nil, err
	}

	payloads, err := decodePayloads(parts[1], len(h.Claims), false)
	if err != nil {
		return nil, err
	}

	sig, err := decodeSegment("signature", parts[2])
	if err != nil {
		return nil, err
	}

	if len(sig) == 0 {
		return nil, fmt.Errorf("%w: empty signature", ErrMalformedToken)
	}

	return &IssuedToken{Header: *h, Payloads: payloads, Signature: sig, header: header}, nil
}

// Serialize returns the compact serialization.
func (t *IssuedToken) Serialize() string {
	return strings.Join([]string{
		encodeSegment(t.header),
		encodePayloads(t.Payloads),
		encodeSegment(t.Signature),
	}, partSeparator)
}

// Verify checks the signature against the issuer public key.
func (t *IssuedToken) Verify(pub *pubkey.PublicKey) error {
	msgs, err := t.messages()
	if err != nil {
		return err
	}

	return bbs.NewBBSG2SignatureVerifier().VerifyMessages(t.Signature, msgs, pub)
}

// Claims rebuilds the signed claim tree.
func (t *IssuedToken) Claims() (map[string]interface{}, error) {
	return claimTree(t.Header.Claims, t.Payloads)
}

// Present derives a presentation that withholds the claims at the concealed indexes.
// The proof is bound to the serialized presentation header.
func (t *IssuedToken) Present(concealed []int, header PresentationHeader, pub *pubkey.PublicKey) (
	*PresentedToken, error) {
	header.Alg = AlgorithmBBSProof

	presHeader, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("marshal presentation header: %w", err)
	}

	hidden := make(map[int]bool, len(concealed))

	for _, i := range concealed {
		if i < 0 || i >= len(t.Payloads) {
			return nil, fmt.Errorf("%w: claim index %d", ErrClaimPathNotFound, i)
		}

		hidden[i] = true
	}

	msgs, err := t.messages()
	if err != nil {
		return nil, err
	}

	revealed := []int{0}
	payloads := make([][]byte, len(t.Payloads))

	for i, p := range t.Payloads {
		if !hidden[i] {
			revealed = append(revealed, i+1)
			payloads[i] = p
		}
	}

	proof, err := bbs.DeriveProof(msgs, t.Signature, presHeader, revealed, pub)
	if err != nil {
		return nil, err
	}

	return &PresentedToken{
		Issuer:             t.Header,
		Presentation:       header,
		Payloads:           payloads,
		Proof:              proof,
		issuerHeader:       t.header,
		presentationHeader: presHeader,
	}, nil
}

// messages returns the issuer header followed by one [path, value] message per claim.
func (t *IssuedToken) messages() ([][]byte, error) {
	if t.header == nil {
		return nil, errors.New("issued token has no serialized header")
	}

	msgs := make([][]byte, 0, len(t.Payloads)+1)
	msgs = append(msgs, t.header)

	for i, p := range t.Payloads {
		m, err := message(t.Header.Claims[i], p)
		if err != nil {
			return nil, err
		}

		msgs = append(msgs, m)
	}

	return msgs, nil
}

func claimTree(paths []string, payloads [][]byte) (map[string]interface{}, error) {
	claims := make([]Claim, 0, len(payloads))

	for i, p := range payloads {
		if p == nil {
			continue
		}

		path, err := ParseClaimPath(paths[i])
		if err != nil {
			return nil, err
		}

		v, err := decodeValue(p)
		if err != nil {
			return nil, err
		}

		claims = append(claims, Claim{Path: path, Value: v})
	}

	return Unflatten(claims)
}
