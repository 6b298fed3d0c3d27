/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jpt

import (
	"fmt"
	"strings"

	"github.com/trustbloc/identity-go/crypto-ext/pubkey"
	"github.com/trustbloc/identity-go/crypto-ext/verifiers/bbs"
)

// PresentedToken is a JPT derived for a verifier. Payloads of concealed claims are nil.
type PresentedToken struct {
	Issuer       IssuerHeader
	Presentation PresentationHeader
	Payloads     [][]byte
	Proof        []byte

	issuerHeader       []byte
	presentationHeader []byte
}

// ParsePresented decodes the compact serialization of a presented token. The proof is not verified.
func ParsePresented(s string) (*PresentedToken, error) {
	parts := strings.Split(s, partSeparator)
	if len(parts) != presentedParts {
		return nil, fmt.Errorf("%w: expected %d parts, got %d", ErrMalformedToken, presentedParts, len(parts))
	}

	issuerHeader, err := decodeSegment("issuer header", parts[0])
	if err != nil {
		return nil, err
	}

	ih, err := parseIssuerHeader(issuerHeader)
	if err != nil {
		return nil, err
	}

	presentationHeader, err := decodeSegment("presentation header", parts[1])
	if err != nil {
		return nil, err
	}

	ph, err := parsePresentationHeader(presentationHeader)
	if err != nil {
		return nil, err
	}

	payloads, err := decodePayloads(parts[2], len(ih.Claims), true)
	if err != nil {
		return nil, err
	}

	proof, err := decodeSegment("proof", parts[3])
	if err != nil {
		return nil, err
	}

	if len(proof) == 0 {
		return nil, fmt.Errorf("%w: empty proof", ErrMalformedToken)
	}

	return &PresentedToken{
		Issuer:             *ih,
		Presentation:       *ph,
		Payloads:           payloads,
		Proof:              proof,
		issuerHeader:       issuerHeader,
		presentationHeader: presentationHeader,
	}, nil
}

// Serialize returns the compact serialization.
func (t *PresentedToken) Serialize() string {
	return strings.Join([]string{
		encodeSegment(t.issuerHeader),
		encodeSegment(t.presentationHeader),
		encodePayloads(t.Payloads),
		encodeSegment(t.Proof),
	}, partSeparator)
}

// Verify checks the proof against the issuer public key. The presentation header is the nonce.
// The proof must disclose exactly the issuer header and the claims carrying a payload.
func (t *PresentedToken) Verify(pub *pubkey.PublicKey) error {
	revealed := [][]byte{t.issuerHeader}
	indexes := []int{0}

	for i, p := range t.Payloads {
		if p == nil {
			continue
		}

		m, err := message(t.Issuer.Claims[i], p)
		if err != nil {
			return err
		}

		revealed = append(revealed, m)
		indexes = append(indexes, i+1)
	}

	header, err := bbs.ParseProofHeader(t.Proof)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDisclosureMismatch, err)
	}

	if !header.Reveals(len(t.Issuer.Claims)+1, indexes) {
		return fmt.Errorf("%w: proof reveals %v of %d messages, token carries %v of %d",
			ErrDisclosureMismatch, header.Revealed, header.MessagesCount, indexes, len(t.Issuer.Claims)+1)
	}

	return bbs.NewBBSG2SignatureProofVerifier().VerifyProof(t.Proof, revealed, t.presentationHeader, pub)
}

// Disclosed reports whether the claim at index i is revealed.
func (t *PresentedToken) Disclosed(i int) bool {
	return i >= 0 && i < len(t.Payloads) && t.Payloads[i] != nil
}

// Claims rebuilds the claim tree from the disclosed claims only.
func (t *PresentedToken) Claims() (map[string]interface{}, error) {
	return claimTree(t.Issuer.Claims, t.Payloads)
}
