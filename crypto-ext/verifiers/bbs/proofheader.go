/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const proofCountLen = 2

// ErrMalformedProofHeader is returned when the disclosure header of a proof cannot be decoded.
var ErrMalformedProofHeader = errors.New("malformed bbs proof header")

// ProofHeader is the disclosure header leading a BBS+ proof: the length of the signed message vector
// and the ascending indexes of the messages the proof reveals.
type ProofHeader struct {
	MessagesCount int
	Revealed      []int
}

// ParseProofHeader decodes the disclosure header of proof. The layout is the big-endian uint16
// message count followed by a byte-reversed little-endian bit vector of the revealed indexes.
func ParseProofHeader(proof []byte) (*ProofHeader, error) {
	if len(proof) < proofCountLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedProofHeader, len(proof))
	}

	count := int(binary.BigEndian.Uint16(proof[:proofCountLen]))
	end := proofCountLen + count/8 + 1

	if len(proof) < end {
		return nil, fmt.Errorf("%w: bit vector of %d messages truncated", ErrMalformedProofHeader, count)
	}

	vector := proof[proofCountLen:end]
	last := len(vector) - 1

	var revealed []int

	for i := 0; i < len(vector)*8; i++ {
		if vector[last-i/8]&(1<<(i%8)) == 0 {
			continue
		}

		if i >= count {
			return nil, fmt.Errorf("%w: index %d beyond %d messages", ErrMalformedProofHeader, i, count)
		}

		revealed = append(revealed, i)
	}

	return &ProofHeader{MessagesCount: count, Revealed: revealed}, nil
}

// Reveals reports whether h discloses exactly the given ascending indexes of a vector of count messages.
func (h *ProofHeader) Reveals(count int, indexes []int) bool {
	if h.MessagesCount != count || len(h.Revealed) != len(indexes) {
		return false
	}

	for i, idx := range indexes {
		if h.Revealed[i] != idx {
			return false
		}
	}

	return true
}
