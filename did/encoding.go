/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// StateMetadataEncoding identifies the serialization of a packed document payload.
type StateMetadataEncoding byte

// EncodingJSON is the only encoding currently defined.
const EncodingJSON StateMetadataEncoding = 0

const (
	stateMetadataVersion = 1
	// magic(3) | version(1) | encoding(1) | length(2).
	stateHeaderLen = 7
)

// nolint: gochecknoglobals
var stateMagic = []byte("DID")

var (
	// ErrInvalidStateMetadata is returned for packed data with a wrong prefix, version or length.
	ErrInvalidStateMetadata = errors.New("invalid state metadata")
	// ErrUnknownEncoding is returned for an encoding byte that is not defined.
	ErrUnknownEncoding = errors.New("unknown state metadata encoding")
)

// Pack serializes doc into the on-ledger state metadata form:
// "DID" | version | encoding | payload length (uint16, little endian) | payload.
func Pack(doc *Document, enc StateMetadataEncoding) ([]byte, error) {
	if enc != EncodingJSON {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEncoding, enc)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("pack document: %w", err)
	}

	if len(payload) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds %d", ErrInvalidStateMetadata, len(payload),
			math.MaxUint16)
	}

	buf := make([]byte, stateHeaderLen, stateHeaderLen+len(payload))
	copy(buf, stateMagic)
	buf[3] = stateMetadataVersion
	buf[4] = byte(enc)
	binary.LittleEndian.PutUint16(buf[5:stateHeaderLen], uint16(len(payload)))

	return append(buf, payload...), nil
}

// Unpack parses packed state metadata back into a document.
func Unpack(data []byte) (*Document, error) {
	if len(data) < stateHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrInvalidStateMetadata, len(data))
	}

	if !bytes.Equal(data[:3], stateMagic) {
		return nil, fmt.Errorf("%w: bad prefix %q", ErrInvalidStateMetadata, data[:3])
	}

	if data[3] != stateMetadataVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidStateMetadata, data[3])
	}

	enc := StateMetadataEncoding(data[4])
	if enc != EncodingJSON {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEncoding, enc)
	}

	length := int(binary.LittleEndian.Uint16(data[5:stateHeaderLen]))
	payload := data[stateHeaderLen:]

	if len(payload) != length {
		return nil, fmt.Errorf("%w: declared length %d, got %d", ErrInvalidStateMetadata, length, len(payload))
	}

	doc, err := ParseDocument(payload)
	if err != nil {
		return nil, fmt.Errorf("unpack document: %w", err)
	}

	return doc, nil
}
