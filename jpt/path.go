/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jpt

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a claim path: an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Key returns an object key segment.
func Key(key string) Segment {
	return Segment{Key: key}
}

// Index returns an array index segment.
func Index(i int) Segment {
	return Segment{Index: i, IsIndex: true}
}

// ClaimPath addresses a node of a claim tree. Its string form joins keys with '.', writes array
// indexes as "[n]" and escapes '.', '[' and '\' inside keys with '\'.
type ClaimPath []Segment

// ParseClaimPath parses the string form of a claim path. The first segment must be a key.
func ParseClaimPath(s string) (ClaimPath, error) {
	var path ClaimPath

	i := 0
	for {
		key, next, err := parseKey(s, i)
		if err != nil {
			return nil, err
		}

		path = append(path, Key(key))
		i = next

		for i < len(s) && s[i] == '[' {
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: %q: unterminated index", ErrInvalidClaimPath, s)
			}

			n, err := strconv.Atoi(s[i+1 : i+end])
			if err != nil || !isDigits(s[i+1:i+end]) {
				return nil, fmt.Errorf("%w: %q: bad index %q", ErrInvalidClaimPath, s, s[i+1:i+end])
			}

			path = append(path, Index(n))
			i += end + 1
		}

		if i == len(s) {
			return path, nil
		}

		if s[i] != '.' {
			return nil, fmt.Errorf("%w: %q: unexpected %q at %d", ErrInvalidClaimPath, s, s[i], i)
		}

		i++
	}
}

func parseKey(s string, i int) (string, int, error) {
	var key strings.Builder

loop:
	for ; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 == len(s) || !isEscapable(s[i+1]) {
				return "", 0, fmt.Errorf("%w: %q: bad escape at %d", ErrInvalidClaimPath, s, i)
			}

			i++
			key.WriteByte(s[i])
		case '.', '[':
			break loop
		default:
			key.WriteByte(c)
		}
	}

	if key.Len() == 0 {
		return "", 0, fmt.Errorf("%w: %q: empty key at %d", ErrInvalidClaimPath, s, i)
	}

	return key.String(), i, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return s != ""
}

func isEscapable(c byte) bool {
	return c == '.' || c == '[' || c == '\\'
}

// MustParseClaimPath is like ParseClaimPath but panics on error.
func MustParseClaimPath(s string) ClaimPath {
	p, err := ParseClaimPath(s)
	if err != nil {
		panic(err)
	}

	return p
}

// String returns the string form of the path.
func (p ClaimPath) String() string {
	var sb strings.Builder

	for i, seg := range p {
		if seg.IsIndex {
			sb.WriteString("[" + strconv.Itoa(seg.Index) + "]")

			continue
		}

		if i > 0 {
			sb.WriteByte('.')
		}

		for j := 0; j < len(seg.Key); j++ {
			if isEscapable(seg.Key[j]) {
				sb.WriteByte('\\')
			}

			sb.WriteByte(seg.Key[j])
		}
	}

	return sb.String()
}

// HasPrefix reports whether p equals prefix or lies in the subtree addressed by prefix.
func (p ClaimPath) HasPrefix(prefix ClaimPath) bool {
	if len(prefix) > len(p) {
		return false
	}

	for i, seg := range prefix {
		if seg != p[i] {
			return false
		}
	}

	return true
}

// Join returns a new path with segs appended.
func (p ClaimPath) Join(segs ...Segment) ClaimPath {
	out := make(ClaimPath, 0, len(p)+len(segs))
	out = append(out, p...)

	return append(out, segs...)
}
