/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	didgo "github.com/trustbloc/did-go/doc/did"
)

const (
	didScheme         = "did"
	fragmentSeparator = "#"
)

var (
	// ErrMalformedIdentifier is returned when a string does not follow the generic DID syntax.
	ErrMalformedIdentifier = errors.New("malformed DID")

	// did-go accepts any non-colon last character
	methodSpecificIDRegex = regexp.MustCompile(`^[a-zA-Z0-9._%:-]*[a-zA-Z0-9._%-]$`)

	fragmentRegex = regexp.MustCompile(`^[a-zA-Z0-9._~!$&'()*+,;=:@%/?-]+$`)
)

// DID is parsed according to the generic syntax: https://www.w3.org/TR/did-core/#did-syntax.
// DID values are immutable and compared by value.
type DID struct {
	Method           string
	MethodSpecificID string
}

// Parse parses the string according to the generic DID syntax.
func Parse(did string) (DID, error) {
	parsed, err := didgo.Parse(did)
	if err != nil {
		return DID{}, fmt.Errorf("%w: %w", ErrMalformedIdentifier, err)
	}

	return fromDIDGo(parsed, did)
}

func fromDIDGo(parsed *didgo.DID, did string) (DID, error) {
	if !methodSpecificIDRegex.MatchString(parsed.MethodSpecificID) {
		return DID{}, fmt.Errorf("%w: %q", ErrMalformedIdentifier, did)
	}

	return DID{Method: parsed.Method, MethodSpecificID: parsed.MethodSpecificID}, nil
}

// MustParse is like Parse but panics on malformed input. Intended for constants and tests.
func MustParse(did string) DID {
	d, err := Parse(did)
	if err != nil {
		panic(err)
	}

	return d
}

// String returns the string form of the DID.
func (d DID) String() string {
	if d.IsZero() {
		return ""
	}

	return didScheme + ":" + d.Method + ":" + d.MethodSpecificID
}

// IsZero reports whether d is the zero value.
func (d DID) IsZero() bool {
	return d.Method == "" && d.MethodSpecificID == ""
}

// Equal reports whether both DIDs are the same.
func (d DID) Equal(other DID) bool {
	return d == other
}

// Join creates a DID URL pointing at the given fragment of this DID.
func (d DID) Join(fragment string) (DIDURL, error) {
	fragment = strings.TrimPrefix(fragment, fragmentSeparator)

	if !fragmentRegex.MatchString(fragment) {
		return DIDURL{}, fmt.Errorf("%w: invalid fragment %q", ErrMalformedIdentifier, fragment)
	}

	return DIDURL{DID: d, Fragment: fragment}, nil
}

// MarshalJSON encodes the DID as a JSON string.
func (d DID) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes the DID from a JSON string.
func (d *DID) UnmarshalJSON(data []byte) error {
	var s string

	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedIdentifier, err)
	}

	parsed, err := Parse(s)
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

// DIDURL is a DID with a fragment, used to identify verification methods and services.
type DIDURL struct {
	DID      DID
	Fragment string
}

// ParseDIDURL parses "did:<method>:<id>#<fragment>". Paths and queries are rejected.
func ParseDIDURL(didURL string) (DIDURL, error) {
	if !strings.Contains(didURL, fragmentSeparator) {
		return DIDURL{}, fmt.Errorf("%w: DID URL %q has no fragment", ErrMalformedIdentifier, didURL)
	}

	parsed, err := didgo.ParseDIDURL(didURL)
	if err != nil {
		return DIDURL{}, fmt.Errorf("%w: %w", ErrMalformedIdentifier, err)
	}

	if parsed.Path != "" || len(parsed.Queries) > 0 {
		return DIDURL{}, fmt.Errorf("%w: DID URL %q has a path or query", ErrMalformedIdentifier, didURL)
	}

	d, err := fromDIDGo(&parsed.DID, didURL)
	if err != nil {
		return DIDURL{}, err
	}

	return d.Join(parsed.Fragment)
}

// String returns the string form of the DID URL.
func (u DIDURL) String() string {
	return u.DID.String() + fragmentSeparator + u.Fragment
}

// MarshalJSON encodes the DID URL as a JSON string.
func (u DIDURL) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON decodes the DID URL from a JSON string.
func (u *DIDURL) UnmarshalJSON(data []byte) error {
	var s string

	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedIdentifier, err)
	}

	parsed, err := ParseDIDURL(s)
	if err != nil {
		return err
	}

	*u = parsed

	return nil
}
