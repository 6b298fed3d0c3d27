/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"fmt"
)

// MethodScope restricts which operations may use a verification method.
type MethodScope int

const (
	// VerificationMethodScope holds general methods listed in the "verificationMethod" set.
	// Relationships may reference them with AttachRelationship.
	VerificationMethodScope MethodScope = iota
	// Authentication relationship.
	Authentication
	// AssertionMethod relationship.
	AssertionMethod
	// KeyAgreement relationship.
	KeyAgreement
	// CapabilityInvocation relationship.
	CapabilityInvocation
	// CapabilityDelegation relationship.
	CapabilityDelegation

	scopeCount = iota
)

// nolint: gochecknoglobals
var scopeNames = [scopeCount]string{
	"verificationMethod",
	"authentication",
	"assertionMethod",
	"keyAgreement",
	"capabilityInvocation",
	"capabilityDelegation",
}

// String returns the DID Core property name of the scope.
func (s MethodScope) String() string {
	if !s.valid() {
		return fmt.Sprintf("MethodScope(%d)", int(s))
	}

	return scopeNames[s]
}

// IsRelationship reports whether the scope is a verification relationship.
func (s MethodScope) IsRelationship() bool {
	return s.valid() && s != VerificationMethodScope
}

// Ptr returns a pointer to a copy of s, convenient for optional scope arguments.
func (s MethodScope) Ptr() *MethodScope {
	return &s
}

// ParseMethodScope parses a DID Core property name into a scope.
func ParseMethodScope(name string) (MethodScope, error) {
	for i, n := range scopeNames {
		if n == name {
			return MethodScope(i), nil
		}
	}

	return 0, fmt.Errorf("unknown method scope %q", name)
}

func (s MethodScope) valid() bool {
	return s >= 0 && s < scopeCount
}
