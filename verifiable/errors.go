/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"errors"
	"strings"

	"github.com/trustbloc/identity-go/did"
	"github.com/trustbloc/identity-go/resolver"
)

var (
	// ErrVerificationMethodNotFound is returned when the signing method is not part of the signer document.
	ErrVerificationMethodNotFound = did.ErrVerificationMethodNotFound
	// ErrUnsupportedKeyAlgorithm is returned for methods whose key cannot produce the requested proof.
	ErrUnsupportedKeyAlgorithm = did.ErrUnsupportedKeyAlgorithm
	// ErrResolutionFailed is returned when a signer document cannot be resolved.
	ErrResolutionFailed = resolver.ErrResolutionFailed

	// ErrInvalidStructure is returned for credentials and presentations that break the data model.
	ErrInvalidStructure = errors.New("invalid structure")
	// ErrSignatureInvalid is returned when a JWS or BBS+ signature does not verify.
	ErrSignatureInvalid = errors.New("signature invalid")
	// ErrProofInvalid is returned when a selective disclosure proof does not verify.
	ErrProofInvalid = errors.New("proof invalid")
	// ErrCredentialExpired is returned for credentials expiring before the earliest accepted date.
	ErrCredentialExpired = errors.New("credential expired")
	// ErrCredentialNotYetValid is returned for credentials issued after the latest accepted date.
	ErrCredentialNotYetValid = errors.New("credential not yet valid")
	// ErrPresentationExpired is returned for expired presentations.
	ErrPresentationExpired = errors.New("presentation expired")
	// ErrPresentationNotYetValid is returned for presentations issued in the future.
	ErrPresentationNotYetValid = errors.New("presentation not yet valid")
	// ErrIssuerMismatch is returned when the credential issuer is not the DID of the issuer document.
	ErrIssuerMismatch = errors.New("issuer does not match document")
	// ErrHolderMismatch is returned when the presentation holder is not the DID of the holder document.
	ErrHolderMismatch = errors.New("holder does not match document")
	// ErrSubjectHolderMismatch is returned when the holder may not present a credential.
	ErrSubjectHolderMismatch = errors.New("subject holder relationship violated")
	// ErrNonceMismatch is returned when a token is not bound to the expected nonce.
	ErrNonceMismatch = errors.New("nonce mismatch")
	// ErrAudienceMismatch is returned when a presentation is addressed to another audience.
	ErrAudienceMismatch = errors.New("audience mismatch")
	// ErrConcealmentPathNotFound is returned when a claim to conceal does not exist.
	ErrConcealmentPathNotFound = errors.New("concealment path not found")
	// ErrConcealmentNotAllowed is returned for claims a presentation must always disclose.
	ErrConcealmentNotAllowed = errors.New("concealment not allowed")
	// ErrBuilderConsumed is returned when a selective disclosure builder is used after Build.
	ErrBuilderConsumed = errors.New("presentation builder already consumed")
)

// FailFast selects how many semantic violations a validator collects.
type FailFast int

const (
	// FirstError stops at the first violation.
	FirstError FailFast = iota
	// AllErrors runs every check and reports all violations.
	AllErrors
)

// ValidationError is a single validation failure of a given kind.
type ValidationError struct {
	Kind error
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}

	return e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap returns the kind and the cause.
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

func newValidationError(kind, err error) *ValidationError {
	return &ValidationError{Kind: kind, Err: err}
}

// CompoundValidationError holds every semantic violation found by a validator.
type CompoundValidationError struct {
	Errors []error
}

func (e *CompoundValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}

	return "validation failed: " + strings.Join(msgs, "; ")
}

// Unwrap returns the collected errors.
func (e *CompoundValidationError) Unwrap() []error {
	return e.Errors
}

type collector struct {
	failFast FailFast
	errs     []error
}

func newCollector(failFast FailFast) *collector {
	return &collector{failFast: failFast}
}

// check records err as a violation of kind. It reports whether validation has to stop.
func (c *collector) check(kind, err error) bool {
	if err == nil {
		return false
	}

	c.errs = append(c.errs, newValidationError(kind, err))

	return c.failFast == FirstError
}

// merge records the violations carried by err. It reports whether validation has to stop.
func (c *collector) merge(err error) bool {
	if err == nil {
		return false
	}

	var compound *CompoundValidationError
	if errors.As(err, &compound) {
		c.errs = append(c.errs, compound.Errors...)
	} else {
		c.errs = append(c.errs, err)
	}

	return c.stopped()
}

func (c *collector) stopped() bool {
	return c.failFast == FirstError && len(c.errs) > 0
}

func (c *collector) err() error {
	if len(c.errs) == 0 {
		return nil
	}

	return &CompoundValidationError{Errors: c.errs}
}
