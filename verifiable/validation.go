/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"errors"
	"fmt"
	"time"

	util "github.com/trustbloc/did-go/doc/util/time"

	"github.com/trustbloc/identity-go/did"
)

// CredentialValidationOptions configures the semantic checks of a credential.
type CredentialValidationOptions struct {
	// EarliestExpiryDate is the date the credential must still be valid at. Defaults to now.
	EarliestExpiryDate *time.Time
	// LatestIssuanceDate is the date the credential must have been issued by. Defaults to now.
	LatestIssuanceDate *time.Time
	// ClockSkew is tolerated on both dates.
	ClockSkew time.Duration
	// MethodScope restricts the methods accepted as signing method. Nil accepts any method.
	MethodScope *did.MethodScope
	// Nonce is the expected nonce claim of a JWT credential. Empty skips the check.
	Nonce string
}

// JPTCredentialValidationOptions configures the validation of an issued JPT credential.
type JPTCredentialValidationOptions struct {
	EarliestExpiryDate *time.Time
	LatestIssuanceDate *time.Time
	ClockSkew          time.Duration
	MethodScope        *did.MethodScope
}

type timeBounds struct {
	earliestExpiry time.Time
	latestIssuance time.Time
	skew           time.Duration
}

func newTimeBounds(earliestExpiry, latestIssuance *time.Time, skew time.Duration) timeBounds {
	now := time.Now()

	b := timeBounds{earliestExpiry: now, latestIssuance: now, skew: skew}

	if earliestExpiry != nil {
		b.earliestExpiry = *earliestExpiry
	}

	if latestIssuance != nil {
		b.latestIssuance = *latestIssuance
	}

	return b
}

func (b timeBounds) checkExpiry(expired *util.TimeWrapper) error {
	if expired == nil {
		return nil
	}

	if expired.Time.Before(b.earliestExpiry.Add(-b.skew)) {
		return fmt.Errorf("expired at %s", expired.FormatToString())
	}

	return nil
}

func (b timeBounds) checkIssuance(issued *util.TimeWrapper) error {
	if issued == nil {
		return nil
	}

	if issued.Time.After(b.latestIssuance.Add(b.skew)) {
		return fmt.Errorf("issued at %s", issued.FormatToString())
	}

	return nil
}

func checkIssuer(vc *Credential, issuerDoc *did.Document) error {
	issuer := vc.IssuerID()
	if issuer == "" {
		return errors.New("credential has no issuer")
	}

	if issuer != issuerDoc.ID().String() {
		return fmt.Errorf("credential issuer %s, document %s", issuer, issuerDoc.ID())
	}

	return nil
}

type semanticCheck struct {
	kind  error
	check func() error
}

func runChecks(c *collector, checks ...semanticCheck) {
	for _, sc := range checks {
		if c.check(sc.kind, sc.check()) {
			return
		}
	}
}

// credentialChecks lists the semantic checks shared by every credential form.
func credentialChecks(vc *Credential, issuerDoc *did.Document, bounds timeBounds) []semanticCheck {
	contents := &vc.credentialContents

	return []semanticCheck{
		{ErrCredentialExpired, func() error { return bounds.checkExpiry(contents.Expired) }},
		{ErrCredentialNotYetValid, func() error { return bounds.checkIssuance(contents.Issued) }},
		{ErrIssuerMismatch, func() error { return checkIssuer(vc, issuerDoc) }},
	}
}

func checkNonce(expected, actual string) func() error {
	return func() error {
		if expected == "" || expected == actual {
			return nil
		}

		return fmt.Errorf("expected %q, got %q", expected, actual)
	}
}
