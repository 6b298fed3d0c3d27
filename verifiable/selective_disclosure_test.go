/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/identity-go/jpt"
)

func validatedJPT(t *testing.T, issuer *testParty, vcc CredentialContents) *DecodedJPTCredential {
	t.Helper()

	token := issueJPTCredential(t, issuer, vcc, JWPCredentialOptions{})

	decoded, err := NewJPTCredentialValidator().Validate(token, issuer.doc, JPTCredentialValidationOptions{},
		FirstError)
	require.NoError(t, err)

	return decoded
}

func TestSelectiveDisclosurePresentation(t *testing.T) {
	issuer := newBBSParty(t, issuerDID)
	sdOpts := SDPresentationOptions{Nonce: "nonce-1", Audience: verifierAudience}
	presOpts := JPTPresentationValidationOptions{Nonce: "nonce-1", Audience: verifierAudience}

	t.Run("conceal a subject claim", func(t *testing.T) {
		sd := NewSelectiveDisclosurePresentation(validatedJPT(t, issuer, degreeContents(issuerDID, holderDID)))
		require.NoError(t, sd.ConcealInSubject("ssn"))

		token, err := sd.Build(sdOpts)
		require.NoError(t, err)

		decoded, err := NewJPTPresentationValidator().Validate(token, issuer.doc, presOpts, FirstError)
		require.NoError(t, err)
		require.Equal(t, verifierAudience, decoded.Audience)

		subject := decoded.Credential.Contents().Subject
		require.Len(t, subject, 1)
		require.Equal(t, holderDID, subject[0].ID)
		require.Equal(t, "Alice", subject[0].CustomFields["name"])
		require.NotContains(t, subject[0].CustomFields, "ssn")
		require.Equal(t, issuerDID, decoded.Credential.IssuerID())
	})

	t.Run("conceal a subtree", func(t *testing.T) {
		sd := NewSelectiveDisclosurePresentation(validatedJPT(t, issuer, degreeContents(issuerDID, holderDID)))
		require.NoError(t, sd.ConcealInSubject("degree"))
		require.NoError(t, sd.Conceal("sub"))

		token, err := CreatePresentationJPT(sd, issuer.doc, issuer.fragment, sdOpts)
		require.NoError(t, err)

		decoded, err := NewJPTPresentationValidator().Validate(token, issuer.doc, presOpts, FirstError)
		require.NoError(t, err)

		subject := decoded.Credential.Contents().Subject
		require.Len(t, subject, 1)
		require.Empty(t, subject[0].ID)
		require.NotContains(t, subject[0].CustomFields, "degree")
		require.Equal(t, "123-45-6789", subject[0].CustomFields["ssn"])
	})

	t.Run("conceal a nested claim", func(t *testing.T) {
		sd := NewSelectiveDisclosurePresentation(validatedJPT(t, issuer, degreeContents(issuerDID, holderDID)))
		require.NoError(t, sd.Conceal("vc.credentialSubject.degree.name"))

		token, err := sd.Build(sdOpts)
		require.NoError(t, err)

		decoded, err := NewJPTPresentationValidator().Validate(token, issuer.doc, presOpts, FirstError)
		require.NoError(t, err)
		require.Equal(t, map[string]interface{}{"type": "BachelorDegree"},
			decoded.Credential.Contents().Subject[0].CustomFields["degree"])
	})

	t.Run("reserved claims", func(t *testing.T) {
		sd := NewSelectiveDisclosurePresentation(validatedJPT(t, issuer, degreeContents(issuerDID, holderDID)))

		for _, path := range []string{"iss", "nbf", "vc.type", "vc.@context", "vc"} {
			require.ErrorIs(t, sd.Conceal(path), ErrConcealmentNotAllowed, path)
		}
	})

	t.Run("missing claim", func(t *testing.T) {
		sd := NewSelectiveDisclosurePresentation(validatedJPT(t, issuer, degreeContents(issuerDID, holderDID)))

		require.ErrorIs(t, sd.ConcealInSubject("passport"), ErrConcealmentPathNotFound)
	})

	t.Run("single use", func(t *testing.T) {
		sd := NewSelectiveDisclosurePresentation(validatedJPT(t, issuer, degreeContents(issuerDID, holderDID)))

		_, err := sd.Build(sdOpts)
		require.NoError(t, err)

		_, err = sd.Build(sdOpts)
		require.ErrorIs(t, err, ErrBuilderConsumed)
		require.ErrorIs(t, sd.ConcealInSubject("ssn"), ErrBuilderConsumed)
	})
}

func TestJPTPresentationValidator_Validate(t *testing.T) {
	issuer := newBBSParty(t, issuerDID)
	validator := NewJPTPresentationValidator()

	present := func(t *testing.T, vcc CredentialContents, opts SDPresentationOptions) string {
		t.Helper()

		sd := NewSelectiveDisclosurePresentation(validatedJPT(t, issuer, vcc))
		require.NoError(t, sd.ConcealInSubject("ssn"))

		token, err := sd.Build(opts)
		require.NoError(t, err)

		return token
	}

	t.Run("nonce mismatch", func(t *testing.T) {
		token := present(t, degreeContents(issuerDID, holderDID), SDPresentationOptions{Nonce: "abc"})

		_, err := validator.Validate(token, issuer.doc, JPTPresentationValidationOptions{Nonce: "xyz"}, FirstError)
		require.ErrorIs(t, err, ErrNonceMismatch)
	})

	t.Run("audience mismatch", func(t *testing.T) {
		token := present(t, degreeContents(issuerDID, holderDID), SDPresentationOptions{Audience: verifierAudience})

		_, err := validator.Validate(token, issuer.doc,
			JPTPresentationValidationOptions{Audience: "https://other.example.com"}, FirstError)
		require.ErrorIs(t, err, ErrAudienceMismatch)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		token := present(t, degreeContents(issuerDID, holderDID), SDPresentationOptions{})
		other := newBBSParty(t, "did:example:other")

		_, err := validator.Validate(token, other.doc, JPTPresentationValidationOptions{}, FirstError)
		require.ErrorIs(t, err, ErrIssuerMismatch)
	})

	t.Run("proof of another key", func(t *testing.T) {
		token := present(t, degreeContents(issuerDID, holderDID), SDPresentationOptions{})
		impostor := newBBSParty(t, issuerDID)

		_, err := validator.Validate(token, impostor.doc, JPTPresentationValidationOptions{}, FirstError)
		require.ErrorIs(t, err, ErrProofInvalid)
	})

	t.Run("expired credential", func(t *testing.T) {
		vcc := degreeContents(issuerDID, holderDID)
		vcc.Issued = timeAt(-2 * time.Hour)
		vcc.Expired = timeAt(-time.Hour)

		vc, err := CreateCredential(vcc, nil)
		require.NoError(t, err)

		token, err := CreateCredentialJPT(context.Background(), vc, issuer.doc, issuer.storage, issuer.fragment,
			JWPCredentialOptions{})
		require.NoError(t, err)

		decoded, err := NewJPTCredentialValidator().Validate(token, issuer.doc, JPTCredentialValidationOptions{
			EarliestExpiryDate: timePtr(-3 * time.Hour),
		}, FirstError)
		require.NoError(t, err)

		presented, err := NewSelectiveDisclosurePresentation(decoded).Build(SDPresentationOptions{})
		require.NoError(t, err)

		_, err = validator.Validate(presented, issuer.doc, JPTPresentationValidationOptions{}, FirstError)
		require.ErrorIs(t, err, ErrCredentialExpired)

		_, err = validator.Validate(presented, issuer.doc, JPTPresentationValidationOptions{
			EarliestExpiryDate: timePtr(-3 * time.Hour),
		}, FirstError)
		require.NoError(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := validator.Validate("a.b.c", issuer.doc, JPTPresentationValidationOptions{}, FirstError)
		require.ErrorIs(t, err, ErrInvalidStructure)
	})
}

func TestJPTPresentationValidator_ForgedConcealedClaim(t *testing.T) {
	issuer := newBBSParty(t, issuerDID)

	token := issueJPTCredential(t, issuer, degreeContents(issuerDID, holderDID), JWPCredentialOptions{
		CustomClaims: JSONObject{"zip": "12345"},
	})

	decoded, err := NewJPTCredentialValidator().Validate(token, issuer.doc, JPTCredentialValidationOptions{},
		FirstError)
	require.NoError(t, err)

	sd := NewSelectiveDisclosurePresentation(decoded)
	require.NoError(t, sd.Conceal("zip"))

	presented, err := sd.Build(SDPresentationOptions{Nonce: "nonce-1"})
	require.NoError(t, err)

	parsed, err := jpt.ParsePresented(presented)
	require.NoError(t, err)

	zip := -1

	for i, path := range parsed.Issuer.Claims {
		if path == "zip" {
			zip = i
		}
	}

	require.GreaterOrEqual(t, zip, 0)
	require.Nil(t, parsed.Payloads[zip])

	parsed.Payloads[zip] = []byte(`"99999"`)

	_, err = NewJPTPresentationValidator().Validate(parsed.Serialize(), issuer.doc,
		JPTPresentationValidationOptions{Nonce: "nonce-1"}, FirstError)
	require.ErrorIs(t, err, ErrProofInvalid)
	require.ErrorIs(t, err, jpt.ErrDisclosureMismatch)
}
