/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/trustbloc/kms-go/doc/jose"
	"github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/did"
)

func TestCredential_JWTClaims(t *testing.T) {
	vcc := degreeContents(issuerDID, holderDID)
	vcc.ID = "http://example.edu/credentials/1872"
	vcc.Issued = timeAt(-time.Hour)
	vcc.Expired = timeAt(time.Hour)

	vc, err := CreateCredential(vcc, nil)
	require.NoError(t, err)

	claims, err := vc.JWTClaims()
	require.NoError(t, err)
	require.Equal(t, issuerDID, claims.Issuer)
	require.Equal(t, holderDID, claims.Subject)
	require.Equal(t, "http://example.edu/credentials/1872", claims.ID)
	require.Equal(t, vcc.Issued.Time.Unix(), claims.NotBefore.Time().Unix())
	require.Equal(t, vcc.Expired.Time.Unix(), claims.Expiry.Time().Unix())

	require.NotContains(t, claims.VC, "id")
	require.NotContains(t, claims.VC, "issuer")
	require.NotContains(t, claims.VC, "issuanceDate")
	require.NotContains(t, claims.VC, "expirationDate")
	require.NotContains(t, claims.VC["credentialSubject"], "id")
	require.Equal(t, "Alice", claims.VC["credentialSubject"].(map[string]interface{})["name"])
}

func TestCreateCredentialJWT(t *testing.T) {
	ctx := context.Background()

	for _, keyType := range []kms.KeyType{
		kms.ED25519Type, kms.ECDSAP256TypeIEEEP1363, kms.ECDSASecp256k1TypeIEEEP1363,
	} {
		t.Run(string(keyType), func(t *testing.T) {
			issuer := newJWSParty(t, issuerDID, keyType)
			vc := newDegreeCredential(t, issuerDID, holderDID)

			token, err := CreateCredentialJWT(ctx, vc, issuer.doc, issuer.storage, issuer.fragment,
				JWSSignatureOptions{})
			require.NoError(t, err)

			decoded, err := NewJWTCredentialValidator().Validate(token, issuer.doc, CredentialValidationOptions{},
				FirstError)
			require.NoError(t, err)

			contents := decoded.Credential.Contents()
			require.Equal(t, vc.Contents().ID, contents.ID)
			require.Equal(t, issuerDID, decoded.Credential.IssuerID())
			require.Equal(t, holderDID, contents.Subject[0].ID)
			require.Equal(t, "Alice", contents.Subject[0].CustomFields["name"])
			require.True(t, vc.Contents().Issued.Time.Equal(contents.Issued.Time))

			kid, ok := decoded.Header.KeyID()
			require.True(t, ok)
			require.Equal(t, issuerDID+"#"+keyFragment, kid)

			typ, ok := decoded.Header.Type()
			require.True(t, ok)
			require.Equal(t, "JWT", typ)
		})
	}

	t.Run("custom claims and headers", func(t *testing.T) {
		issuer := newJWSParty(t, issuerDID, kms.ED25519Type)
		vc := newDegreeCredential(t, issuerDID, holderDID)

		token, err := CreateCredentialJWT(ctx, vc, issuer.doc, issuer.storage, issuer.fragment, JWSSignatureOptions{
			Typ:           "vc+jwt",
			CustomHeaders: jose.Headers{"x-tenant": "acme"},
			Nonce:         "nonce-1",
			CustomClaims:  JSONObject{"status": "active"},
		})
		require.NoError(t, err)

		decoded, err := NewJWTCredentialValidator().Validate(token, issuer.doc,
			CredentialValidationOptions{Nonce: "nonce-1"}, FirstError)
		require.NoError(t, err)
		require.Equal(t, JSONObject{"status": "active"}, decoded.CustomClaims)
		require.Equal(t, "acme", decoded.Header["x-tenant"])

		typ, _ := decoded.Header.Type()
		require.Equal(t, "vc+jwt", typ)
	})

	t.Run("issuer of another document", func(t *testing.T) {
		issuer := newJWSParty(t, issuerDID, kms.ED25519Type)
		vc := newDegreeCredential(t, "did:example:other", holderDID)

		_, err := CreateCredentialJWT(ctx, vc, issuer.doc, issuer.storage, issuer.fragment, JWSSignatureOptions{})
		require.ErrorIs(t, err, ErrIssuerMismatch)
	})

	t.Run("unknown fragment", func(t *testing.T) {
		issuer := newJWSParty(t, issuerDID, kms.ED25519Type)
		vc := newDegreeCredential(t, issuerDID, holderDID)

		_, err := CreateCredentialJWT(ctx, vc, issuer.doc, issuer.storage, "missing", JWSSignatureOptions{})
		require.ErrorIs(t, err, ErrVerificationMethodNotFound)
	})
}

func TestJWTCredentialValidator_Validate(t *testing.T) {
	ctx := context.Background()
	issuer := newJWSParty(t, issuerDID, kms.ED25519Type)

	issue := func(t *testing.T, vcc CredentialContents, opts JWSSignatureOptions) string {
		t.Helper()

		vc, err := CreateCredential(vcc, nil)
		require.NoError(t, err)

		token, err := CreateCredentialJWT(ctx, vc, issuer.doc, issuer.storage, issuer.fragment, opts)
		require.NoError(t, err)

		return token
	}

	validator := NewJWTCredentialValidator()

	t.Run("expired", func(t *testing.T) {
		vcc := degreeContents(issuerDID, holderDID)
		vcc.Issued = timeAt(-2 * time.Hour)
		vcc.Expired = timeAt(-time.Hour)

		token := issue(t, vcc, JWSSignatureOptions{})

		_, err := validator.Validate(token, issuer.doc, CredentialValidationOptions{}, FirstError)
		require.ErrorIs(t, err, ErrCredentialExpired)

		var compound *CompoundValidationError
		require.ErrorAs(t, err, &compound)
		require.Len(t, compound.Errors, 1)

		_, err = validator.Validate(token, issuer.doc, CredentialValidationOptions{
			EarliestExpiryDate: timePtr(-3 * time.Hour),
		}, FirstError)
		require.NoError(t, err)
	})

	t.Run("not yet valid", func(t *testing.T) {
		vcc := degreeContents(issuerDID, holderDID)
		vcc.Issued = timeAt(time.Hour)

		token := issue(t, vcc, JWSSignatureOptions{})

		_, err := validator.Validate(token, issuer.doc, CredentialValidationOptions{}, FirstError)
		require.ErrorIs(t, err, ErrCredentialNotYetValid)

		_, err = validator.Validate(token, issuer.doc, CredentialValidationOptions{ClockSkew: 2 * time.Hour},
			FirstError)
		require.NoError(t, err)
	})

	t.Run("fail fast", func(t *testing.T) {
		vcc := degreeContents(issuerDID, holderDID)
		vcc.Issued = timeAt(time.Hour)
		vcc.Expired = timeAt(2 * time.Hour)

		token := issue(t, vcc, JWSSignatureOptions{Nonce: "issued-nonce"})
		opts := CredentialValidationOptions{EarliestExpiryDate: timePtr(3 * time.Hour), Nonce: "expected-nonce"}

		_, err := validator.Validate(token, issuer.doc, opts, FirstError)

		var compound *CompoundValidationError
		require.ErrorAs(t, err, &compound)
		require.Len(t, compound.Errors, 1)
		require.ErrorIs(t, err, ErrCredentialExpired)

		_, err = validator.Validate(token, issuer.doc, opts, AllErrors)
		require.ErrorAs(t, err, &compound)
		require.Len(t, compound.Errors, 3)
		require.ErrorIs(t, err, ErrCredentialExpired)
		require.ErrorIs(t, err, ErrCredentialNotYetValid)
		require.ErrorIs(t, err, ErrNonceMismatch)

		var ve *ValidationError
		require.True(t, errors.As(compound.Errors[2], &ve))
		require.Equal(t, ErrNonceMismatch, ve.Kind)
	})

	t.Run("nonce", func(t *testing.T) {
		token := issue(t, degreeContents(issuerDID, holderDID), JWSSignatureOptions{Nonce: "abc"})

		_, err := validator.Validate(token, issuer.doc, CredentialValidationOptions{Nonce: "abc"}, FirstError)
		require.NoError(t, err)

		_, err = validator.Validate(token, issuer.doc, CredentialValidationOptions{Nonce: "xyz"}, FirstError)
		require.ErrorIs(t, err, ErrNonceMismatch)
	})

	t.Run("tampered signature", func(t *testing.T) {
		token := issue(t, degreeContents(issuerDID, holderDID), JWSSignatureOptions{})

		_, err := validator.Validate(tamperJWS(t, token), issuer.doc, CredentialValidationOptions{}, AllErrors)
		require.ErrorIs(t, err, ErrSignatureInvalid)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		require.Equal(t, ErrSignatureInvalid, ve.Kind)
	})

	t.Run("signed by another key", func(t *testing.T) {
		token := issue(t, degreeContents(issuerDID, holderDID), JWSSignatureOptions{})
		impostor := newJWSParty(t, issuerDID, kms.ED25519Type)

		_, err := validator.Validate(token, impostor.doc, CredentialValidationOptions{}, FirstError)
		require.ErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("document of another DID", func(t *testing.T) {
		token := issue(t, degreeContents(issuerDID, holderDID), JWSSignatureOptions{})
		other := newJWSParty(t, "did:example:other", kms.ED25519Type)

		_, err := validator.Validate(token, other.doc, CredentialValidationOptions{}, FirstError)
		require.ErrorIs(t, err, ErrVerificationMethodNotFound)
	})

	t.Run("method scope", func(t *testing.T) {
		token := issue(t, degreeContents(issuerDID, holderDID), JWSSignatureOptions{})

		_, err := validator.Validate(token, issuer.doc,
			CredentialValidationOptions{MethodScope: did.KeyAgreement.Ptr()}, FirstError)
		require.ErrorIs(t, err, ErrVerificationMethodNotFound)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := validator.Validate("not.a.jwt", issuer.doc, CredentialValidationOptions{}, FirstError)
		require.ErrorIs(t, err, ErrInvalidStructure)
	})
}
