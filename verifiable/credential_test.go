/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateCredential(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		vc, err := CreateCredential(CredentialContents{
			Issuer:  &Issuer{ID: issuerDID},
			Subject: []Subject{{ID: holderDID}},
		}, nil)
		require.NoError(t, err)

		contents := vc.Contents()
		require.Equal(t, []string{BaseContext}, contents.Context)
		require.Equal(t, []string{VCType}, contents.Types)
		require.True(t, strings.HasPrefix(contents.ID, "urn:uuid:"))
		require.NotNil(t, contents.Issued)
		require.WithinDuration(t, time.Now(), contents.Issued.Time, 2*time.Second)
		require.Equal(t, issuerDID, vc.IssuerID())
	})

	t.Run("keeps given values", func(t *testing.T) {
		issued := timeAt(-time.Hour)

		vc, err := CreateCredential(CredentialContents{
			Context:         []string{BaseContext, "https://www.w3.org/2018/credentials/examples/v1"},
			ID:              "http://example.edu/credentials/1872",
			Types:           []string{VCType, "UniversityDegreeCredential"},
			Issuer:          &Issuer{ID: issuerDID, CustomFields: CustomFields{"name": "Example University"}},
			Subject:         []Subject{{ID: holderDID}},
			Issued:          issued,
			NonTransferable: true,
		}, CustomFields{"evidence": []interface{}{"https://example.edu/evidence/1"}})
		require.NoError(t, err)

		raw := vc.ToRawJSON()
		require.Equal(t, "http://example.edu/credentials/1872", raw["id"])
		require.Equal(t, []interface{}{VCType, "UniversityDegreeCredential"}, raw["type"])
		require.Equal(t, map[string]interface{}{"id": issuerDID, "name": "Example University"}, raw["issuer"])
		require.Equal(t, issued.FormatToString(), raw["issuanceDate"])
		require.Equal(t, true, raw["nonTransferable"])
		require.Equal(t, []interface{}{"https://example.edu/evidence/1"}, vc.CustomField("evidence"))
	})

	t.Run("base context must be first", func(t *testing.T) {
		_, err := CreateCredential(CredentialContents{
			Context: []string{"https://www.w3.org/2018/credentials/examples/v1", BaseContext},
			Issuer:  &Issuer{ID: issuerDID},
			Subject: []Subject{{ID: holderDID}},
		}, nil)
		require.ErrorIs(t, err, ErrInvalidStructure)
	})

	t.Run("issuer is required", func(t *testing.T) {
		_, err := CreateCredential(CredentialContents{Subject: []Subject{{ID: holderDID}}}, nil)
		require.ErrorIs(t, err, ErrInvalidStructure)
	})

	t.Run("subject is required", func(t *testing.T) {
		_, err := CreateCredential(CredentialContents{Issuer: &Issuer{ID: issuerDID}}, nil)
		require.ErrorIs(t, err, ErrInvalidStructure)
	})

	t.Run("expiration before issuance", func(t *testing.T) {
		_, err := CreateCredential(CredentialContents{
			Issuer:  &Issuer{ID: issuerDID},
			Subject: []Subject{{ID: holderDID}},
			Issued:  timeAt(-time.Hour),
			Expired: timeAt(-2 * time.Hour),
		}, nil)
		require.ErrorIs(t, err, ErrInvalidStructure)
	})

	t.Run("custom field shadows credential field", func(t *testing.T) {
		_, err := CreateCredential(CredentialContents{
			Issuer:  &Issuer{ID: issuerDID},
			Subject: []Subject{{ID: holderDID}},
		}, CustomFields{"issuer": "did:example:other"})
		require.ErrorIs(t, err, ErrInvalidStructure)
	})

	t.Run("immutable", func(t *testing.T) {
		cf := CustomFields{"evidence": map[string]interface{}{"id": "1"}}

		vc, err := CreateCredential(CredentialContents{
			Issuer:  &Issuer{ID: issuerDID},
			Subject: []Subject{{ID: holderDID}},
		}, cf)
		require.NoError(t, err)

		cf["evidence"].(map[string]interface{})["id"] = "2"
		vc.ToRawJSON()["id"] = "changed"

		contents := vc.Contents()
		contents.Types[0] = "changed"

		require.Equal(t, map[string]interface{}{"id": "1"}, vc.CustomField("evidence"))
		require.NotEqual(t, "changed", vc.ToRawJSON()["id"])
		require.Equal(t, VCType, vc.Contents().Types[0])
	})
}

func TestParseCredential(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		vc := newDegreeCredential(t, issuerDID, holderDID)

		data, err := json.Marshal(vc)
		require.NoError(t, err)

		parsed, err := ParseCredential(data)
		require.NoError(t, err)

		expected, actual := vc.Contents(), parsed.Contents()
		require.Equal(t, expected.ID, actual.ID)
		require.Equal(t, expected.Context, actual.Context)
		require.Equal(t, expected.Types, actual.Types)
		require.Equal(t, expected.Issuer.ID, actual.Issuer.ID)
		require.True(t, expected.Issued.Time.Equal(actual.Issued.Time))
		require.Equal(t, holderDID, actual.Subject[0].ID)
		require.Equal(t, "Alice", actual.Subject[0].CustomFields["name"])
	})

	t.Run("unmarshal", func(t *testing.T) {
		var vc Credential

		require.NoError(t, json.Unmarshal([]byte(`{
			"@context": "https://www.w3.org/2018/credentials/v1",
			"type": "VerifiableCredential",
			"issuer": {"id": "did:example:issuer", "name": "Example University"},
			"issuanceDate": "2010-01-01T19:23:24Z",
			"credentialSubject": [{"id": "did:example:aa"}, {"id": "did:example:bb"}],
			"refreshService": {"id": "https://example.edu/refresh/3732"}
		}`), &vc))

		contents := vc.Contents()
		require.Equal(t, []string{BaseContext}, contents.Context)
		require.Len(t, contents.Subject, 2)
		require.Equal(t, "Example University", contents.Issuer.CustomFields["name"])
		require.Equal(t, map[string]interface{}{"id": "https://example.edu/refresh/3732"},
			vc.CustomField("refreshService"))
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseCredential([]byte("{"))
		require.ErrorIs(t, err, ErrInvalidStructure)
	})

	t.Run("invalid fields", func(t *testing.T) {
		for name, vcJSON := range map[string]string{
			"issuer type":   `{"@context": "https://www.w3.org/2018/credentials/v1", "type": "VerifiableCredential", "issuer": 5, "credentialSubject": {"id": "did:example:aa"}}`,
			"issuance date": `{"@context": "https://www.w3.org/2018/credentials/v1", "type": "VerifiableCredential", "issuer": "did:example:issuer", "issuanceDate": "yesterday", "credentialSubject": {"id": "did:example:aa"}}`,
			"missing type":  `{"@context": "https://www.w3.org/2018/credentials/v1", "issuer": "did:example:issuer", "credentialSubject": {"id": "did:example:aa"}}`,
			"subject":       `{"@context": "https://www.w3.org/2018/credentials/v1", "type": "VerifiableCredential", "issuer": "did:example:issuer", "credentialSubject": [5]}`,
		} {
			t.Run(name, func(t *testing.T) {
				_, err := ParseCredential([]byte(vcJSON))
				require.ErrorIs(t, err, ErrInvalidStructure)
			})
		}
	})
}

func TestCredential_DecodeSubject(t *testing.T) {
	type degree struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}

	type subject struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Age    int    `json:"age"`
		Degree degree `json:"degree"`
	}

	t.Run("success", func(t *testing.T) {
		vc, err := ParseCredential([]byte(`{
			"@context": "https://www.w3.org/2018/credentials/v1",
			"type": "VerifiableCredential",
			"issuer": "did:example:issuer",
			"credentialSubject": {
				"id": "did:example:holder",
				"name": "Alice",
				"age": 30,
				"degree": {"type": "BachelorDegree", "name": "BSc"}
			}
		}`))
		require.NoError(t, err)

		var s subject
		require.NoError(t, vc.DecodeSubject(&s))
		require.Equal(t, subject{
			ID:     holderDID,
			Name:   "Alice",
			Age:    30,
			Degree: degree{Type: "BachelorDegree", Name: "BSc"},
		}, s)
	})

	t.Run("several subjects", func(t *testing.T) {
		vc, err := CreateCredential(CredentialContents{
			Issuer:  &Issuer{ID: issuerDID},
			Subject: []Subject{{ID: "did:example:aa"}, {ID: "did:example:bb"}},
		}, nil)
		require.NoError(t, err)

		var s subject
		require.Error(t, vc.DecodeSubject(&s))
	})
}

func TestSubjectID(t *testing.T) {
	id, err := SubjectID([]Subject{{ID: holderDID}})
	require.NoError(t, err)
	require.Equal(t, holderDID, id)

	_, err = SubjectID(nil)
	require.Error(t, err)

	_, err = SubjectID([]Subject{{ID: "did:example:aa"}, {ID: "did:example:bb"}})
	require.Error(t, err)

	_, err = SubjectID([]Subject{{CustomFields: CustomFields{"name": "Alice"}}})
	require.Error(t, err)
}
