/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	util "github.com/trustbloc/did-go/doc/util/time"
	"github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/did"
	"github.com/trustbloc/identity-go/keystore"
)

const (
	issuerDID = "did:example:issuer"
	holderDID = "did:example:holder"

	keyFragment = "key-1"
	bbsFragment = "bbs-1"
)

type testParty struct {
	doc      *did.Document
	storage  *keystore.Storage
	fragment string
}

func newJWSParty(t *testing.T, id string, keyType kms.KeyType) *testParty {
	t.Helper()

	doc := did.NewDocument(did.MustParse(id))
	storage := newMemStorage(t)

	fragment, err := storage.GenerateMethod(context.Background(), doc, keyType, keyFragment,
		did.VerificationMethodScope)
	require.NoError(t, err)

	return &testParty{doc: doc, storage: storage, fragment: fragment}
}

func newBBSParty(t *testing.T, id string) *testParty {
	t.Helper()

	doc := did.NewDocument(did.MustParse(id))
	storage := newMemStorage(t)

	fragment, err := storage.GenerateMethodJWP(context.Background(), doc, kms.BLS12381G2Type, bbsFragment,
		did.VerificationMethodScope)
	require.NoError(t, err)

	return &testParty{doc: doc, storage: storage, fragment: fragment}
}

func degreeContents(issuer, subject string) CredentialContents {
	return CredentialContents{
		Context: []string{BaseContext, "https://www.w3.org/2018/credentials/examples/v1"},
		Types:   []string{VCType, "UniversityDegreeCredential"},
		Issuer:  &Issuer{ID: issuer},
		Subject: []Subject{{
			ID: subject,
			CustomFields: CustomFields{
				"name": "Alice",
				"ssn":  "123-45-6789",
				"degree": map[string]interface{}{
					"type": "BachelorDegree",
					"name": "Bachelor of Science and Arts",
				},
			},
		}},
	}
}

func newDegreeCredential(t *testing.T, issuer, subject string) *Credential {
	t.Helper()

	vc, err := CreateCredential(degreeContents(issuer, subject), nil)
	require.NoError(t, err)

	return vc
}

func timeAt(d time.Duration) *util.TimeWrapper {
	return util.NewTime(time.Now().Add(d).UTC().Truncate(time.Second))
}

func timePtr(d time.Duration) *time.Time {
	t := time.Now().Add(d)

	return &t
}

// tamperJWS flips one byte of the signature of a compact JWS.
func tamperJWS(t *testing.T, token string) string {
	t.Helper()

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)

	sig[len(sig)/2] ^= 0x01
	parts[2] = base64.RawURLEncoding.EncodeToString(sig)

	return strings.Join(parts, ".")
}

func newMemStorage(t *testing.T) *keystore.Storage {
	t.Helper()

	storage, err := keystore.NewMemStorage()
	require.NoError(t, err)

	return storage
}
