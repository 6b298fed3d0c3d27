/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package checker_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trustbloc/kms-go/doc/jose"
	"github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/did"
	"github.com/trustbloc/identity-go/keystore"
	"github.com/trustbloc/identity-go/proof/checker"
	"github.com/trustbloc/identity-go/proof/defaults"
	"github.com/trustbloc/identity-go/proof/jwtproofs/eddsa"
	"github.com/trustbloc/identity-go/vermethod"
)

func TestProofChecker_CheckJWTProof(t *testing.T) {
	doc, storage := newIssuer(t, kms.ED25519Type)

	testable := checker.New(vermethod.NewDocumentResolver(doc, nil), checker.WithJWTAlg(eddsa.New()))

	err := testable.CheckJWTProof(jose.Headers{jose.HeaderAlgorithm: "talg"}, "", nil, nil)
	require.ErrorContains(t, err, "missed kid in jwt header")

	err = testable.CheckJWTProof(jose.Headers{jose.HeaderKeyID: "tid"}, "", nil, nil)
	require.ErrorContains(t, err, "missed alg in jwt header")

	err = testable.CheckJWTProof(jose.Headers{
		jose.HeaderKeyID: "tid", jose.HeaderAlgorithm: "talg"}, "", nil, nil)
	require.ErrorContains(t, err, "invalid public key id")
	require.ErrorIs(t, err, did.ErrVerificationMethodNotFound)

	err = testable.CheckJWTProof(jose.Headers{
		jose.HeaderKeyID: "#key-1", jose.HeaderAlgorithm: "talg"}, "", nil, nil)
	require.ErrorContains(t, err, "unsupported jwt alg: talg")

	err = testable.CheckJWTProof(jose.Headers{
		jose.HeaderKeyID: "#key-1", jose.HeaderAlgorithm: eddsa.JWTAlg}, "", nil, nil)
	require.ErrorContains(t, err, "no vefiers with supported key type")

	err = testable.CheckJWTProof(jose.Headers{
		jose.HeaderKeyID: "did:example:issuer#key-1", jose.HeaderAlgorithm: eddsa.JWTAlg},
		"did:example:other", nil, nil)
	require.ErrorIs(t, err, vermethod.ErrIssuerMismatch)

	t.Run("signature", func(t *testing.T) {
		signer, err := storage.Signer(context.Background(), doc, "key-1")
		require.NoError(t, err)

		msg := []byte("signing input")
		sig, err := signer.Sign(msg)
		require.NoError(t, err)

		c := defaults.NewDefaultProofChecker(vermethod.NewDocumentResolver(doc, nil))
		headers := jose.Headers{jose.HeaderKeyID: "did:example:issuer#key-1", jose.HeaderAlgorithm: eddsa.JWTAlg}

		require.NoError(t, c.CheckJWTProof(headers, "did:example:issuer", msg, sig))
		require.Error(t, c.CheckJWTProof(headers, "", []byte("other input"), sig))

		err = c.CheckJWTProof(jose.Headers{jose.HeaderKeyID: "#key-1", jose.HeaderAlgorithm: "ES256"}, "", msg, sig)
		require.ErrorContains(t, err, "can't verify with \"JsonWebKey2020\" verification method")
	})
}

func TestProofChecker_AllAlgs(t *testing.T) {
	for _, keyType := range []kms.KeyType{
		kms.ED25519Type, kms.ECDSAP256TypeIEEEP1363, kms.ECDSASecp256k1TypeIEEEP1363,
	} {
		t.Run(string(keyType), func(t *testing.T) {
			doc, storage := newIssuer(t, keyType)

			signer, err := storage.Signer(context.Background(), doc, "key-1")
			require.NoError(t, err)

			alg, err := defaults.NewProofCreator(signer).JWTAlgByKeyType(keyType)
			require.NoError(t, err)

			c := defaults.NewDefaultProofChecker(vermethod.NewDocumentResolver(doc, nil))

			checkerAlg, err := c.JWTAlgorithm(keyType)
			require.NoError(t, err)
			require.Equal(t, alg, checkerAlg)

			msg := []byte("signing input")
			sig, err := signer.Sign(msg)
			require.NoError(t, err)

			require.NoError(t, c.CheckJWTProof(jose.Headers{
				jose.HeaderKeyID: "#key-1", jose.HeaderAlgorithm: alg}, "", msg, sig))

			embedded := defaults.NewEmbeddedVMProofChecker(signer.Method())
			require.NoError(t, embedded.CheckJWTProof(jose.Headers{jose.HeaderAlgorithm: alg}, "", msg, sig))
		})
	}

	_, err := checker.New(nil).JWTAlgorithm(kms.BLS12381G2Type)
	require.ErrorContains(t, err, "no jwt algs that support")
}

func TestProofChecker_FindIssuer(t *testing.T) {
	c := checker.New(nil)

	require.Equal(t, "did:example:aa", c.FindIssuer([]byte(`{"vc":{"issuer":{"id":"did:example:aa"}}}`)))
	require.Equal(t, "did:example:bb", c.FindIssuer([]byte(`{"vc":{"issuer":"did:example:bb"}}`)))
	require.Equal(t, "did:example:cc", c.FindIssuer([]byte(`{"iss":"did:example:cc"}`)))
	require.Empty(t, c.FindIssuer([]byte(`{}`)))
}

func newIssuer(t *testing.T, keyType kms.KeyType) (*did.Document, *keystore.Storage) {
	t.Helper()

	doc := did.NewDocument(did.MustParse("did:example:issuer"))
	storage := newMemStorage(t)

	_, err := storage.GenerateMethod(context.Background(), doc, keyType, "key-1", did.VerificationMethodScope)
	require.NoError(t, err)

	return doc, storage
}

func newMemStorage(t *testing.T) *keystore.Storage {
	t.Helper()

	storage, err := keystore.NewMemStorage()
	require.NoError(t, err)

	return storage
}
