/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs_test

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trustbloc/bbs-signature-go/bbs12381g2pub"
	kmsapi "github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/crypto-ext/pubkey"
	"github.com/trustbloc/identity-go/crypto-ext/verifiers/bbs"
)

func TestBBSVerifiers(t *testing.T) {
	pub, priv, err := bbs12381g2pub.GenerateKeyPair(sha256.New, nil)
	require.NoError(t, err)

	pubBytes, err := pub.Marshal()
	require.NoError(t, err)

	privBytes, err := priv.Marshal()
	require.NoError(t, err)

	msgs := [][]byte{[]byte("header"), []byte(`"Alice"`), []byte(`"123-45-6789"`)}

	sig, err := bbs12381g2pub.New().Sign(msgs, privBytes)
	require.NoError(t, err)

	pubKey := &pubkey.PublicKey{Type: kmsapi.BLS12381G2Type, BytesKey: &pubkey.BytesKey{Bytes: pubBytes}}

	t.Run("signature", func(t *testing.T) {
		v := bbs.NewBBSG2SignatureVerifier()
		require.True(t, v.SupportedKeyType(kmsapi.BLS12381G2Type))
		require.False(t, v.SupportedKeyType(kmsapi.ED25519Type))

		require.NoError(t, v.VerifyMessages(sig, msgs, pubKey))
		require.Error(t, v.VerifyMessages(sig, msgs[:2], pubKey))

		single, err := bbs12381g2pub.New().Sign([][]byte{[]byte("msg")}, privBytes)
		require.NoError(t, err)
		require.NoError(t, v.Verify(single, []byte("msg"), pubKey))
	})

	t.Run("proof", func(t *testing.T) {
		nonce := []byte("nonce")

		proof, err := bbs12381g2pub.New().DeriveProof(msgs, sig, nonce, pubBytes, []int{0, 1})
		require.NoError(t, err)

		v := bbs.NewBBSG2SignatureProofVerifier()
		require.NoError(t, v.VerifyProof(proof, msgs[:2], nonce, pubKey))

		require.Error(t, v.VerifyProof(proof, msgs[:2], []byte("other"), pubKey))
		require.Error(t, v.VerifyProof(proof, [][]byte{msgs[0], []byte(`"Bob"`)}, nonce, pubKey))
	})

	t.Run("wrong key type", func(t *testing.T) {
		err := bbs.NewBBSG2SignatureVerifier().VerifyMessages(sig, msgs, &pubkey.PublicKey{
			Type:     kmsapi.ED25519Type,
			BytesKey: &pubkey.BytesKey{Bytes: pubBytes},
		})
		require.EqualError(t, err, "unsupported key type ED25519")
	})
}

func TestDeriveProof(t *testing.T) {
	pub, priv, err := bbs12381g2pub.GenerateKeyPair(sha256.New, nil)
	require.NoError(t, err)

	pubBytes, err := pub.Marshal()
	require.NoError(t, err)

	privBytes, err := priv.Marshal()
	require.NoError(t, err)

	msgs := [][]byte{[]byte("m0"), []byte("m1"), []byte("m2")}

	sig, err := bbs12381g2pub.New().Sign(msgs, privBytes)
	require.NoError(t, err)

	pubKey := &pubkey.PublicKey{Type: kmsapi.BLS12381G2Type, BytesKey: &pubkey.BytesKey{Bytes: pubBytes}}

	proof, err := bbs.DeriveProof(msgs, sig, []byte("nonce"), []int{0, 2}, pubKey)
	require.NoError(t, err)

	require.NoError(t, bbs.NewBBSG2SignatureProofVerifier().VerifyProof(proof, [][]byte{msgs[0], msgs[2]},
		[]byte("nonce"), pubKey))

	_, err = bbs.DeriveProof(msgs, sig, []byte("nonce"), []int{0}, &pubkey.PublicKey{Type: kmsapi.ED25519Type})
	require.Error(t, err)
}

func TestParseProofHeader(t *testing.T) {
	pub, priv, err := bbs12381g2pub.GenerateKeyPair(sha256.New, nil)
	require.NoError(t, err)

	pubBytes, err := pub.Marshal()
	require.NoError(t, err)

	privBytes, err := priv.Marshal()
	require.NoError(t, err)

	msgs := make([][]byte, 10)
	for i := range msgs {
		msgs[i] = []byte{byte('a' + i)}
	}

	sig, err := bbs12381g2pub.New().Sign(msgs, privBytes)
	require.NoError(t, err)

	pubKey := &pubkey.PublicKey{Type: kmsapi.BLS12381G2Type, BytesKey: &pubkey.BytesKey{Bytes: pubBytes}}

	t.Run("derived proof", func(t *testing.T) {
		proof, err := bbs.DeriveProof(msgs, sig, []byte("nonce"), []int{0, 3, 9}, pubKey)
		require.NoError(t, err)

		h, err := bbs.ParseProofHeader(proof)
		require.NoError(t, err)
		require.Equal(t, 10, h.MessagesCount)
		require.Equal(t, []int{0, 3, 9}, h.Revealed)

		require.True(t, h.Reveals(10, []int{0, 3, 9}))
		require.False(t, h.Reveals(10, []int{0, 3}))
		require.False(t, h.Reveals(11, []int{0, 3, 9}))
		require.False(t, h.Reveals(10, []int{0, 4, 9}))
	})

	t.Run("too short", func(t *testing.T) {
		_, err := bbs.ParseProofHeader([]byte{0})
		require.ErrorIs(t, err, bbs.ErrMalformedProofHeader)

		_, err = bbs.ParseProofHeader([]byte{0, 20, 1})
		require.ErrorIs(t, err, bbs.ErrMalformedProofHeader)
	})

	t.Run("index beyond message count", func(t *testing.T) {
		_, err := bbs.ParseProofHeader([]byte{0, 2, 0b100})
		require.ErrorIs(t, err, bbs.ErrMalformedProofHeader)
	})
}
