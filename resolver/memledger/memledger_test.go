/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package memledger

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trustbloc/kms-go/spi/kms"

	"github.com/trustbloc/identity-go/did"
	"github.com/trustbloc/identity-go/keystore"
)

const cacheSize = 1 << 20

func TestLedger_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns the final DID", func(t *testing.T) {
		l := New("iota", "smr", cacheSize)

		placeholder := l.Placeholder()
		storage := newMemStorage(t)

		fragment, err := storage.GenerateMethod(ctx, placeholder, kms.ED25519Type, "key-1", did.VerificationMethodScope)
		require.NoError(t, err)

		published, err := l.Publish(ctx, placeholder)
		require.NoError(t, err)
		require.False(t, published.IsPlaceholder())
		require.True(t, placeholder.IsPlaceholder())
		require.Equal(t, "iota", published.ID().Method)
		require.True(t, strings.HasPrefix(published.ID().MethodSpecificID, "smr:0x"))
		require.Len(t, strings.TrimPrefix(published.ID().MethodSpecificID, "smr:0x"), 2*aliasIDLen)

		vm, err := published.ResolveMethod(fragment, nil)
		require.NoError(t, err)
		require.Equal(t, published.ID(), vm.ID.DID)
		require.Equal(t, published.ID(), vm.Controller)

		resolved, err := l.Resolve(ctx, published.ID())
		require.NoError(t, err)
		require.Equal(t, published.ID(), resolved.ID())
		require.Len(t, resolved.Methods(nil), 1)

		signer, err := storage.Signer(ctx, resolved, fragment)
		require.NoError(t, err)
		require.Equal(t, kms.ED25519Type, signer.KeyType())
	})

	t.Run("distinct DIDs", func(t *testing.T) {
		l := New("iota", "", cacheSize)

		first, err := l.Publish(ctx, l.Placeholder())
		require.NoError(t, err)

		second, err := l.Publish(ctx, l.Placeholder())
		require.NoError(t, err)

		require.NotEqual(t, first.ID(), second.ID())
		require.True(t, strings.HasPrefix(first.ID().MethodSpecificID, "0x"))
	})

	t.Run("not a placeholder", func(t *testing.T) {
		l := New("iota", "smr", cacheSize)

		_, err := l.Publish(ctx, did.NewDocument(did.MustParse("did:iota:smr:0x01")))
		require.ErrorIs(t, err, did.ErrNotPlaceholder)
	})

	t.Run("other network", func(t *testing.T) {
		l := New("iota", "smr", cacheSize)

		_, err := l.Publish(ctx, did.NewPlaceholder("iota", "rms"))
		require.ErrorIs(t, err, ErrWrongNetwork)
	})
}

func TestLedger_Update(t *testing.T) {
	ctx := context.Background()
	l := New("iota", "smr", cacheSize)

	published, err := l.Publish(ctx, l.Placeholder())
	require.NoError(t, err)

	t.Run("replaces state", func(t *testing.T) {
		next := published.Clone()
		next.SetAlsoKnownAs("https://example.com/alice")

		updated, err := l.Update(ctx, next)
		require.NoError(t, err)
		require.Equal(t, []string{"https://example.com/alice"}, updated.AlsoKnownAs())

		resolved, err := l.Resolve(ctx, published.ID())
		require.NoError(t, err)
		require.Equal(t, []string{"https://example.com/alice"}, resolved.AlsoKnownAs())
		require.NotNil(t, resolved.Metadata().Updated)
	})

	t.Run("unknown DID", func(t *testing.T) {
		_, err := l.Update(ctx, did.NewDocument(did.MustParse("did:iota:smr:0x02")))
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("deactivated", func(t *testing.T) {
		other, err := l.Publish(ctx, l.Placeholder())
		require.NoError(t, err)

		require.NoError(t, l.Deactivate(ctx, other.ID()))

		resolved, err := l.Resolve(ctx, other.ID())
		require.NoError(t, err)
		require.True(t, resolved.Metadata().Deactivated)

		_, err = l.Update(ctx, other)
		require.ErrorIs(t, err, ErrDeactivated)
	})
}

func TestLedger_Resolve(t *testing.T) {
	l := New("iota", "smr", cacheSize)

	t.Run("not found", func(t *testing.T) {
		_, err := l.Resolve(context.Background(), did.MustParse("did:iota:smr:0x03"))
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := l.Resolve(ctx, did.MustParse("did:iota:smr:0x03"))
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("deactivate unknown", func(t *testing.T) {
		require.ErrorIs(t, l.Deactivate(context.Background(), did.MustParse("did:iota:smr:0x04")), ErrNotFound)
	})

	t.Run("survives cache eviction", func(t *testing.T) {
		ctx := context.Background()

		published, err := l.Publish(ctx, l.Placeholder())
		require.NoError(t, err)

		_, err = l.Resolve(ctx, published.ID())
		require.NoError(t, err)
		require.NotNil(t, l.cache.GetBig(nil, []byte(published.ID().String())))

		l.cache.Reset()

		resolved, err := l.Resolve(ctx, published.ID())
		require.NoError(t, err)
		require.Equal(t, published.ID(), resolved.ID())
	})

	t.Run("update drops the cached state", func(t *testing.T) {
		ctx := context.Background()

		published, err := l.Publish(ctx, l.Placeholder())
		require.NoError(t, err)

		_, err = l.Resolve(ctx, published.ID())
		require.NoError(t, err)

		require.NoError(t, l.Deactivate(ctx, published.ID()))
		require.Nil(t, l.cache.GetBig(nil, []byte(published.ID().String())))

		resolved, err := l.Resolve(ctx, published.ID())
		require.NoError(t, err)
		require.True(t, resolved.Metadata().Deactivated)
	})
}

func newMemStorage(t *testing.T) *keystore.Storage {
	t.Helper()

	storage, err := keystore.NewMemStorage()
	require.NoError(t, err)

	return storage
}
