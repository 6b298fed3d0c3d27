/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jpt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseClaimPath(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		for s, want := range map[string]ClaimPath{
			"iss":                       {Key("iss")},
			"vc.credentialSubject.name": {Key("vc"), Key("credentialSubject"), Key("name")},
			"vc.type[1]":                {Key("vc"), Key("type"), Index(1)},
			"a[0][2].b":                 {Key("a"), Index(0), Index(2), Key("b")},
			`vc.credentialSubject.a\.b`: {Key("vc"), Key("credentialSubject"), Key("a.b")},
			`k\[0]`:                     {Key("k[0]")},
			`back\\slash`:               {Key(`back\slash`)},
		} {
			p, err := ParseClaimPath(s)
			require.NoError(t, err, s)
			require.Equal(t, want, p, s)
			require.Equal(t, s, p.String())
		}
	})

	t.Run("invalid", func(t *testing.T) {
		for _, s := range []string{"", ".a", "a.", "a..b", "[0]", "a[", "a[x]", "a[-1]", "a[]", "a[0]b", `a\b`, `a\`} {
			_, err := ParseClaimPath(s)
			require.ErrorIs(t, err, ErrInvalidClaimPath, s)
		}
	})

	t.Run("escape round trip", func(t *testing.T) {
		p := ClaimPath{Key("x.y[z]\\"), Index(3)}
		parsed, err := ParseClaimPath(p.String())
		require.NoError(t, err)
		require.Equal(t, p, parsed)
	})
}

func TestClaimPath_HasPrefix(t *testing.T) {
	p := MustParseClaimPath("vc.credentialSubject.degree.name")

	require.True(t, p.HasPrefix(MustParseClaimPath("vc")))
	require.True(t, p.HasPrefix(MustParseClaimPath("vc.credentialSubject.degree")))
	require.True(t, p.HasPrefix(p))
	require.False(t, p.HasPrefix(MustParseClaimPath("vc.credentialSubject.deg")))
	require.False(t, p.HasPrefix(p.Join(Key("more"))))
	require.Panics(t, func() { MustParseClaimPath("") })
}

func TestFlatten(t *testing.T) {
	var claims map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"vc": {
			"type": ["VerifiableCredential", "KYC"],
			"credentialSubject": {"name": "Alice", "degree": {"type": "BSc", "name": "Math"}, "tags": [], "extra": {}}
		},
		"iss": "did:example:issuer",
		"nbf": 1700000000
	}`), &claims))

	flat := Flatten(claims)

	paths := make([]string, len(flat))
	for i, c := range flat {
		paths[i] = c.Path.String()
	}

	require.Equal(t, []string{
		"iss",
		"nbf",
		"vc.credentialSubject.degree.name",
		"vc.credentialSubject.degree.type",
		"vc.credentialSubject.extra",
		"vc.credentialSubject.name",
		"vc.credentialSubject.tags",
		"vc.type[0]",
		"vc.type[1]",
	}, paths)

	t.Run("unflatten restores the tree", func(t *testing.T) {
		tree, err := Unflatten(flat)
		require.NoError(t, err)
		require.Equal(t, claims, tree)
	})

	t.Run("missing array elements are dropped", func(t *testing.T) {
		tree, err := Unflatten([]Claim{
			{Path: MustParseClaimPath("a[0]"), Value: "x"},
			{Path: MustParseClaimPath("a[2]"), Value: "z"},
		})
		require.NoError(t, err)
		require.Equal(t, map[string]interface{}{"a": []interface{}{"x", "z"}}, tree)
	})

	t.Run("conflicting claims", func(t *testing.T) {
		_, err := Unflatten([]Claim{
			{Path: MustParseClaimPath("a"), Value: "x"},
			{Path: MustParseClaimPath("a.b"), Value: "y"},
		})
		require.ErrorIs(t, err, ErrInvalidClaimPath)

		_, err = Unflatten([]Claim{
			{Path: MustParseClaimPath("a.b"), Value: "x"},
			{Path: MustParseClaimPath("a[0]"), Value: "y"},
		})
		require.ErrorIs(t, err, ErrInvalidClaimPath)

		_, err = Unflatten([]Claim{
			{Path: MustParseClaimPath("a"), Value: "x"},
			{Path: MustParseClaimPath("a"), Value: "y"},
		})
		require.ErrorIs(t, err, ErrInvalidClaimPath)

		_, err = Unflatten([]Claim{{Path: ClaimPath{Index(0)}, Value: "x"}})
		require.ErrorIs(t, err, ErrInvalidClaimPath)
	})
}
