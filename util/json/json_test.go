/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package json

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type testJSON struct {
	S []string `json:"stringSlice"`
	I int      `json:"intValue"`
}

func TestMergeCustomFields(t *testing.T) {
	t.Run("value fields win over custom ones", func(t *testing.T) {
		merged, err := MergeCustomFields(&testJSON{S: []string{"a"}, I: 7}, Object{
			"boolValue": false,
			"intValue":  8,
		})
		require.NoError(t, err)

		require.Equal(t, json.Number("7"), merged["intValue"])
		require.Equal(t, false, merged["boolValue"])
		require.Equal(t, []interface{}{"a"}, merged["stringSlice"])
	})

	t.Run("unmarshallable value", func(t *testing.T) {
		merged, err := MergeCustomFields(make(chan int), nil)
		require.Error(t, err)
		require.Nil(t, merged)
	})
}

func TestSplitJSONObj(t *testing.T) {
	selected, rest := SplitJSONObj(Object{"id": "x", "name": "Alice", "age": 3}, "id")

	require.Equal(t, Object{"id": "x"}, selected)
	require.Equal(t, Object{"name": "Alice", "age": 3}, rest)
}

func TestCopies(t *testing.T) {
	src := Object{
		"a": Object{"b": []interface{}{"c", Object{"d": 1}}},
		"e": "f",
	}

	t.Run("deep copy does not share nested containers", func(t *testing.T) {
		cp, ok := DeepCopy(src).(Object)
		require.True(t, ok)
		require.Equal(t, src, cp)

		cp["a"].(Object)["b"].([]interface{})[1].(Object)["d"] = 2
		require.Equal(t, 1, src["a"].(Object)["b"].([]interface{})[1].(Object)["d"])
	})

	t.Run("shallow copy and copy except", func(t *testing.T) {
		cp := ShallowCopyObj(src)
		cp["e"] = "g"
		require.Equal(t, "f", src["e"])

		require.Equal(t, Object{"e": "f"}, CopyExcept(src, "a"))
	})
}

func TestToMap(t *testing.T) {
	t.Run("from bytes keeps numbers", func(t *testing.T) {
		m, err := ToMap([]byte(`{"n": 1.50}`))
		require.NoError(t, err)
		require.Equal(t, json.Number("1.50"), m["n"])
	})

	t.Run("from string", func(t *testing.T) {
		m, err := ToMap(`{"s": "v"}`)
		require.NoError(t, err)
		require.Equal(t, "v", m["s"])
	})

	t.Run("map is returned as is", func(t *testing.T) {
		in := Object{"k": "v"}
		m, err := ToMap(in)
		require.NoError(t, err)
		require.Equal(t, in, m)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		m, err := ToMap("[1, 2]")
		require.Error(t, err)
		require.Contains(t, err.Error(), "convert to map")
		require.Nil(t, m)
	})
}
