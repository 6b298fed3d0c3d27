/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jpt

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// Claim is a leaf of a flattened claim tree.
type Claim struct {
	Path  ClaimPath
	Value interface{}
}

// Flatten lists the leaves of a claim tree. Object keys are visited in sorted order and array
// elements in index order. Empty objects and arrays are leaves.
func Flatten(claims map[string]interface{}) []Claim {
	var out []Claim

	for _, k := range sortedKeys(claims) {
		flatten(ClaimPath{Key(k)}, claims[k], &out)
	}

	return out
}

func flatten(path ClaimPath, v interface{}, out *[]Claim) {
	switch t := v.(type) {
	case map[string]interface{}:
		if len(t) == 0 {
			break
		}

		for _, k := range sortedKeys(t) {
			flatten(path.Join(Key(k)), t[k], out)
		}

		return
	case []interface{}:
		if len(t) == 0 {
			break
		}

		for i, e := range t {
			flatten(path.Join(Index(i)), e, out)
		}

		return
	}

	*out = append(*out, Claim{Path: path, Value: v})
}

func sortedKeys(m map[string]interface{}) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)

	return keys
}

type node struct {
	leaf     interface{}
	isLeaf   bool
	object   map[string]*node
	array    map[int]*node
	isArray  bool
	assigned bool
}

// Unflatten rebuilds a claim tree from leaves. Missing array elements are dropped and the
// remaining ones keep their relative order.
func Unflatten(claims []Claim) (map[string]interface{}, error) {
	root := &node{object: map[string]*node{}, assigned: true}

	for _, c := range claims {
		if len(c.Path) == 0 || c.Path[0].IsIndex {
			return nil, fmt.Errorf("%w: %q", ErrInvalidClaimPath, c.Path)
		}

		if err := root.insert(c.Path, c.Value); err != nil {
			return nil, err
		}
	}

	obj, _ := root.value().(map[string]interface{})

	return obj, nil
}

func (n *node) insert(path ClaimPath, v interface{}) error {
	cur := n

	for i, seg := range path {
		child, err := cur.child(seg)
		if err != nil {
			return fmt.Errorf("%w: %s", err, path[:i+1])
		}

		cur = child
	}

	if cur.assigned {
		return fmt.Errorf("%w: duplicate claim %s", ErrInvalidClaimPath, path)
	}

	cur.leaf, cur.isLeaf, cur.assigned = v, true, true

	return nil
}

func (n *node) child(seg Segment) (*node, error) {
	switch {
	case n.isLeaf:
		return nil, fmt.Errorf("%w: claim is both leaf and container", ErrInvalidClaimPath)
	case !n.assigned:
		n.assigned = true

		if seg.IsIndex {
			n.isArray, n.array = true, map[int]*node{}
		} else {
			n.object = map[string]*node{}
		}
	case seg.IsIndex != n.isArray:
		return nil, fmt.Errorf("%w: mixed object and array segments", ErrInvalidClaimPath)
	}

	if seg.IsIndex {
		c, ok := n.array[seg.Index]
		if !ok {
			c = &node{}
			n.array[seg.Index] = c
		}

		return c, nil
	}

	c, ok := n.object[seg.Key]
	if !ok {
		c = &node{}
		n.object[seg.Key] = c
	}

	return c, nil
}

func (n *node) value() interface{} {
	switch {
	case n.isLeaf:
		return n.leaf
	case n.isArray:
		idx := lo.Keys(n.array)
		slices.Sort(idx)

		return lo.Map(idx, func(i int, _ int) interface{} { return n.array[i].value() })
	default:
		return lo.MapValues(n.object, func(c *node, _ string) interface{} { return c.value() })
	}
}
