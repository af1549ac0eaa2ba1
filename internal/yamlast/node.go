// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

// Package yamlast builds positioned abstract syntax trees from YAML text.
package yamlast

// Kind identifies the concrete type of a Node.
type Kind int

const (
	KindObject Kind = iota
	KindArray
	KindProperty
	KindString
	KindNumber
	KindBoolean
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindProperty:
		return "property"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// Node is one positioned element of the tree. The set of implementations is
// closed: ObjectNode, ArrayNode, PropertyNode, StringNode, NumberNode,
// BooleanNode and NullNode. A node's offset range is always contained within
// its parent's range; the root has a nil parent.
type Node interface {
	Kind() Kind
	Offset() int
	Length() int
	End() int
	Parent() Node

	setParent(Node)
}

type base struct {
	offset int
	length int
	parent Node
}

func (b *base) Offset() int      { return b.offset }
func (b *base) Length() int      { return b.length }
func (b *base) End() int         { return b.offset + b.length }
func (b *base) Parent() Node     { return b.parent }
func (b *base) setParent(n Node) { b.parent = n }

// ObjectNode is a YAML mapping.
type ObjectNode struct {
	base
	Properties []*PropertyNode
}

func (*ObjectNode) Kind() Kind { return KindObject }

// Property returns the property with the given key, or nil.
func (o *ObjectNode) Property(key string) *PropertyNode {
	for _, p := range o.Properties {
		if p.Key != nil && p.Key.Value == key {
			return p
		}
	}
	return nil
}

// ArrayNode is a YAML sequence.
type ArrayNode struct {
	base
	Items []Node
}

func (*ArrayNode) Kind() Kind { return KindArray }

// PropertyNode is one mapping entry. Key is always a string node, even when
// the authored key was not a scalar. Value may be nil when the author has
// typed the key but no value yet; builders substitute a synthetic null in
// that case, so a nil Value only appears mid-construction.
type PropertyNode struct {
	base
	Key   *StringNode
	Value Node
}

func (*PropertyNode) Kind() Kind { return KindProperty }

// StringNode is a scalar string.
type StringNode struct {
	base
	Value  string
	Quoted bool
}

func (*StringNode) Kind() Kind { return KindString }

// NumberNode is a scalar number. IsInteger reports that the literal had no
// fractional or exponent part.
type NumberNode struct {
	base
	Value     float64
	IsInteger bool
}

func (*NumberNode) Kind() Kind { return KindNumber }

// BooleanNode is a scalar boolean. Literal preserves the authored casing.
type BooleanNode struct {
	base
	Value   bool
	Literal string
}

func (*BooleanNode) Kind() Kind { return KindBoolean }

// NullNode is a scalar null. Synthetic marks nulls substituted during error
// recovery (e.g. a key with no value) as opposed to an authored null.
type NullNode struct {
	base
	Synthetic bool
}

func (*NullNode) Kind() Kind { return KindNull }

// Value returns the Go value of a scalar node, or nil for collections.
func Value(n Node) any {
	switch t := n.(type) {
	case *StringNode:
		return t.Value
	case *NumberNode:
		if t.IsInteger {
			return int64(t.Value)
		}
		return t.Value
	case *BooleanNode:
		return t.Value
	case *NullNode:
		return nil
	default:
		return nil
	}
}

// NodeAtOffset returns the deepest node whose range contains offset. When
// includeEnd is true a node whose range ends exactly at offset still
// contains it, which is what completion wants for a cursor sitting just
// after the last typed character.
func NodeAtOffset(root Node, offset int, includeEnd bool) Node {
	if root == nil || !contains(root, offset, includeEnd) {
		return nil
	}
	node := root
	for {
		child := childAtOffset(node, offset, includeEnd)
		if child == nil {
			return node
		}
		node = child
	}
}

func contains(n Node, offset int, includeEnd bool) bool {
	if includeEnd {
		return offset >= n.Offset() && offset <= n.End()
	}
	return offset >= n.Offset() && offset < n.End()
}

func childAtOffset(n Node, offset int, includeEnd bool) Node {
	switch t := n.(type) {
	case *ObjectNode:
		for _, p := range t.Properties {
			if contains(p, offset, includeEnd) {
				return p
			}
		}
	case *ArrayNode:
		for _, it := range t.Items {
			if contains(it, offset, includeEnd) {
				return it
			}
		}
	case *PropertyNode:
		if t.Key != nil && contains(t.Key, offset, includeEnd) {
			return t.Key
		}
		if t.Value != nil && contains(t.Value, offset, includeEnd) {
			return t.Value
		}
	}
	return nil
}

// Walk calls fn for n and every node beneath it, parents before children.
func Walk(n Node, fn func(Node)) {
	if n == nil {
		return
	}
	fn(n)
	switch t := n.(type) {
	case *ObjectNode:
		for _, p := range t.Properties {
			Walk(p, fn)
		}
	case *ArrayNode:
		for _, it := range t.Items {
			Walk(it, fn)
		}
	case *PropertyNode:
		if t.Key != nil {
			Walk(t.Key, fn)
		}
		if t.Value != nil {
			Walk(t.Value, fn)
		}
	}
}
