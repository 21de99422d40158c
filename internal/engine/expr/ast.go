// Copyright 2019 The Vearch Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package expr

import (
	"fmt"
	"strings"

	"github.com/vearch/vdbclient/proto/entity"
)

// Operator is a comparison operator of the filter language.
type Operator string

const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpGreaterThan  Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLessThan     Operator = "<"
	OpLessEqual    Operator = "<="
)

// Node is a compiled boolean expression over a row.
type Node interface {
	Eval(r entity.Row) bool
	String() string
}

type AndNode struct {
	Left, Right Node
}

func (n *AndNode) Eval(r entity.Row) bool {
	return n.Left.Eval(r) && n.Right.Eval(r)
}

func (n *AndNode) String() string {
	return fmt.Sprintf("(%s and %s)", n.Left, n.Right)
}

type OrNode struct {
	Left, Right Node
}

func (n *OrNode) Eval(r entity.Row) bool {
	return n.Left.Eval(r) || n.Right.Eval(r)
}

func (n *OrNode) String() string {
	return fmt.Sprintf("(%s or %s)", n.Left, n.Right)
}

type NotNode struct {
	Child Node
}

func (n *NotNode) Eval(r entity.Row) bool {
	return !n.Child.Eval(r)
}

func (n *NotNode) String() string {
	return fmt.Sprintf("not %s", n.Child)
}

// CompareNode compares a field with a literal.
type CompareNode struct {
	Field string
	Op    Operator
	Value entity.Value
}

func (n *CompareNode) Eval(r entity.Row) bool {
	v, ok := r[n.Field]
	if !ok {
		return false
	}
	c, ok := entity.Compare(v, n.Value)
	if !ok {
		return false
	}
	switch n.Op {
	case OpEqual:
		return c == 0
	case OpNotEqual:
		return c != 0
	case OpGreaterThan:
		return c > 0
	case OpGreaterEqual:
		return c >= 0
	case OpLessThan:
		return c < 0
	case OpLessEqual:
		return c <= 0
	}
	return false
}

func (n *CompareNode) String() string {
	return fmt.Sprintf("%s %s %s", n.Field, n.Op, literal(n.Value))
}

type InNode struct {
	Field  string
	Values []entity.Value
	Negate bool
}

func (n *InNode) Eval(r entity.Row) bool {
	v, ok := r[n.Field]
	if !ok {
		return false
	}
	for _, candidate := range n.Values {
		if c, ok := entity.Compare(v, candidate); ok && c == 0 {
			return !n.Negate
		}
	}
	return n.Negate
}

func (n *InNode) String() string {
	items := make([]string, len(n.Values))
	for i, v := range n.Values {
		items[i] = literal(v)
	}
	op := "in"
	if n.Negate {
		op = "not in"
	}
	return fmt.Sprintf("%s %s [%s]", n.Field, op, strings.Join(items, ", "))
}

// LikeNode matches a VarChar field against a pattern where % matches any run of characters.
type LikeNode struct {
	Field   string
	Pattern string
}

func (n *LikeNode) Eval(r entity.Row) bool {
	v, ok := r[n.Field]
	if !ok || v.Type != entity.DataTypeVarChar {
		return false
	}
	return matchLike(v.Str, n.Pattern)
}

func (n *LikeNode) String() string {
	return fmt.Sprintf("%s like %q", n.Field, n.Pattern)
}

type matchAll struct{}

func (matchAll) Eval(entity.Row) bool { return true }

func (matchAll) String() string { return "" }

func matchLike(s, pattern string) bool {
	parts := strings.Split(pattern, "%")
	if len(parts) == 1 {
		return s == pattern
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	last := parts[len(parts)-1]
	for _, p := range parts[1 : len(parts)-1] {
		idx := strings.Index(s, p)
		if idx < 0 {
			return false
		}
		s = s[idx+len(p):]
	}
	return len(s) >= len(last) && strings.HasSuffix(s, last)
}

func literal(v entity.Value) string {
	if v.Type == entity.DataTypeVarChar {
		return fmt.Sprintf("%q", v.Str)
	}
	return v.String()
}
