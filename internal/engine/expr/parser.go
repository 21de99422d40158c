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
	"strconv"
	"strings"

	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

const (
	// MaxFilterLength bounds the filter text in bytes.
	MaxFilterLength = 64 << 10
	// MaxNestingDepth bounds parentheses and negations.
	MaxNestingDepth = 128
)

// Expr is a filter compiled against a collection schema.
type Expr struct {
	text   string
	root   Node
	fields []string
}

// Parse compiles filter for the schema. An empty filter matches every row. Syntax errors,
// unknown or vector fields and literals of the wrong type are InvalidFilter.
func Parse(filter string, schema *entity.CollectionSchema) (*Expr, error) {
	e := &Expr{text: filter}
	if strings.TrimSpace(filter) == "" {
		e.root = matchAll{}
		return e, nil
	}
	if len(filter) > MaxFilterLength {
		return nil, fault.InvalidFilter(filter[:64]+"...", fmt.Errorf("filter is %d bytes, limit %d", len(filter), MaxFilterLength))
	}
	tokens, err := lex(filter)
	if err != nil {
		return nil, fault.InvalidFilter(filter, err)
	}
	p := &parser{tokens: tokens, schema: schema, seen: map[string]struct{}{}}
	root, err := p.parseOr()
	if err == nil && p.peek().kind != tokEOF {
		err = fmt.Errorf("unexpected %s", p.peek())
	}
	if err != nil {
		return nil, fault.InvalidFilter(filter, err)
	}
	e.root = root
	e.fields = p.fields
	return e, nil
}

func (e *Expr) Match(r entity.Row) bool {
	return e.root.Eval(r)
}

// Fields lists the fields the filter reads, in order of appearance.
func (e *Expr) Fields() []string {
	return e.fields
}

func (e *Expr) Empty() bool {
	_, ok := e.root.(matchAll)
	return ok
}

func (e *Expr) Root() Node {
	return e.root
}

func (e *Expr) String() string {
	return e.text
}

type parser struct {
	tokens []token
	pos    int
	schema *entity.CollectionSchema
	fields []string
	seen   map[string]struct{}
	depth  int
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > MaxNestingDepth {
		return fmt.Errorf("filter nests deeper than %d levels", MaxNestingDepth)
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, fmt.Errorf("expected %s, got %s", kind, t)
	}
	return t, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if !t.keyword("or") && !(t.kind == tokOp && t.text == "||") {
			return left, nil
		}
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &OrNode{Left: left, Right: right}
	}
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if !t.keyword("and") && !(t.kind == tokOp && t.text == "&&") {
			return left, nil
		}
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &AndNode{Left: left, Right: right}
	}
}

func (p *parser) parseNot() (Node, error) {
	t := p.peek()
	if t.keyword("not") || (t.kind == tokOp && t.text == "!") {
		p.next()
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		child, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &NotNode{Child: child}, nil
	}
	return p.parseCmp()
}

func (p *parser) parseCmp() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return n, nil
	case tokIdent:
	default:
		return nil, fmt.Errorf("expected field name, got %s", t)
	}

	field, err := p.field(t)
	if err != nil {
		return nil, err
	}

	op := p.next()
	switch {
	case op.kind == tokOp:
		switch Operator(op.text) {
		case OpEqual, OpNotEqual, OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual:
		default:
			return nil, fmt.Errorf("unexpected operator %s", op)
		}
		v, err := p.literal(field)
		if err != nil {
			return nil, err
		}
		if field.DataType == entity.DataTypeBool && Operator(op.text) != OpEqual && Operator(op.text) != OpNotEqual {
			return nil, fmt.Errorf("operator %s is not defined on bool field %s", op.text, field.Name)
		}
		return &CompareNode{Field: field.Name, Op: Operator(op.text), Value: v}, nil
	case op.keyword("in"):
		return p.parseIn(field, false)
	case op.keyword("not"):
		if in := p.next(); !in.keyword("in") {
			return nil, fmt.Errorf("expected 'in' after 'not', got %s", in)
		}
		return p.parseIn(field, true)
	case op.keyword("like"):
		if field.DataType != entity.DataTypeVarChar {
			return nil, fmt.Errorf("like is only defined on varchar fields, %s is %s", field.Name, field.DataType)
		}
		s, err := p.expect(tokString)
		if err != nil {
			return nil, err
		}
		return &LikeNode{Field: field.Name, Pattern: s.text}, nil
	}
	return nil, fmt.Errorf("expected operator after %s, got %s", field.Name, op)
}

func (p *parser) parseIn(field *entity.FieldSchema, negate bool) (Node, error) {
	if _, err := p.expect(tokLBracket); err != nil {
		return nil, err
	}
	n := &InNode{Field: field.Name, Negate: negate}
	if p.peek().kind == tokRBracket {
		p.next()
		return n, nil
	}
	for {
		v, err := p.literal(field)
		if err != nil {
			return nil, err
		}
		n.Values = append(n.Values, v)
		t := p.next()
		if t.kind == tokRBracket {
			return n, nil
		}
		if t.kind != tokComma {
			return nil, fmt.Errorf("expected ',' or ']', got %s", t)
		}
	}
}

func (p *parser) field(t token) (*entity.FieldSchema, error) {
	f := p.schema.Field(t.text)
	if f == nil {
		return nil, fmt.Errorf("field %s not found in collection %s", t.text, p.schema.CollectionName)
	}
	if f.DataType.IsVector() {
		return nil, fmt.Errorf("vector field %s can not be filtered", f.Name)
	}
	if _, ok := p.seen[f.Name]; !ok {
		p.seen[f.Name] = struct{}{}
		p.fields = append(p.fields, f.Name)
	}
	return f, nil
}

// literal reads one literal and checks it against the field type.
func (p *parser) literal(field *entity.FieldSchema) (entity.Value, error) {
	t := p.next()
	var v entity.Value
	switch {
	case t.kind == tokInt:
		i, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return v, fmt.Errorf("invalid integer %s", t)
		}
		v = entity.NewInt64(i)
	case t.kind == tokFloat:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return v, fmt.Errorf("invalid float %s", t)
		}
		v = entity.NewDouble(f)
	case t.kind == tokString:
		v = entity.NewVarChar(t.text)
	case t.keyword("true"):
		v = entity.NewBool(true)
	case t.keyword("false"):
		v = entity.NewBool(false)
	default:
		return v, fmt.Errorf("expected literal, got %s", t)
	}

	switch {
	case field.DataType.IsNumeric() && v.Type.IsNumeric():
	case field.DataType == v.Type:
	default:
		return v, fmt.Errorf("literal %s does not match %s field %s", t, field.DataType, field.Name)
	}
	return v, nil
}
