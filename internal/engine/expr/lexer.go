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
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString
	tokOp
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of expression"
	case tokIdent:
		return "identifier"
	case tokInt:
		return "integer"
	case tokFloat:
		return "float"
	case tokString:
		return "string"
	case tokOp:
		return "operator"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokComma:
		return "','"
	}
	return "unknown"
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

// keyword reports whether an identifier token is the given keyword, ignoring case.
func (t token) keyword(kw string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (t token) String() string {
	if t.kind == tokEOF {
		return t.kind.String()
	}
	return fmt.Sprintf("%q at %d", t.text, t.pos)
}

func lex(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		r, size := utf8.DecodeRuneInString(input[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++
		case r == ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++
		case r == '[':
			tokens = append(tokens, token{tokLBracket, "[", i})
			i++
		case r == ']':
			tokens = append(tokens, token{tokRBracket, "]", i})
			i++
		case r == ',':
			tokens = append(tokens, token{tokComma, ",", i})
			i++
		case r == '"' || r == '\'':
			s, n, err := lexString(input[i:], byte(r))
			if err != nil {
				return nil, fmt.Errorf("%v at %d", err, i)
			}
			tokens = append(tokens, token{tokString, s, i})
			i += n
		case isDigit(r) || ((r == '-' || r == '+' || r == '.') && i+1 < len(input) && isDigit(rune(input[i+1]))):
			kind, n := lexNumber(input[i:])
			tokens = append(tokens, token{kind, input[i : i+n], i})
			i += n
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(input) {
				r, size = utf8.DecodeRuneInString(input[i:])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				i += size
			}
			tokens = append(tokens, token{tokIdent, input[start:i], start})
		default:
			op := lexOp(input[i:])
			if op == "" {
				return nil, fmt.Errorf("unexpected character %q at %d", r, i)
			}
			tokens = append(tokens, token{tokOp, op, i})
			i += len(op)
		}
	}
	return append(tokens, token{tokEOF, "", len(input)}), nil
}

var operators = []string{"==", "!=", "<=", ">=", "&&", "||", "<", ">", "!"}

func lexOp(s string) string {
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	return ""
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func lexNumber(s string) (tokenKind, int) {
	kind := tokInt
	i := 0
	if s[0] == '-' || s[0] == '+' {
		i++
	}
	for i < len(s) {
		c := s[i]
		switch {
		case isDigit(rune(c)):
		case c == '.':
			kind = tokFloat
		case c == 'e' || c == 'E':
			kind = tokFloat
			if i+1 < len(s) && (s[i+1] == '-' || s[i+1] == '+') {
				i++
			}
		default:
			return kind, i
		}
		i++
	}
	return kind, i
}

// lexString reads a quoted literal with backslash escapes and returns its value and the
// number of bytes consumed.
func lexString(s string, quote byte) (string, int, error) {
	var sb strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch c {
		case quote:
			return sb.String(), i + 1, nil
		case '\\':
			if i+1 >= len(s) {
				return "", 0, fmt.Errorf("unterminated escape")
			}
			i++
			switch s[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(s[i])
			}
		default:
			sb.WriteByte(c)
		}
	}
	return "", 0, fmt.Errorf("unterminated string")
}
