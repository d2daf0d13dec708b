package cran

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrRExpression indicates an Authors@R value that could not be evaluated.
var ErrRExpression = errors.New("unsupported R expression")

// personArgs is the positional argument order of R's person().
var personArgs = []string{"given", "family", "middle", "email", "role", "comment", "first", "last"}

// evalR evaluates the subset of R used in DESCRIPTION Authors@R fields:
// calls to c(), list() and person() with positional or named arguments,
// string and numeric literals and NULL/NA/TRUE/FALSE.
//
// Results are string, []any, map[string]any or nil.
func evalR(src string) (any, error) {
	p := &rParser{src: src}
	v, err := p.expr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return v, nil
}

type rParser struct {
	src string
	pos int
}

func (p *rParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: at offset %d: %s", ErrRExpression, p.pos, fmt.Sprintf(format, args...))
}

func (p *rParser) skipSpace() {
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		switch {
		case ch == '#':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		case unicode.IsSpace(rune(ch)):
			p.pos++
		default:
			return
		}
	}
}

func (p *rParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *rParser) expr() (any, error) {
	switch ch := p.peek(); {
	case ch == 0:
		return nil, p.errorf("unexpected end of input")
	case ch == '"' || ch == '\'':
		return p.str()
	case ch == '-' || (ch >= '0' && ch <= '9'):
		return p.number()
	case isIdentStart(ch):
		name := p.ident()
		if p.peek() == '(' {
			p.pos++
			return p.call(name)
		}
		switch name {
		case "NULL", "NA", "NA_character_":
			return nil, nil
		case "TRUE", "T":
			return "TRUE", nil
		case "FALSE", "F":
			return "FALSE", nil
		}
		return nil, p.errorf("unknown symbol %q", name)
	default:
		return nil, p.errorf("unexpected %q", string(ch))
	}
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '.' || ch == '`' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

func (p *rParser) ident() string {
	if p.src[p.pos] == '`' {
		end := strings.IndexByte(p.src[p.pos+1:], '`')
		if end < 0 {
			name := p.src[p.pos+1:]
			p.pos = len(p.src)
			return name
		}
		name := p.src[p.pos+1 : p.pos+1+end]
		p.pos += end + 2
		return name
	}
	start := p.pos
	for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) && p.src[p.pos] != '`' {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *rParser) str() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		switch {
		case ch == quote:
			p.pos++
			return b.String(), nil
		case ch == '\\' && p.pos+1 < len(p.src):
			next := p.src[p.pos+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(next)
			}
			p.pos += 2
		default:
			b.WriteByte(ch)
			p.pos++
		}
	}
	return "", p.errorf("unterminated string")
}

func (p *rParser) number() (string, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && (p.src[p.pos] == '.' || p.src[p.pos] == 'L' || (p.src[p.pos] >= '0' && p.src[p.pos] <= '9')) {
		p.pos++
	}
	lit := strings.TrimSuffix(p.src[start:p.pos], "L")
	if _, err := strconv.ParseFloat(lit, 64); err != nil {
		return "", p.errorf("invalid number %q", lit)
	}
	return lit, nil
}

type rArg struct {
	name  string
	value any
}

// args parses a call's argument list after the opening parenthesis. Empty
// positions (", ,") become nil values.
func (p *rParser) args() ([]rArg, error) {
	var out []rArg
	if p.peek() == ')' {
		p.pos++
		return out, nil
	}
	for {
		var arg rArg
		switch ch := p.peek(); {
		case ch == ',' || ch == ')':
			// empty argument
		default:
			save := p.pos
			name, ok := p.argName()
			if ok {
				arg.name = name
			} else {
				p.pos = save
			}
			v, err := p.expr()
			if err != nil {
				return nil, err
			}
			arg.value = v
		}
		out = append(out, arg)

		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return out, nil
		default:
			return nil, p.errorf("expected ',' or ')'")
		}
	}
}

// argName consumes `name =` (bare, backquoted or quoted) when present.
func (p *rParser) argName() (string, bool) {
	ch := p.peek()
	var name string
	switch {
	case ch == '"' || ch == '\'':
		s, err := p.str()
		if err != nil {
			return "", false
		}
		name = s
	case isIdentStart(ch):
		name = p.ident()
	default:
		return "", false
	}
	if p.peek() != '=' || (p.pos+1 < len(p.src) && p.src[p.pos+1] == '=') {
		return "", false
	}
	p.pos++
	return name, true
}

func (p *rParser) call(name string) (any, error) {
	args, err := p.args()
	if err != nil {
		return nil, err
	}
	switch name {
	case "c", "list":
		return combine(args), nil
	case "person":
		return person(args), nil
	case "as.person":
		if len(args) == 1 {
			if s, ok := args[0].value.(string); ok {
				given, family := splitPersonString(s)
				return map[string]any{"given": given, "family": family}, nil
			}
		}
	}
	return nil, p.errorf("unsupported function %s()", name)
}

// combine emulates c(): unnamed arguments form a list (nested lists are
// flattened), any named argument makes it a map of the named values.
func combine(args []rArg) any {
	named := false
	for _, a := range args {
		if a.name != "" {
			named = true
			break
		}
	}
	if named {
		m := make(map[string]any)
		for _, a := range args {
			if a.name != "" && a.value != nil {
				m[a.name] = a.value
			}
		}
		return m
	}

	list := make([]any, 0, len(args))
	for _, a := range args {
		if inner, ok := a.value.([]any); ok {
			list = append(list, inner...)
			continue
		}
		if a.value != nil {
			list = append(list, a.value)
		}
	}
	return list
}

// person emulates person(): positional arguments fill given, family, middle,
// email, role, comment in order; named arguments override.
func person(args []rArg) map[string]any {
	m := make(map[string]any)
	pos := 0
	for _, a := range args {
		if a.name != "" {
			continue
		}
		if pos < len(personArgs) && a.value != nil {
			m[personArgs[pos]] = a.value
		}
		pos++
	}
	for _, a := range args {
		if a.name != "" && a.value != nil {
			m[a.name] = a.value
		}
	}
	return m
}

// splitPersonString handles as.person("Given Family <email> [role]").
func splitPersonString(s string) (string, string) {
	if i := strings.IndexAny(s, "<["); i >= 0 {
		s = s[:i]
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", ""
	}
	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}
