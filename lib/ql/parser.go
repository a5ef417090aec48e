package ql

import (
	"errors"
	"fmt"
)

// ----------------------------------------
// Errors
// ----------------------------------------

var (
	// ErrUnexpectedEOF is returned when a statement ends mid-production
	ErrUnexpectedEOF = errors.New("ql: unexpected end of statement")
	// ErrUnexpectedToken is returned when a token does not fit the grammar
	ErrUnexpectedToken = errors.New("ql: unexpected token")
	// ErrUnknownStatement is returned when the leading keyword is not a
	// statement
	ErrUnknownStatement = errors.New("ql: unknown statement")
)

// ----------------------------------------
// AST
// ----------------------------------------

// Type is one element of a type expression.
type Type uint8

const (
	TypeString Type = iota
	TypeBinary
	TypeList
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeBinary:
		return "binary"
	case TypeList:
		return "list"
	default:
		return "unknown"
	}
}

// TypeExpression is a nested value type flattened outside-in, so
// `list<string>` becomes [TypeList, TypeString].
type TypeExpression []Type

func (te TypeExpression) String() string {
	s := ""
	for i, t := range te {
		if i > 0 {
			s += "<"
		}
		s += t.String()
	}
	for i := 1; i < len(te); i++ {
		s += ">"
	}
	return s
}

// Entity names a model, optionally qualified with its space. An empty
// Space resolves against the session's current space.
type Entity struct {
	Space string
	Name  string
}

func (e Entity) String() string {
	if e.Space == "" {
		return e.Name
	}
	return e.Space + "." + e.Name
}

// Statement is one parsed DDL statement.
type Statement interface {
	stmt()
}

// CreateSpace creates a new keyspace.
type CreateSpace struct {
	Name string
}

// CreateModel creates a new table with the given key and value types.
type CreateModel struct {
	Entity   Entity
	KeyType  Type
	Value    TypeExpression
	Volatile bool
}

// DropSpace removes a keyspace. With Force set the reference-count check
// is skipped.
type DropSpace struct {
	Name  string
	Force bool
}

// DropModel removes a table. With Force set the reference-count check is
// skipped.
type DropModel struct {
	Entity Entity
	Force  bool
}

// Use switches the session's current space and optionally its model.
type Use struct {
	Space string
	Model string
}

// InspectSpaces lists all keyspaces.
type InspectSpaces struct{}

// InspectSpace lists the tables of one keyspace. An empty Name means the
// session's current space.
type InspectSpace struct {
	Name string
}

// InspectModel describes one table. An empty entity means the session's
// current model.
type InspectModel struct {
	Entity Entity
}

func (CreateSpace) stmt()   {}
func (CreateModel) stmt()   {}
func (DropSpace) stmt()     {}
func (DropModel) stmt()     {}
func (Use) stmt()           {}
func (InspectSpaces) stmt() {}
func (InspectSpace) stmt()  {}
func (InspectModel) stmt()  {}

// ----------------------------------------
// Parser
// ----------------------------------------

type parser struct {
	tokens []Token
	pos    int
}

// Parse turns tokens into exactly one statement. Trailing tokens after a
// complete statement are an error.
func Parse(tokens []Token) (Statement, error) {
	p := &parser{tokens: tokens}
	kw, err := p.keyword()
	if err != nil {
		return nil, err
	}
	var st Statement
	switch kw {
	case KwCreate:
		st, err = p.parseCreate()
	case KwDrop:
		st, err = p.parseDrop()
	case KwUse:
		st, err = p.parseUse()
	case KwInspect:
		st, err = p.parseInspect()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatement, kw)
	}
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("%w: %s after statement", ErrUnexpectedToken, p.tokens[p.pos])
	}
	return st, nil
}

// ParseSource lexes and parses src in one step.
func ParseSource(src []byte) (Statement, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

// ParseTypeExpression parses a standalone type expression such as
// `list<string>`. Trailing tokens are an error.
func ParseTypeExpression(src string) (TypeExpression, error) {
	tokens, err := Lex([]byte(src))
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	expr, err := p.typeExpression()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("%w: %s after type expression", ErrUnexpectedToken, p.tokens[p.pos])
	}
	return expr, nil
}

func (p *parser) next() (Token, error) {
	if p.pos >= len(p.tokens) {
		return Token{}, ErrUnexpectedEOF
	}
	t := p.tokens[p.pos]
	p.pos++
	return t, nil
}

func (p *parser) keyword() (Keyword, error) {
	t, err := p.next()
	if err != nil {
		return 0, err
	}
	if t.Kind != TkKeyword {
		return 0, fmt.Errorf("%w: expected keyword, got %s", ErrUnexpectedToken, t)
	}
	return t.Keyword, nil
}

func (p *parser) ident() (string, error) {
	t, err := p.next()
	if err != nil {
		return "", err
	}
	if t.Kind != TkIdentifier {
		return "", fmt.Errorf("%w: expected identifier, got %s", ErrUnexpectedToken, t)
	}
	return t.Lit, nil
}

func (p *parser) expect(kind TokenKind) error {
	t, err := p.next()
	if err != nil {
		return err
	}
	if t.Kind != kind {
		return fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedToken, kind, t)
	}
	return nil
}

// acceptKeyword consumes the next token if it is the given keyword.
func (p *parser) acceptKeyword(kw Keyword) bool {
	if p.pos < len(p.tokens) && p.tokens[p.pos].Kind == TkKeyword && p.tokens[p.pos].Keyword == kw {
		p.pos++
		return true
	}
	return false
}

// entity parses `name` or `space.name`.
func (p *parser) entity() (Entity, error) {
	first, err := p.ident()
	if err != nil {
		return Entity{}, err
	}
	if p.pos < len(p.tokens) && p.tokens[p.pos].Kind == TkPeriod {
		p.pos++
		second, err := p.ident()
		if err != nil {
			return Entity{}, err
		}
		return Entity{Space: first, Name: second}, nil
	}
	return Entity{Name: first}, nil
}

// parseCreate handles `create space <name>` and
// `create model <entity>(<type>, <type-expr>) [volatile]`.
func (p *parser) parseCreate() (Statement, error) {
	kw, err := p.keyword()
	if err != nil {
		return nil, err
	}
	switch kw {
	case KwSpace:
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		return CreateSpace{Name: name}, nil
	case KwModel:
		entity, err := p.entity()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TkOpenParen); err != nil {
			return nil, err
		}
		keyType, err := p.simpleType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TkComma); err != nil {
			return nil, err
		}
		value, err := p.typeExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TkCloseParen); err != nil {
			return nil, err
		}
		return CreateModel{
			Entity:   entity,
			KeyType:  keyType,
			Value:    value,
			Volatile: p.acceptKeyword(KwVolatile),
		}, nil
	default:
		return nil, fmt.Errorf("%w: create %q", ErrUnknownStatement, kw)
	}
}

// parseDrop handles `drop space <name> [force]` and
// `drop model <entity> [force]`.
func (p *parser) parseDrop() (Statement, error) {
	kw, err := p.keyword()
	if err != nil {
		return nil, err
	}
	switch kw {
	case KwSpace:
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		return DropSpace{Name: name, Force: p.acceptKeyword(KwForce)}, nil
	case KwModel:
		entity, err := p.entity()
		if err != nil {
			return nil, err
		}
		return DropModel{Entity: entity, Force: p.acceptKeyword(KwForce)}, nil
	default:
		return nil, fmt.Errorf("%w: drop %q", ErrUnknownStatement, kw)
	}
}

// parseUse handles `use <space>[.<model>]`.
func (p *parser) parseUse() (Statement, error) {
	entity, err := p.entity()
	if err != nil {
		return nil, err
	}
	if entity.Space == "" {
		return Use{Space: entity.Name}, nil
	}
	return Use{Space: entity.Space, Model: entity.Name}, nil
}

// parseInspect handles `inspect spaces`, `inspect space [<name>]` and
// `inspect model [<entity>]`.
func (p *parser) parseInspect() (Statement, error) {
	t, err := p.next()
	if err != nil {
		return nil, err
	}
	if t.Kind == TkIdentifier && t.Lit == "spaces" {
		return InspectSpaces{}, nil
	}
	if t.Kind != TkKeyword {
		return nil, fmt.Errorf("%w: inspect %s", ErrUnknownStatement, t)
	}
	switch t.Keyword {
	case KwSpace:
		if p.pos == len(p.tokens) {
			return InspectSpace{}, nil
		}
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		return InspectSpace{Name: name}, nil
	case KwModel:
		if p.pos == len(p.tokens) {
			return InspectModel{}, nil
		}
		entity, err := p.entity()
		if err != nil {
			return nil, err
		}
		return InspectModel{Entity: entity}, nil
	default:
		return nil, fmt.Errorf("%w: inspect %q", ErrUnknownStatement, t.Keyword)
	}
}

// simpleType parses a bare type keyword.
func (p *parser) simpleType() (Type, error) {
	kw, err := p.keyword()
	if err != nil {
		return 0, err
	}
	t, ok := typeOf(kw)
	if !ok {
		return 0, fmt.Errorf("%w: expected type, got keyword %q", ErrUnexpectedToken, kw)
	}
	return t, nil
}

// typeExpression parses a possibly nested type, e.g. `list<string>`.
func (p *parser) typeExpression() (TypeExpression, error) {
	t, err := p.simpleType()
	if err != nil {
		return nil, err
	}
	expr := TypeExpression{t}
	depth := 0
	for p.pos < len(p.tokens) && p.tokens[p.pos].Kind == TkOpenAngular {
		p.pos++
		depth++
		inner, err := p.simpleType()
		if err != nil {
			return nil, err
		}
		expr = append(expr, inner)
	}
	for ; depth > 0; depth-- {
		if err := p.expect(TkCloseAngular); err != nil {
			return nil, err
		}
	}
	return expr, nil
}

func typeOf(kw Keyword) (Type, bool) {
	switch kw {
	case KwString:
		return TypeString, true
	case KwBinary:
		return TypeBinary, true
	case KwList:
		return TypeList, true
	default:
		return 0, false
	}
}
