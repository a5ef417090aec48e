package ql

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ----------------------------------------
// Errors
// ----------------------------------------

var (
	// ErrInvalidNumericLiteral is returned for numbers that overflow or are
	// not followed by a separator
	ErrInvalidNumericLiteral = errors.New("ql: invalid numeric literal")
	// ErrInvalidStringLiteral is returned for unterminated or non-UTF-8
	// quoted strings
	ErrInvalidStringLiteral = errors.New("ql: invalid string literal")
	// ErrUnexpectedChar is returned for bytes outside the language
	ErrUnexpectedChar = errors.New("ql: unexpected character")
)

// ----------------------------------------
// Tokens
// ----------------------------------------

// TokenKind discriminates the tokens produced by Lex.
type TokenKind uint8

const (
	TkOpenParen TokenKind = iota
	TkCloseParen
	TkOpenAngular
	TkCloseAngular
	TkComma
	TkColon
	TkPeriod
	TkQuotedString
	TkIdentifier
	TkNumber
	TkKeyword
)

func (k TokenKind) String() string {
	switch k {
	case TkOpenParen:
		return "'('"
	case TkCloseParen:
		return "')'"
	case TkOpenAngular:
		return "'<'"
	case TkCloseAngular:
		return "'>'"
	case TkComma:
		return "','"
	case TkColon:
		return "':'"
	case TkPeriod:
		return "'.'"
	case TkQuotedString:
		return "string"
	case TkIdentifier:
		return "identifier"
	case TkNumber:
		return "number"
	case TkKeyword:
		return "keyword"
	default:
		return "unknown"
	}
}

// Keyword enumerates the reserved words of the language. Type names are
// keywords too so that identifiers can never shadow them.
type Keyword uint8

const (
	KwCreate Keyword = iota
	KwUse
	KwDrop
	KwInspect
	KwModel
	KwSpace
	KwVolatile
	KwForce
	KwString
	KwBinary
	KwList
)

func (k Keyword) String() string {
	switch k {
	case KwCreate:
		return "create"
	case KwUse:
		return "use"
	case KwDrop:
		return "drop"
	case KwInspect:
		return "inspect"
	case KwModel:
		return "model"
	case KwSpace:
		return "space"
	case KwVolatile:
		return "volatile"
	case KwForce:
		return "force"
	case KwString:
		return "string"
	case KwBinary:
		return "binary"
	case KwList:
		return "list"
	default:
		return "unknown"
	}
}

// keywordOf resolves a lexeme to its keyword. Matching is case-insensitive
// over ASCII, so `CREATE` and `create` lex identically.
func keywordOf(lexeme []byte) (Keyword, bool) {
	buf := make([]byte, len(lexeme))
	for i, c := range lexeme {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		buf[i] = c
	}
	switch string(buf) {
	case "create":
		return KwCreate, true
	case "use":
		return KwUse, true
	case "drop":
		return KwDrop, true
	case "inspect":
		return KwInspect, true
	case "model":
		return KwModel, true
	case "space":
		return KwSpace, true
	case "volatile":
		return KwVolatile, true
	case "force":
		return KwForce, true
	case "string":
		return KwString, true
	case "binary":
		return KwBinary, true
	case "list":
		return KwList, true
	default:
		return 0, false
	}
}

// Token is one lexical element. Lit is set for identifiers and quoted
// strings, Num for numbers and Keyword for keywords.
type Token struct {
	Kind    TokenKind
	Lit     string
	Num     uint64
	Keyword Keyword
}

func (t Token) String() string {
	switch t.Kind {
	case TkIdentifier:
		return fmt.Sprintf("identifier %q", t.Lit)
	case TkQuotedString:
		return fmt.Sprintf("string %q", t.Lit)
	case TkNumber:
		return fmt.Sprintf("number %d", t.Num)
	case TkKeyword:
		return fmt.Sprintf("keyword %q", t.Keyword)
	default:
		return t.Kind.String()
	}
}

// ----------------------------------------
// Lexer
// ----------------------------------------

type lexer struct {
	src    []byte
	pos    int
	tokens []Token
}

// Lex tokenizes src. Identifiers start with a letter and continue with
// letters, digits and underscores. Numbers must be followed by a space or
// the end of the input. Quoted strings accept both quote styles; a
// backslash escapes the byte after it. Spaces, newlines and tabs separate
// tokens and are discarded.
func Lex(src []byte) ([]Token, error) {
	l := &lexer{src: src}
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isIdentStart(c):
			l.scanWord()
		case c >= '0' && c <= '9':
			if err := l.scanNumber(); err != nil {
				return nil, err
			}
		case c == '\'' || c == '"':
			if err := l.scanQuoted(c); err != nil {
				return nil, err
			}
		case c == ' ' || c == '\n' || c == '\t':
			l.pos++
		default:
			kind, ok := punctKind(c)
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnexpectedChar, c)
			}
			l.tokens = append(l.tokens, Token{Kind: kind})
			l.pos++
		}
	}
	return l.tokens, nil
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func punctKind(c byte) (TokenKind, bool) {
	switch c {
	case '(':
		return TkOpenParen, true
	case ')':
		return TkCloseParen, true
	case '<':
		return TkOpenAngular, true
	case '>':
		return TkCloseAngular, true
	case ',':
		return TkComma, true
	case ':':
		return TkColon, true
	case '.':
		return TkPeriod, true
	default:
		return 0, false
	}
}

// scanWord consumes an identifier and downgrades it to a keyword token if
// the lexeme is reserved.
func (l *lexer) scanWord() {
	start := l.pos
	for l.pos < len(l.src) && isIdentByte(l.src[l.pos]) {
		l.pos++
	}
	lexeme := l.src[start:l.pos]
	if kw, ok := keywordOf(lexeme); ok {
		l.tokens = append(l.tokens, Token{Kind: TkKeyword, Keyword: kw})
		return
	}
	l.tokens = append(l.tokens, Token{Kind: TkIdentifier, Lit: string(lexeme)})
}

// scanNumber consumes a decimal literal. The byte after the digits must be
// a space or the end of the input; anything else (including punctuation)
// makes the literal invalid.
func (l *lexer) scanNumber() error {
	var n uint64
	for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
		d := uint64(l.src[l.pos] - '0')
		if n > (^uint64(0)-d)/10 {
			return ErrInvalidNumericLiteral
		}
		n = n*10 + d
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] != ' ' {
		return ErrInvalidNumericLiteral
	}
	l.tokens = append(l.tokens, Token{Kind: TkNumber, Num: n})
	return nil
}

// scanQuoted consumes a string literal delimited by quote. The payload has
// escapes resolved and must be valid UTF-8.
func (l *lexer) scanQuoted(quote byte) error {
	l.pos++
	var buf []byte
	for {
		if l.pos >= len(l.src) {
			return fmt.Errorf("%w: unterminated", ErrInvalidStringLiteral)
		}
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			break
		}
		if c == '\\' {
			l.pos++
			if l.pos >= len(l.src) {
				return fmt.Errorf("%w: unterminated", ErrInvalidStringLiteral)
			}
			c = l.src[l.pos]
		}
		buf = append(buf, c)
		l.pos++
	}
	if !utf8.Valid(buf) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidStringLiteral)
	}
	l.tokens = append(l.tokens, Token{Kind: TkQuotedString, Lit: string(buf)})
	return nil
}
