package ql

import (
	"errors"
	"testing"
)

func TestLexKeywordsAndIdentifiers(t *testing.T) {
	tokens, err := Lex([]byte("create space apps"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expected := []Token{
		{Kind: TkKeyword, Keyword: KwCreate},
		{Kind: TkKeyword, Keyword: KwSpace},
		{Kind: TkIdentifier, Lit: "apps"},
	}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, tok := range tokens {
		if tok != expected[i] {
			t.Errorf("Expected token %d to be %v, got %v", i, expected[i], tok)
		}
	}
}

func TestLexKeywordsCaseInsensitive(t *testing.T) {
	tokens, err := Lex([]byte("CREATE Space VOLATILE"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := []Keyword{KwCreate, KwSpace, KwVolatile}
	if len(tokens) != len(want) {
		t.Fatalf("Expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, tok := range tokens {
		if tok.Kind != TkKeyword || tok.Keyword != want[i] {
			t.Errorf("Expected keyword %q, got %v", want[i], tok)
		}
	}
}

func TestLexPunctuation(t *testing.T) {
	tokens, err := Lex([]byte("(),:.<>"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := []TokenKind{
		TkOpenParen, TkCloseParen, TkComma, TkColon, TkPeriod,
		TkOpenAngular, TkCloseAngular,
	}
	if len(tokens) != len(want) {
		t.Fatalf("Expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, tok := range tokens {
		if tok.Kind != want[i] {
			t.Errorf("Expected token %d to be %s, got %s", i, want[i], tok.Kind)
		}
	}
}

func TestLexTypeExpression(t *testing.T) {
	tokens, err := Lex([]byte("list<string>"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expected := []Token{
		{Kind: TkKeyword, Keyword: KwList},
		{Kind: TkOpenAngular},
		{Kind: TkKeyword, Keyword: KwString},
		{Kind: TkCloseAngular},
	}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, tok := range tokens {
		if tok != expected[i] {
			t.Errorf("Expected token %d to be %v, got %v", i, expected[i], tok)
		}
	}
}

func TestLexQualifiedEntity(t *testing.T) {
	tokens, err := Lex([]byte("apps.users"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("Expected 3 tokens, got %d", len(tokens))
	}
	if tokens[0].Lit != "apps" || tokens[1].Kind != TkPeriod || tokens[2].Lit != "users" {
		t.Errorf("Expected apps . users, got %v %v %v", tokens[0], tokens[1], tokens[2])
	}
}

func TestLexWhitespace(t *testing.T) {
	tokens, err := Lex([]byte("create\n\tspace   apps\n"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(tokens) != 3 {
		t.Errorf("Expected 3 tokens, got %d", len(tokens))
	}
}

func TestLexNumbers(t *testing.T) {
	tokens, err := Lex([]byte("42 7"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("Expected 2 tokens, got %d", len(tokens))
	}
	if tokens[0].Num != 42 || tokens[1].Num != 7 {
		t.Errorf("Expected 42 and 7, got %d and %d", tokens[0].Num, tokens[1].Num)
	}

	// trailing digits at the end of the input are fine
	if _, err := Lex([]byte("42")); err != nil {
		t.Errorf("Expected no error for number at end of input, got %v", err)
	}
}

func TestLexNumberNeedsSeparator(t *testing.T) {
	if _, err := Lex([]byte("42)")); !errors.Is(err, ErrInvalidNumericLiteral) {
		t.Errorf("Expected ErrInvalidNumericLiteral, got %v", err)
	}
}

func TestLexNumberOverflow(t *testing.T) {
	if _, err := Lex([]byte("99999999999999999999")); !errors.Is(err, ErrInvalidNumericLiteral) {
		t.Errorf("Expected ErrInvalidNumericLiteral, got %v", err)
	}
}

func TestLexQuotedStrings(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{`'hello'`, "hello"},
		{`"hello"`, "hello"},
		{`"he said \"hi\""`, `he said "hi"`},
		{`'a\\b'`, `a\b`},
		{`''`, ""},
	}
	for _, c := range cases {
		tokens, err := Lex([]byte(c.src))
		if err != nil {
			t.Errorf("Expected no error for %s, got %v", c.src, err)
			continue
		}
		if len(tokens) != 1 || tokens[0].Kind != TkQuotedString {
			t.Errorf("Expected one string token for %s, got %v", c.src, tokens)
			continue
		}
		if tokens[0].Lit != c.want {
			t.Errorf("Expected %q for %s, got %q", c.want, c.src, tokens[0].Lit)
		}
	}
}

func TestLexUnterminatedString(t *testing.T) {
	for _, src := range []string{`'abc`, `"abc\"`, `'abc\`} {
		if _, err := Lex([]byte(src)); !errors.Is(err, ErrInvalidStringLiteral) {
			t.Errorf("Expected ErrInvalidStringLiteral for %s, got %v", src, err)
		}
	}
}

func TestLexInvalidUTF8String(t *testing.T) {
	src := []byte{'\'', 0xff, 0xfe, '\''}
	if _, err := Lex(src); !errors.Is(err, ErrInvalidStringLiteral) {
		t.Errorf("Expected ErrInvalidStringLiteral, got %v", err)
	}
}

func TestLexUnexpectedChar(t *testing.T) {
	for _, src := range []string{"create;", "a | b", "x = y"} {
		if _, err := Lex([]byte(src)); !errors.Is(err, ErrUnexpectedChar) {
			t.Errorf("Expected ErrUnexpectedChar for %q, got %v", src, err)
		}
	}
}
