package fcheck

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Wildcard is the token that matches any balanced text, even across lines.
const Wildcard = "..."

// scopePrefix names the regexp groups of wildcards. Capture names must start
// with a letter, so they cannot collide.
const scopePrefix = "_scope"

// TokenType tells how the text of a Token is turned into a regular expression.
type TokenType int

const (
	// Literal text, partly escaped, whitespace relaxed, wildcards expanded
	Literal TokenType = iota
	// InlineRegex "{{regex}}" is inserted verbatim
	InlineRegex
	// CaptureDecl "[[name:regex]]" binds name to the text matched by regex
	CaptureDecl
	// CaptureUse "[[name]]" matches the text bound to name by an earlier directive
	CaptureUse
	// ConstantRef "${name}" matches the value of a constant
	ConstantRef
)

type Token struct {
	Type TokenType
	// Name of a capture or constant
	Name string
	// Text is the literal text or the regexp
	Text string
}

// ParseBody splits a directive body into tokens. Special forms are recognized
// left to right and do not overlap. An unterminated special form is literal
// text.
func ParseBody(body string) (toks []Token) {
	lit := 0
	flush := func(end int) {
		if end > lit {
			toks = append(toks, Token{Type: Literal, Text: body[lit:end]})
		}
	}
	for i := 0; i < len(body); {
		var (
			tok Token
			n   int
		)
		switch {
		case strings.HasPrefix(body[i:], "{{"):
			tok, n = parseInline(body[i:])
		case strings.HasPrefix(body[i:], "[["):
			tok, n = parseCapture(body[i:])
		case strings.HasPrefix(body[i:], "${"):
			tok, n = parseConstant(body[i:])
		}
		if n == 0 {
			i++
			continue
		}
		flush(i)
		toks = append(toks, tok)
		i += n
		lit = i
	}
	flush(len(body))
	return toks
}

func parseInline(s string) (Token, int) {
	end := closeAt(s[2:], '{', '}')
	if end < 0 {
		return Token{}, 0
	}
	return Token{Type: InlineRegex, Text: s[2 : 2+end]}, 2 + end + 2
}

func parseCapture(s string) (Token, int) {
	name := captureName(s[2:])
	if name == "" {
		return Token{}, 0
	}
	rest := s[2+len(name):]
	switch {
	case strings.HasPrefix(rest, "]]"):
		return Token{Type: CaptureUse, Name: name}, 2 + len(name) + 2
	case strings.HasPrefix(rest, ":"):
		end := closeAt(rest[1:], '[', ']')
		if end < 0 {
			return Token{}, 0
		}
		return Token{Type: CaptureDecl, Name: name, Text: rest[1 : 1+end]},
			2 + len(name) + 1 + end + 2
	}
	return Token{}, 0
}

func parseConstant(s string) (Token, int) {
	end := strings.IndexByte(s[2:], '}')
	if end <= 0 {
		return Token{}, 0
	}
	name := s[2 : 2+end]
	if strings.ContainsFunc(name, unicode.IsSpace) {
		return Token{}, 0
	}
	return Token{Type: ConstantRef, Name: name}, 2 + end + 1
}

func captureName(s string) string {
	if s == "" || !isLetter(s[0]) {
		return ""
	}
	i := 1
	for i < len(s) && (isLetter(s[i]) || s[i] == '_' || ('0' <= s[i] && s[i] <= '9')) {
		i++
	}
	return s[:i]
}

func isLetter(c byte) bool { return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') }

// closeAt returns the index of the first doubled closing delimiter cl in s
// that is not nested in op…cl and not escaped. It returns -1 if there is none.
func closeAt(s string, op, cl byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case op:
			depth++
		case cl:
			if depth > 0 {
				depth--
			} else if i+1 < len(s) && s[i+1] == cl {
				return i
			}
		}
	}
	return -1
}

// Pattern is the compiled form of a directive body.
type Pattern struct {
	// Expr is the assembled regular expression
	Expr string
	// Scopes are the group names of the wildcards in declaration order
	Scopes []string
	// Decls are the capture names declared by the directive
	Decls []string

	rgx *regexp2.Regexp
}

// Compile assembles the regular expression for toks. Constants and captures
// are only read, so compiling the same tokens against the same environment
// always yields the same pattern.
func Compile(toks []Token, consts Constants, caps *Captures) (*Pattern, error) {
	var (
		sb  strings.Builder
		pat Pattern
	)
	declared := make(map[string]bool)
	for _, tok := range toks {
		if tok.Type == CaptureDecl {
			if declared[tok.Name] {
				return nil, ConfigError{Name: tok.Name, err: ErrDuplicateCapture}
			}
			declared[tok.Name] = true
		}
	}
	for _, tok := range toks {
		switch tok.Type {
		case Literal:
			pat.Scopes = escapeLiteral(&sb, tok.Text, pat.Scopes)
		case InlineRegex:
			sb.WriteString(tok.Text)
		case CaptureDecl:
			fmt.Fprintf(&sb, "(?<%s>(%s))", tok.Name, tok.Text)
			pat.Decls = append(pat.Decls, tok.Name)
		case CaptureUse:
			if declared[tok.Name] {
				return nil, ConfigError{Name: tok.Name, err: ErrCaptureReuse}
			}
			val, ok := caps.Lookup(tok.Name)
			if !ok {
				return nil, ConfigError{Name: tok.Name, Defined: caps.Names(), err: ErrUndefinedCapture}
			}
			sb.WriteString(regexp2.Escape(val))
		case ConstantRef:
			val, ok := consts[tok.Name]
			if !ok {
				return nil, ConfigError{Name: tok.Name, Defined: consts.Names(), err: ErrUndefinedConstant}
			}
			sb.WriteString(regexp2.Escape(val))
		}
	}
	pat.Expr = sb.String()
	rgx, err := regexp2.Compile(pat.Expr, regexp2.None)
	if err != nil {
		return &pat, ConfigError{err: fmt.Errorf("%w: %w", ErrBadRegexp, err)}
	}
	pat.rgx = rgx
	return &pat, nil
}

// CompileBody parses and compiles a directive body.
func CompileBody(body string, consts Constants, caps *Captures) (*Pattern, error) {
	return Compile(ParseBody(body), consts, caps)
}

const literalEscapes = `+()*[]"`

func escapeLiteral(sb *strings.Builder, lit string, scopes []string) []string {
	for i := 0; i < len(lit); {
		if strings.HasPrefix(lit[i:], Wildcard) {
			name := fmt.Sprintf("%s%d", scopePrefix, len(scopes))
			fmt.Fprintf(sb, `(?<%s>(?s:.)*?)`, name)
			scopes = append(scopes, name)
			i += len(Wildcard)
			continue
		}
		r, rsz := utf8.DecodeRuneInString(lit[i:])
		switch {
		case unicode.IsSpace(r):
			for i < len(lit) {
				r, rsz = utf8.DecodeRuneInString(lit[i:])
				if !unicode.IsSpace(r) {
					break
				}
				i += rsz
			}
			sb.WriteString(`\s+`)
			continue
		case r < utf8.RuneSelf && strings.IndexByte(literalEscapes, byte(r)) >= 0:
			sb.WriteByte('\\')
		}
		sb.WriteString(lit[i : i+rsz])
		i += rsz
	}
	return scopes
}

// Balanced reports whether the brackets, braces and parentheses in s nest
// correctly.
func Balanced(s string) bool {
	var stack []byte
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(', '[', '{':
			stack = append(stack, c)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != opener(c) {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0
}

func opener(c byte) byte {
	switch c {
	case ')':
		return '('
	case ']':
		return '['
	}
	return '{'
}
