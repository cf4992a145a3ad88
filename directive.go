package fcheck

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Directive markers
const (
	MarkStart = "#CHECK"
	MarkEnd   = "#END"
)

// StdSuffix is the usual file suffix of annotation files written by Prepare.
const StdSuffix = ".fcheck"

// Kind is the kind of a directive as given by the suffix of its start marker.
type Kind int

const (
	// Check is a plain "#CHECK:" directive.
	Check Kind = iota
	// CheckNot is a "#CHECK-NOT:" directive.
	CheckNot
	// CheckLabel is a "#CHECK-LABEL:" directive.
	CheckLabel
)

func (k Kind) String() string {
	switch k {
	case CheckNot:
		return "CHECK-NOT"
	case CheckLabel:
		return "CHECK-LABEL"
	}
	return "CHECK"
}

func kindOf(suffix string) Kind {
	switch suffix {
	case "NOT":
		return CheckNot
	case "LABEL":
		return CheckLabel
	}
	return Check
}

// Directive is one "#CHECK…#END" unit of an annotation text.
type Directive struct {
	Kind Kind
	// Body is the text between the start marker and "#END", trimmed.
	Body string
	// Ordinal is the 0-based position of the directive in the annotation.
	Ordinal int
	// Line is the 1-based line of the directive's start marker.
	Line int
}

func (d *Directive) String() string {
	return fmt.Sprintf("%s: %s", d.Kind, d.Body)
}

type scanState int

const (
	outside scanState = iota
	inBody
)

// DirectiveReader extracts directives from an annotation text in file order.
// Malformed start markers and unterminated directives are skipped silently.
type DirectiveReader struct {
	src  string
	text string
	pos  int
	lno  int
	lpos int
	ord  int
}

func NewDirectiveReader(name string, r io.Reader) (*DirectiveReader, error) {
	if r == nil {
		return nil, errors.New("nil reader")
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return NewDirectiveString(name, string(text)), nil
}

func NewDirectiveString(name, text string) *DirectiveReader {
	return &DirectiveReader{src: name, text: text, lno: 1}
}

func OpenDirectiveFile(file string) (*DirectiveReader, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return NewDirectiveReader(file, r)
}

func (dr *DirectiveReader) Name() string { return dr.src }

// Reset restarts extraction at the beginning of the annotation text.
func (dr *DirectiveReader) Reset() {
	dr.pos, dr.lno, dr.lpos, dr.ord = 0, 1, 0, 0
}

// Next returns the next directive. It returns io.EOF when there are no more
// directives in the annotation text.
func (dr *DirectiveReader) Next() (*Directive, error) {
	state := outside
	var (
		kind      Kind
		bodyStart int
		line      int
	)
	for {
		switch state {
		case outside:
			i := strings.Index(dr.text[dr.pos:], MarkStart)
			if i < 0 {
				dr.pos = len(dr.text)
				return nil, io.EOF
			}
			at := dr.pos + i
			k, n, ok := startMarker(dr.text[at:])
			if !ok {
				dr.pos = at + 1
				continue
			}
			kind, line = k, dr.lineAt(at)
			bodyStart = at + n
			dr.pos = bodyStart
			state = inBody
		case inBody:
			i := strings.Index(dr.text[dr.pos:], MarkEnd)
			if i < 0 {
				dr.pos = len(dr.text)
				return nil, io.EOF
			}
			end := dr.pos + i
			dr.pos = end + len(MarkEnd)
			d := &Directive{
				Kind:    kind,
				Body:    strings.TrimSpace(dr.text[bodyStart:end]),
				Ordinal: dr.ord,
				Line:    line,
			}
			dr.ord++
			return d, nil
		}
	}
}

// All returns all remaining directives.
func (dr *DirectiveReader) All() (ds []*Directive) {
	for {
		d, err := dr.Next()
		if err != nil {
			return ds
		}
		ds = append(ds, d)
	}
}

// startMarker checks that s starts with a complete start marker and returns the
// directive kind and the length of the marker.
func startMarker(s string) (k Kind, n int, ok bool) {
	n = len(MarkStart)
	if n >= len(s) {
		return Check, 0, false
	}
	var suffix string
	if s[n] == '-' {
		i := n + 1
		for i < len(s) && isKindRune(s[i]) {
			i++
		}
		if i == n+1 {
			return Check, 0, false
		}
		suffix = s[n+1 : i]
		n = i
	}
	if n >= len(s) || s[n] != ':' {
		return Check, 0, false
	}
	return kindOf(suffix), n + 1, true
}

func isKindRune(c byte) bool {
	return c == '_' || c == '-' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z')
}

// lineAt counts lines incrementally; offsets are requested in increasing order.
func (dr *DirectiveReader) lineAt(off int) int {
	if off < dr.lpos {
		dr.lno, dr.lpos = 1, 0
	}
	dr.lno += strings.Count(dr.text[dr.lpos:off], "\n")
	dr.lpos = off
	return dr.lno
}
