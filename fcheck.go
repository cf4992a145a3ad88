package fcheck

import (
	"io"
	"iter"
	"os"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
)

// Match is an accepted occurrence of a directive's pattern in the output.
type Match struct {
	Start, End int
	// Line is the 1-based output line of Start
	Line int
	// Text is the matched output text
	Text string
	// Bound holds the captures declared by the directive
	Bound map[string]string
}

// MatchFunc is called for each accepted CHECK and CHECK-LABEL directive.
type MatchFunc func(d *Directive, p *Pattern, m Match)

// Checker verifies output texts against the directives of an annotation text.
// A zero value is valid for use and can be reused for more than one check. It
// must not be used concurrently.
type Checker struct {
	// Constants are substituted for "${name}" references
	Constants Constants
	// RescanLabels lets CHECK-LABEL directives search the whole output instead
	// of only the text after the forward cursor. Closed label sections are
	// still excluded, so sections may appear in any order.
	RescanLabels bool
	// OnMatch is called on each accepted directive
	OnMatch MatchFunc
}

// run is the state of one check
type run struct {
	chkr   *Checker
	src    string
	subj   *subject
	cursor int
	scopes *scopes
	caps   Captures
	err    error
}

// Check runs all directives from dirs against the output read from out. It
// stops at the first failing directive and returns a DirectiveError. dirs is
// reset before the run.
func (chkr *Checker) Check(dirs *DirectiveReader, out io.Reader) error {
	text, err := io.ReadAll(out)
	if err != nil {
		return err
	}
	return chkr.check(dirs, string(text))
}

func (chkr *Checker) Strings(annotation, output string) error {
	return chkr.check(NewDirectiveString("annotation", annotation), output)
}

// Files checks the output file against the annotation file. If output is
// empty, standard input is checked.
func (chkr *Checker) Files(annotation, output string) error {
	dirs, err := OpenDirectiveFile(annotation)
	if err != nil {
		return err
	}
	if output == "" {
		return chkr.Check(dirs, os.Stdin)
	}
	out, err := os.Open(output)
	if err != nil {
		return err
	}
	defer out.Close()
	return chkr.Check(dirs, out)
}

func (chkr *Checker) check(dirs *DirectiveReader, text string) error {
	dirs.Reset()
	r := run{
		chkr:   chkr,
		src:    dirs.Name(),
		subj:   newSubject(text),
		scopes: newScopes(),
	}
	for {
		d, err := dirs.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}
		if err = r.directive(d); err != nil {
			return err
		}
	}
}

func (r *run) directive(d *Directive) error {
	pat, err := CompileBody(d.Body, r.chkr.Constants, &r.caps)
	if err != nil {
		derr := DirectiveError{Source: r.src, Directive: d, err: err}
		if pat != nil {
			derr.Expr = pat.Expr
		}
		return derr
	}
	from := r.cursor
	if d.Kind == CheckLabel {
		r.scopes.close()
		if r.chkr.RescanLabels {
			from = 0
		}
	}
	m, found := first(r.candidates(pat, from))
	if r.err != nil {
		return DirectiveError{Source: r.src, Directive: d, Expr: pat.Expr, err: r.err}
	}
	switch {
	case d.Kind == CheckNot:
		if found {
			return DirectiveError{Source: r.src, Directive: d, Expr: pat.Expr, err: ErrUnexpectedMatch}
		}
		return nil
	case !found:
		return DirectiveError{Source: r.src, Directive: d, Expr: pat.Expr, err: ErrPatternNotFound}
	case d.Kind == CheckLabel:
		r.scopes.label(m.Start)
	}
	r.accept(d, pat, m)
	return nil
}

func first[T any](seq iter.Seq[T]) (T, bool) {
	for v := range seq {
		return v, true
	}
	var zero T
	return zero, false
}

func (r *run) accept(d *Directive, pat *Pattern, m Match) {
	r.cursor = m.End
	r.scopes.accept(m.End)
	m.Line = LineAt(r.subj.text, m.Start)
	for _, n := range pat.Decls {
		r.caps.bind(n, m.Bound[n])
	}
	if r.chkr.OnMatch != nil {
		r.chkr.OnMatch(d, pat, m)
	}
}

// candidates yields the admissible matches of pat that start at or after
// from, in order of their start offsets. Matches may overlap.
func (r *run) candidates(pat *Pattern, from int) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		for m := range r.occurrences(pat, from) {
			if !r.scopes.admissible(m.Start) || !balanced(pat, m) {
				continue
			}
			if !yield(r.bind(pat, m)) {
				return
			}
		}
	}
}

func (r *run) bind(pat *Pattern, m occurrence) Match {
	res := Match{Start: m.Start, End: m.End, Text: r.subj.text[m.Start:m.End]}
	if len(pat.Decls) > 0 {
		res.Bound = make(map[string]string, len(pat.Decls))
		for _, n := range pat.Decls {
			res.Bound[n] = m.group(n)
		}
	}
	return res
}

// subject is the output text with the byte offset of each rune. The regexp
// engine works on runes while offsets in Match are byte offsets.
type subject struct {
	text  string
	runes []rune
	// offs has one more entry than runes, the length of text
	offs []int
}

func newSubject(text string) *subject {
	s := &subject{
		text:  text,
		runes: make([]rune, 0, len(text)),
		offs:  make([]int, 0, len(text)+1),
	}
	for i, c := range text {
		s.runes = append(s.runes, c)
		s.offs = append(s.offs, i)
	}
	s.offs = append(s.offs, len(text))
	return s
}

func (s *subject) runeIndex(off int) int { return sort.SearchInts(s.offs, off) }

func (s *subject) slice(ri, n int) string { return s.text[s.offs[ri]:s.offs[ri+n]] }

type occurrence struct {
	Start, End int
	m          *regexp2.Match
	subj       *subject
}

func (o occurrence) group(name string) string {
	g := o.m.GroupByName(name)
	if g == nil || len(g.Captures) == 0 {
		return ""
	}
	return o.subj.slice(g.Index, g.Length)
}

func balanced(pat *Pattern, m occurrence) bool {
	for _, s := range pat.Scopes {
		if !Balanced(m.group(s)) {
			return false
		}
	}
	return true
}

// occurrences scans the output from byte offset from. At each candidate start
// the match preferred by the regexp is taken, then scanning resumes one rune
// after that start. This finds overlapping occurrences. The regexp always sees
// the whole output, so anchors and word boundaries respect the text before
// from. A matching error ends the scan and is kept in r.err.
func (r *run) occurrences(pat *Pattern, from int) iter.Seq[occurrence] {
	return func(yield func(occurrence) bool) {
		subj := r.subj
		for ri := subj.runeIndex(from); ri <= len(subj.runes); {
			m, err := pat.rgx.FindRunesMatchStartingAt(subj.runes, ri)
			if err != nil {
				r.err = err
				return
			}
			if m == nil {
				return
			}
			o := occurrence{
				Start: subj.offs[m.Index],
				End:   subj.offs[m.Index+m.Length],
				m:     m,
				subj:  subj,
			}
			if !yield(o) {
				return
			}
			ri = m.Index + 1
		}
	}
}

// LineAt returns the 1-based line of offset off in text.
func LineAt(text string, off int) int {
	if off > len(text) {
		off = len(text)
	}
	return strings.Count(text[:off], "\n") + 1
}
