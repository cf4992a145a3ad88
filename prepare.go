package fcheck

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Prepare writes a starter annotation for an output text with one directive
// per non-blank output line.
type Prepare struct {
	// Lines matching Label become CHECK-LABEL directives
	Label *regexp.Regexp
}

func (p Prepare) Text(annotation io.Writer, output io.Reader) (err error) {
	scn := bufio.NewScanner(output)
	scn.Buffer(nil, 1<<20)
	for scn.Scan() {
		line := strings.TrimSpace(scn.Text())
		if line == "" {
			continue
		}
		kind := Check
		if p.Label != nil && p.Label.MatchString(line) {
			kind = CheckLabel
		}
		if _, err = fmt.Fprintf(annotation, "%s%s %s %s\n",
			MarkStart, marker(kind), Quote(line), MarkEnd,
		); err != nil {
			return err
		}
	}
	return scn.Err()
}

func marker(k Kind) string {
	switch k {
	case CheckNot:
		return "-NOT:"
	case CheckLabel:
		return "-LABEL:"
	}
	return ":"
}

// Quote returns a directive body that matches text literally, up to the
// width of whitespace.
func Quote(text string) string {
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case strings.HasPrefix(text[i:], Wildcard):
			sb.WriteString(`{{\.\.\.}}`)
			i += len(Wildcard) - 1
		case strings.HasPrefix(text[i:], MarkEnd):
			sb.WriteString(`{{#}}`)
		case strings.HasPrefix(text[i:], "[["):
			sb.WriteString(`{{\[}}`)
		case c == '{' && i+1 < len(text) && (text[i+1] == '{' || isDigit(text[i+1])):
			sb.WriteString(`{{\{}}`)
		case strings.IndexByte(`\?|^$`, c) >= 0:
			fmt.Fprintf(&sb, `{{\%c}}`, c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
