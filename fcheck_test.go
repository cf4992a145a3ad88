package fcheck

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleChecker() {
	chkr := Checker{
		Constants: Constants{"ver": "1.2"},
		OnMatch: func(d *Directive, _ *Pattern, m Match) {
			fmt.Printf("%d [%s]", d.Line, m.Text)
			if n, ok := m.Bound["n"]; ok {
				fmt.Printf(" n=[%s]", n)
			}
			fmt.Println()
		},
	}
	err := chkr.Strings(`
// #CHECK: version ${ver} #END
// #CHECK: count [[n:[0-9]+]] #END
// #CHECK: [[n]] items #END`,
		"version 1.2\ncount 42\nthere are 42 items\n",
	)
	fmt.Println(err)
	// Output:
	// 2 [version 1.2]
	// 3 [count 42] n=[42]
	// 4 [42 items]
	// <nil>
}

func ExampleDirectiveError() {
	err := (&Checker{}).Strings("#CHECK: foo #END\n#CHECK: bar #END", "bar foo")
	var derr DirectiveError
	if errors.As(err, &derr) {
		fmt.Println(derr)
		fmt.Println(derr.Verb())
		fmt.Println(derr.Expr)
	}
	// Output:
	// annotation:2:CHECK: pattern not found
	// Failed to find
	// bar
}

func TestChecker_ordering(t *testing.T) {
	const ann = `#CHECK: a1 #END
#CHECK: b2 #END
#CHECK: c3 #END`
	var starts []int
	chkr := Checker{OnMatch: func(_ *Directive, _ *Pattern, m Match) {
		starts = append(starts, m.Start)
	}}
	require.NoError(t, chkr.Strings(ann, "a1 b2 c3"))
	assert.Equal(t, []int{0, 3, 6}, starts)

	err := chkr.Strings(ann, "b2 a1 c3")
	assert.ErrorIs(t, err, ErrPatternNotFound)
	var derr DirectiveError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 1, derr.Directive.Ordinal)
}

func TestChecker_balance(t *testing.T) {
	const ann = `#CHECK: a ... b #END`
	t.Run("unbalanced only", func(t *testing.T) {
		err := (&Checker{}).Strings(ann, "a { b")
		assert.ErrorIs(t, err, ErrPatternNotFound)
	})
	t.Run("balanced", func(t *testing.T) {
		assert.NoError(t, (&Checker{}).Strings(ann, "a { c } b"))
	})
	t.Run("skip to next start", func(t *testing.T) {
		var start int
		chkr := Checker{OnMatch: func(_ *Directive, _ *Pattern, m Match) {
			start = m.Start
		}}
		require.NoError(t, chkr.Strings(ann, "a ( b a () b"))
		assert.Equal(t, 6, start)
	})
	t.Run("multiline", func(t *testing.T) {
		err := (&Checker{}).Strings(`#CHECK: fn (...) {...} #END`,
			"fn (x,\n  y) {\n  ret [x, y]\n}")
		assert.NoError(t, err)
	})
}

func TestChecker_captures(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		var bound []string
		chkr := Checker{OnMatch: func(_ *Directive, _ *Pattern, m Match) {
			bound = append(bound, m.Text)
		}}
		err := chkr.Strings(`#CHECK: count [[n:[0-9]+]] #END
#CHECK: [[n]] items #END`,
			"count 42\n...42 items")
		require.NoError(t, err)
		assert.Equal(t, []string{"count 42", "42 items"}, bound)
	})
	t.Run("bound value is literal", func(t *testing.T) {
		err := (&Checker{}).Strings(`#CHECK: x=[[v:[^ ]+]] #END
#CHECK: y=[[v]] #END`,
			"x=a.b y=axb y=a.b")
		assert.NoError(t, err)
		err = (&Checker{}).Strings(`#CHECK: x=[[v:[^ ]+]] #END
#CHECK: y=[[v]] #END`,
			"x=a.b y=axb")
		assert.ErrorIs(t, err, ErrPatternNotFound)
	})
	t.Run("use before declaration", func(t *testing.T) {
		err := (&Checker{}).Strings(`#CHECK: [[n]] items #END
#CHECK: count [[n:[0-9]+]] #END`,
			"count 42\n42 items")
		assert.ErrorIs(t, err, ErrUndefinedCapture)
		assert.True(t, IsConfig(err))
	})
	t.Run("defined names", func(t *testing.T) {
		err := (&Checker{}).Strings(`#CHECK: [[a:x]] [[b:y]] #END
#CHECK: [[c]] #END`,
			"x y")
		var cerr ConfigError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "c", cerr.Name)
		assert.Equal(t, []string{"a", "b"}, cerr.Defined)
	})
	t.Run("declared and used together", func(t *testing.T) {
		err := (&Checker{}).Strings(`#CHECK: [[n:[0-9]+]] [[n]] #END`, "4 4")
		assert.ErrorIs(t, err, ErrCaptureReuse)
		assert.True(t, IsConfig(err))
	})
	t.Run("rebinding", func(t *testing.T) {
		err := (&Checker{}).Strings(`#CHECK: a=[[v:[0-9]]] #END
#CHECK: b=[[v:[0-9]]] #END
#CHECK: c=[[v]] #END`,
			"a=1 b=2 c=2")
		assert.NoError(t, err)
	})
}

func TestChecker_constants(t *testing.T) {
	chkr := Checker{Constants: Constants{"ver": "1.2"}}
	const ann = `#CHECK: version ${ver} #END`
	assert.NoError(t, chkr.Strings(ann, "version 1.2"))
	assert.ErrorIs(t, chkr.Strings(ann, "version 1.3"), ErrPatternNotFound)
	assert.ErrorIs(t, chkr.Strings(ann, "version 1x2"), ErrPatternNotFound)

	err := chkr.Strings(`#CHECK: ${undefined} #END`, "version 1.2")
	assert.ErrorIs(t, err, ErrUndefinedConstant)
	var cerr ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "undefined", cerr.Name)
	assert.Equal(t, []string{"ver"}, cerr.Defined)
}

func TestChecker_labels(t *testing.T) {
	const ann = `#CHECK-LABEL: func1 #END
#CHECK: ret #END`
	t.Run("before label", func(t *testing.T) {
		err := (&Checker{}).Strings(ann, "ret\nfunc1\nbody\n")
		assert.ErrorIs(t, err, ErrPatternNotFound)
	})
	t.Run("after label", func(t *testing.T) {
		var last Match
		chkr := Checker{OnMatch: func(_ *Directive, _ *Pattern, m Match) { last = m }}
		require.NoError(t, chkr.Strings(ann, "ret\nfunc1\nret\n"))
		assert.Equal(t, 10, last.Start)
	})
}

func TestChecker_rescanLabels(t *testing.T) {
	const output = `funclet f2 {
  ret 2
}
funclet f1 {
  ret 1
}
`
	const ann = `#CHECK-LABEL: funclet f1 #END
#CHECK: ret 1 #END
#CHECK-LABEL: funclet f2 #END
#CHECK: ret 2 #END`
	t.Run("ordered", func(t *testing.T) {
		err := (&Checker{}).Strings(ann, output)
		assert.ErrorIs(t, err, ErrPatternNotFound)
	})
	t.Run("rescan", func(t *testing.T) {
		assert.NoError(t, (&Checker{RescanLabels: true}).Strings(ann, output))
	})
	t.Run("not in closed section", func(t *testing.T) {
		const ann = `#CHECK-LABEL: funclet f1 #END
#CHECK: ret 1 #END
#CHECK-LABEL: funclet f2 #END
#CHECK-NOT: ret 1 #END`
		assert.NoError(t, (&Checker{RescanLabels: true}).Strings(ann, output))
		err := (&Checker{RescanLabels: true}).Strings(`#CHECK-LABEL: funclet f1 #END
#CHECK: ret 1 #END
#CHECK-LABEL: funclet f2 #END
#CHECK-NOT: ret 2 #END`,
			output)
		assert.ErrorIs(t, err, ErrUnexpectedMatch)
	})
	t.Run("closed section", func(t *testing.T) {
		err := (&Checker{RescanLabels: true}).Strings(`#CHECK-LABEL: funclet f1 #END
#CHECK: ret 1 #END
#CHECK-LABEL: funclet f2 #END
#CHECK: ret 1 #END`,
			output)
		assert.ErrorIs(t, err, ErrPatternNotFound)
	})
}

func TestChecker_not(t *testing.T) {
	const ann = `#CHECK: x #END
#CHECK-NOT: deprecated #END`
	assert.NoError(t, (&Checker{}).Strings(ann, "deprecated x"))
	err := (&Checker{}).Strings(ann, "x deprecated")
	assert.ErrorIs(t, err, ErrUnexpectedMatch)
	var derr DirectiveError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "Found", derr.Verb())

	t.Run("keeps cursor", func(t *testing.T) {
		err := (&Checker{}).Strings(`#CHECK: x #END
#CHECK-NOT: y #END
#CHECK: z #END`,
			"x z")
		assert.NoError(t, err)
	})
	t.Run("unbalanced is no match", func(t *testing.T) {
		err := (&Checker{}).Strings(`#CHECK-NOT: a ... b #END`, "a ( b")
		assert.NoError(t, err)
	})
}

func TestChecker_stopsAtFirstFailure(t *testing.T) {
	var lines []int
	chkr := Checker{OnMatch: func(d *Directive, _ *Pattern, _ Match) {
		lines = append(lines, d.Line)
	}}
	err := chkr.Strings(`#CHECK: a #END
#CHECK: missing #END
#CHECK: b #END`,
		"a b")
	assert.ErrorIs(t, err, ErrPatternNotFound)
	assert.Equal(t, []int{1}, lines)
}

func TestChecker_Check(t *testing.T) {
	dirs := NewDirectiveString(t.Name(), "#CHECK: b #END")
	err := (&Checker{}).Check(dirs, strings.NewReader("a\nb\n"))
	assert.NoError(t, err)

	t.Run("reused reader", func(t *testing.T) {
		var chkr Checker
		dirs := NewDirectiveString(t.Name(), "#CHECK: must-be-there #END")
		require.NoError(t, chkr.Check(dirs, strings.NewReader("must-be-there")))
		err := chkr.Check(dirs, strings.NewReader("nothing"))
		assert.ErrorIs(t, err, ErrPatternNotFound)
	})
}

func TestChecker_leftContext(t *testing.T) {
	for _, c := range []struct {
		ann, output string
	}{
		{"#CHECK: foo #END\n#CHECK: {{\\bbar}} #END", "foobar"},
		{"#CHECK: x #END\n#CHECK: {{^y}} #END", "xy"},
		{"#CHECK: x #END\n#CHECK: {{\\Ay}} #END", "xy"},
	} {
		err := (&Checker{}).Strings(c.ann, c.output)
		assert.ErrorIs(t, err, ErrPatternNotFound, c.ann)
	}
	t.Run("boundary after cursor", func(t *testing.T) {
		err := (&Checker{}).Strings("#CHECK: foo #END\n#CHECK: {{\\bbar}} #END", "foobar bar")
		assert.NoError(t, err)
	})
	t.Run("not", func(t *testing.T) {
		err := (&Checker{}).Strings("#CHECK: foo #END\n#CHECK-NOT: {{\\bbar}} #END", "foobar")
		assert.NoError(t, err)
	})
}

func TestChecker_matchLine(t *testing.T) {
	var lines []int
	chkr := Checker{OnMatch: func(_ *Directive, _ *Pattern, m Match) {
		lines = append(lines, m.Line)
	}}
	require.NoError(t, chkr.Strings("#CHECK: a #END #CHECK: ä b #END", "a\nx\nä b\n"))
	assert.Equal(t, []int{1, 3}, lines)
}

func TestLineAt(t *testing.T) {
	assert.Equal(t, 1, LineAt("a\nb", 0))
	assert.Equal(t, 2, LineAt("a\nb", 2))
	assert.Equal(t, 2, LineAt("a\nb", 10))
}
