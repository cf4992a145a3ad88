// Package fchecking supports the use of fcheck in your Go tests.
//
// Example reads the annotation from testdata/TestDump.fcheck:
//
//	func TestDump(t *testing.T) {
//		var out bytes.Buffer
//		prog.Dump(&out)
//		Error(t, "", &out)
//	}
//
// Annotation:
//
//	#CHECK-LABEL: funclet [[f:%[0-9]+]] #END
//	#CHECK: local_do_builtin ... #END
//	#CHECK-NOT: drop [[f]] #END
//	#CHECK: return #END
package fchecking

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/fractalqb/fcheck"
)

// When this environment variable is set to a regexp and the name of the current
// test matches, calls to Error or Fatal will record a prepared annotation from
// the output instead of checking it. E.g.
//
//	FCHECKING_RECORD=TestRecording go test .
const RecordEnv = "FCHECKING_RECORD"

// GoTestdataDir is the name of Go's default directory for testdata (see go help
// test).
const GoTestdataDir = "testdata"

func Error(t testing.TB, hint string, output io.Reader) error {
	return defaultConfig.Error(t, hint, output)
}

func Fatal(t testing.TB, hint string, output io.Reader) {
	defaultConfig.Fatal(t, hint, output)
}

func Record(t testing.TB, hint string, output io.Reader) {
	defaultConfig.Record(t, hint, output)
}

type AnnotationRepo struct {
	Dir    string
	Suffix string
}

const (
	StdSuffix = fcheck.StdSuffix
	NoSuffix  = "\x00"
)

func (ar AnnotationRepo) Filename(t testing.TB, hint string) string {
	suffix := ar.Suffix
	switch suffix {
	case "":
		suffix = StdSuffix
	case NoSuffix:
		suffix = ""
	}
	if hint == "" {
		return filepath.Join(ar.Dir, t.Name()+suffix)
	}
	if suffix == "" || strings.HasSuffix(hint, suffix) {
		return filepath.Join(ar.Dir, t.Name(), hint)
	}
	return filepath.Join(ar.Dir, t.Name(), hint+suffix)
}

type Config struct {
	AnnotationFile  func(t testing.TB, hint string) string
	Constants       fcheck.Constants
	RescanLabels    bool
	RecordOverwrite bool
	// KeepOutput keeps a copy of the checked output next to the annotation
	// file when the check fails.
	KeepOutput bool
	// Label is passed to fcheck.Prepare when recording
	Label *regexp.Regexp
}

var defaultConfig = Config{
	AnnotationFile:  AnnotationRepo{Dir: GoTestdataDir}.Filename,
	RecordOverwrite: false,
	KeepOutput:      true,
}

func (cfg Config) Error(t testing.TB, hint string, output io.Reader) error {
	t.Helper()
	if recordTest(t) {
		cfg.Record(t, hint, output)
		return nil
	}
	err := cfg.check(t, hint, output)
	if err != nil {
		ReportError(t, hint, err)
	}
	return err
}

func (cfg Config) Fatal(t testing.TB, hint string, output io.Reader) {
	t.Helper()
	if recordTest(t) {
		cfg.Record(t, hint, output)
		return
	}
	if err := cfg.check(t, hint, output); err != nil {
		ReportError(t, hint, err)
		t.FailNow()
	}
}

func recordTest(t testing.TB) bool {
	rec := os.Getenv(RecordEnv)
	if rec == "" {
		return false
	}
	r, err := regexp.Compile(rec)
	if err != nil {
		t.Logf("fchecking: invalid regexp '%s' in %s, not recording: %s", rec, RecordEnv, err)
		return false
	}
	return r.MatchString(t.Name())
}

func (cfg *Config) check(t testing.TB, hint string, output io.Reader) (err error) {
	chkr := &fcheck.Checker{
		Constants:    cfg.Constants,
		RescanLabels: cfg.RescanLabels,
	}
	annfile := cfg.annotationFile(t, hint)
	if _, err := os.Stat(annfile); os.IsNotExist(err) {
		t.Logf("to record an annotation file run '%[1]s=%[2]s go test -run %[2]s'",
			RecordEnv,
			t.Name(),
		)
		return fmt.Errorf("annotation file %s does not exist", annfile)
	}
	dirs, err := fcheck.OpenDirectiveFile(annfile)
	if err != nil {
		return err
	}
	if !cfg.KeepOutput {
		return chkr.Check(dirs, output)
	}
	keepfile := strings.TrimSuffix(annfile, StdSuffix)
	k, err := os.CreateTemp(filepath.Dir(keepfile), filepath.Base(keepfile)+".")
	if err != nil {
		return err
	}
	defer func() {
		k.Close()
		if err == nil {
			os.Remove(k.Name())
		} else {
			t.Logf("checked output kept in %s", k.Name())
		}
	}()
	return chkr.Check(dirs, io.TeeReader(output, k))
}

func (cfg *Config) annotationFile(t testing.TB, hint string) string {
	if cfg.AnnotationFile == nil {
		return defaultConfig.AnnotationFile(t, hint)
	}
	return cfg.AnnotationFile(t, hint)
}

func (cfg Config) Record(t testing.TB, hint string, output io.Reader) {
	t.Helper()
	annfile := cfg.annotationFile(t, hint)
	if _, err := os.Stat(annfile); !os.IsNotExist(err) && !cfg.RecordOverwrite {
		t.Fatalf("fchecking: annotation file '%s' already exists", annfile)
	}
	dir := filepath.Dir(annfile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err = os.MkdirAll(dir, 0777); err != nil {
			t.Fatal(err)
		}
	}
	wr, err := os.Create(annfile)
	if err != nil {
		t.Fatal(err)
	}
	defer wr.Close()
	if err = (fcheck.Prepare{Label: cfg.Label}).Text(wr, output); err != nil {
		t.Error(err)
	}
	t.Errorf("fchecking recorder wrote: %s", annfile)
}

// ReportError reports err on t. For a failing directive the directive body
// and the compiled regular expression are logged.
func ReportError(t testing.TB, hint string, err error) {
	t.Helper()
	if hint == "" {
		hint = "output"
	}
	t.Errorf("%s: %s", hint, err)
	var derr fcheck.DirectiveError
	if !errors.As(err, &derr) {
		return
	}
	t.Logf("%s:\n %s", derr.Verb(), derr.Directive.Body)
	if derr.Expr != "" {
		t.Logf("With regex:\n%s", derr.Expr)
	}
	var cerr fcheck.ConfigError
	if errors.Is(err, fcheck.ErrUndefinedCapture) || errors.Is(err, fcheck.ErrUndefinedConstant) {
		errors.As(err, &cerr)
		t.Logf("Defined names: %s", strings.Join(cerr.Defined, ", "))
	}
}
