package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fractalqb/fcheck"
)

func init() {
	checkCmd.RunE = checkFiles
	checkCmd.Args = cobra.RangeArgs(1, 2)
	flags := checkCmd.Flags()
	flags.StringArrayVarP(&checkCmd.defines, "define", "d", nil,
		"Define constant as name=value")
	flags.StringArrayVarP(&checkCmd.defFiles, "defines", "D", nil,
		"Read constants from YAML file")
	flags.BoolVar(&checkCmd.rescan, "rescan-labels", false,
		"Search labels in the whole output, allowing sections in any order")
	flags.BoolVarP(&checkCmd.verbose, "verbose", "v", false,
		"Log each matched directive")
	rootCmd.AddCommand(&checkCmd.Command)
}

var checkCmd = struct {
	cobra.Command
	defines  []string
	defFiles []string
	rescan   bool
	verbose  bool
}{
	Command: cobra.Command{
		Use:   "check <annotated file> [<output file>]",
		Short: "Check output against the directives of an annotated file",
		Long: `Check output against the directives of an annotated file. Output is read
from standard input if no output file is given.`,
	},
}

func checkFiles(cmd *cobra.Command, args []string) error {
	consts, err := constants()
	if err != nil {
		return err
	}
	dirs, err := fcheck.OpenDirectiveFile(args[0])
	if err != nil {
		return err
	}
	outName, out := "stdin", io.Reader(os.Stdin)
	if len(args) > 1 {
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		outName, out = args[1], f
	}
	chkr := fcheck.Checker{
		Constants:    consts,
		RescanLabels: checkCmd.rescan,
	}
	if checkCmd.verbose {
		chkr.OnMatch = logMatch(outName)
	}
	err = chkr.Check(dirs, out)
	var derr fcheck.DirectiveError
	if errors.As(err, &derr) {
		diagnose(cmd.ErrOrStderr(), derr)
	}
	return err
}

func constants() (fcheck.Constants, error) {
	consts := make(fcheck.Constants)
	for _, f := range checkCmd.defFiles {
		if err := fcheck.LoadConstants(consts, f); err != nil {
			return nil, err
		}
	}
	for _, def := range checkCmd.defines {
		if err := consts.Set(def); err != nil {
			return nil, err
		}
	}
	return consts, nil
}

func logMatch(outName string) fcheck.MatchFunc {
	return func(d *fcheck.Directive, _ *fcheck.Pattern, m fcheck.Match) {
		log.Printf("%d:%s matched %s:%d", d.Line, d.Kind, outName, m.Line)
		for n, t := range m.Bound {
			log.Printf("  [[%s]] = '%s'", n, t)
		}
	}
}

func diagnose(w io.Writer, derr fcheck.DirectiveError) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed, color.Bold)
	bold.Fprintf(w, "%s:%d: ", derr.Source, derr.Directive.Line)
	red.Fprintf(w, "%s:\n", derr.Verb())
	color.New(color.FgCyan).Fprintf(w, " %s\n", derr.Directive.Body)
	var cerr fcheck.ConfigError
	if errors.As(derr, &cerr) {
		red.Fprintf(w, "%s\n", cerr)
		if errors.Is(cerr, fcheck.ErrUndefinedCapture) || errors.Is(cerr, fcheck.ErrUndefinedConstant) {
			fmt.Fprintf(w, "Defined names: %s\n", definedNames(cerr.Defined))
		}
	}
	if derr.Expr != "" {
		bold.Fprintln(w, "\n\nWith regex:")
		color.New(color.FgYellow).Fprintln(w, derr.Expr)
	}
}

func definedNames(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
