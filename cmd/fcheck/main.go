// A command line tool to check compiler output against annotated sources
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/fractalqb/fcheck"
)

const format = `Directives:
   #CHECK: <body> #END        match body after the previous match
   #CHECK-NOT: <body> #END    body must not occur after the previous match
   #CHECK-LABEL: <body> #END  match body and start a new section

Body:
   {{regex}}        inline regular expression
   [[name:regex]]   capture the text matched by regex as name
   [[name]]         text captured by an earlier directive
   ${name}          value of a constant, see --define
   ...              any text with balanced (), [] and {}
   whitespace       one or more whitespace characters
`

var rootCmd = struct {
	cobra.Command
	color string
}{
	Command: cobra.Command{
		Use:           "fcheck",
		Short:         "Check compiler output against directives in annotated sources",
		Long:          "Check compiler output against directives in annotated sources\n\n" + format,
		SilenceUsage:  true,
		SilenceErrors: true,
	},
	color: "auto",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootCmd.color, "color", rootCmd.color,
		"Colorize diagnostics: auto, always or never")
	rootCmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		return setupColor(rootCmd.color)
	}
}

func setupColor(mode string) error {
	switch mode {
	case "auto":
		fd := os.Stderr.Fd()
		color.NoColor = !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid color mode '%s'", mode)
	}
	return nil
}

// Exit codes
const (
	exitFailed = 1
	exitConfig = 2
)

func main() {
	log.SetFlags(0)
	if err := rootCmd.Execute(); err != nil {
		var derr fcheck.DirectiveError
		if !errors.As(err, &derr) {
			log.Println(err)
		}
		if fcheck.IsConfig(err) {
			os.Exit(exitConfig)
		}
		os.Exit(exitFailed)
	}
}
