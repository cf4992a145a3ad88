package main

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/fractalqb/fcheck"
)

func init() {
	prepareCmd.RunE = prepareFiles
	prepareCmd.Flags().StringVarP(
		&prepareCmd.suffix,
		"suffix", "s",
		prepareCmd.suffix,
		"Set file suffix for created annotation files")
	prepareCmd.Flags().BoolVarP(
		&prepareCmd.force,
		"force", "f",
		prepareCmd.force,
		"Force to overwrite existing annotation files")
	prepareCmd.Flags().StringVarP(
		&prepareCmd.label,
		"label", "l",
		"",
		"Make lines matching this regexp CHECK-LABEL directives")
	rootCmd.AddCommand(&prepareCmd.Command)
}

var prepareCmd = struct {
	cobra.Command
	suffix string
	force  bool
	label  string
}{
	Command: cobra.Command{
		Use:   "prepare [<output file>...]",
		Short: "Prepare a basic annotation file from output",
	},
	suffix: fcheck.StdSuffix,
	force:  false,
}

func prepareFiles(cmd *cobra.Command, files []string) error {
	var prep fcheck.Prepare
	if prepareCmd.label != "" {
		rgx, err := regexp.Compile(prepareCmd.label)
		if err != nil {
			return fmt.Errorf("label: %w", err)
		}
		prep.Label = rgx
	}
	if len(files) == 0 {
		return prep.Text(cmd.OutOrStdout(), os.Stdin)
	}
	for _, f := range files {
		if err := prepareFile(prep, f); err != nil {
			return err
		}
	}
	return nil
}

func prepareFile(prep fcheck.Prepare, name string) error {
	annfile := name + prepareCmd.suffix
	if _, err := os.Stat(annfile); !os.IsNotExist(err) {
		if !prepareCmd.force {
			return fmt.Errorf("%s already exists", annfile)
		}
	}
	rd, err := os.Open(name)
	if err != nil {
		return err
	}
	defer rd.Close()
	wr, err := os.Create(annfile)
	if err != nil {
		return err
	}
	if err = prep.Text(wr, rd); err != nil {
		wr.Close()
		return err
	}
	return wr.Close()
}
