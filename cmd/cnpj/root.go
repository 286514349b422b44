package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cnpjd/internal/validation"
	platformstrings "cnpjd/pkg/platform/strings"
)

// errSomeInvalid is reported when validate finds at least one invalid input.
var errSomeInvalid = errors.New("one or more values are not valid CNPJs")

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "cnpj",
		Short: "Validate, format and derive Brazilian CNPJ numbers",
		Long: `cnpj checks 14-digit CNPJ numbers against their two check digits.

Values may be written with or without the usual punctuation
(00.444.777/0001-45, 00444777000145 or 444777000145). When no
values are given on the command line they are read from stdin,
one per line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newValidateCommand(), newFormatCommand(), newDeriveCommand())
	return root
}

func newValidateCommand() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "validate [value...]",
		Short: "Report whether each value is a valid CNPJ",
		Example: `  cnpj validate 00.444.777/0001-45
  cat list.txt | cnpj validate --quiet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := inputsFrom(cmd, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			invalid := 0
			for _, res := range validation.CheckAll(inputs) {
				if !res.Valid {
					invalid++
				}
				if quiet {
					continue
				}
				if res.Valid {
					fmt.Fprintf(out, "%s\tvalid\t%s\n", res.Input, res.CNPJ.General())
				} else {
					fmt.Fprintf(out, "%s\tinvalid\t%s\n", res.Input, res.Reason)
				}
			}
			if invalid > 0 {
				return &ExitError{Code: 1, Err: errSomeInvalid}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print nothing; only set the exit status")
	return cmd
}

func newFormatCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "format [value...]",
		Short: "Print each value in the requested format",
		Long: `Print each value in the requested format:

  S  short, no leading zeros   444777000145
  B  bare, 14 digits           00444777000145
  G  general, punctuated       00.444.777/0001-45`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := inputsFrom(cmd, args)
			if err != nil {
				return err
			}
			for _, in := range inputs {
				s, err := validation.Format(in, format)
				if err != nil {
					return fail(cmd, in, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "G", "output format: S, B or G")
	return cmd
}

func newDeriveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "derive [base...]",
		Short: "Complete 12-digit bases with their check digits",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := inputsFrom(cmd, args)
			if err != nil {
				return err
			}
			for _, in := range inputs {
				c, err := validation.Derive(in)
				if err != nil {
					return fail(cmd, in, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.General())
			}
			return nil
		},
	}
}

// fail reports the rejected input on stderr and exits 1.
func fail(cmd *cobra.Command, input string, err error) error {
	err = fmt.Errorf("%s: %w", input, err)
	fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	return &ExitError{Code: 1, Err: err}
}

// inputsFrom returns args, or the lines of stdin when args is empty.
func inputsFrom(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	inputs, err := readLines(cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, errors.New("no values given")
	}
	return inputs, nil
}

// readLines returns the distinct non-blank lines of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return platformstrings.DedupeAndTrim(lines), nil
}
