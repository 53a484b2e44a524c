package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"ucextract/internal/taxid"
)

func newTaxIDCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "taxid",
		Short:       "Validate and mask CPF/CNPJ numbers",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	cmd.AddCommand(newTaxIDCheckCommand(ctx))
	cmd.AddCommand(newTaxIDMaskCommand())
	return cmd
}

type taxIDView struct {
	Input     string `json:"input"`
	Digits    string `json:"digits"`
	Kind      string `json:"kind"`
	Valid     bool   `json:"valid"`
	Formatted string `json:"formatted,omitempty"`
}

func checkTaxID(value string) taxIDView {
	digits := taxid.Digits(value)
	view := taxIDView{Input: value, Digits: digits, Kind: "unknown"}
	switch len(digits) {
	case 11:
		view.Kind = "CPF"
		view.Valid = taxid.IsValidCPF(value)
		view.Formatted = taxid.FormatCPF(digits)
	case 14:
		view.Kind = "CNPJ"
		view.Valid = taxid.IsValidCNPJ(value)
		view.Formatted = taxid.FormatCNPJ(digits)
	}
	return view
}

func newTaxIDCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <value>...",
		Short: "Check CPF or CNPJ check digits",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			views := make([]taxIDView, 0, len(args))
			for _, arg := range args {
				views = append(views, checkTaxID(arg))
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, views)
			}
			out := cmd.OutOrStdout()
			for _, v := range views {
				verdict := "invalid"
				if v.Valid {
					verdict = "valid"
				}
				if v.Kind == "unknown" {
					fmt.Fprintf(out, "%s: not a CPF or CNPJ (%d digits)\n", v.Input, len(v.Digits))
					continue
				}
				fmt.Fprintf(out, "%s: %s %s\n", v.Formatted, verdict, v.Kind)
			}
			return nil
		},
	}
}

func newTaxIDMaskCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mask [text]",
		Short: "Replace CPF/CNPJ numbers with " + taxid.Placeholder,
		Long:  "Mask tax IDs in the given text, or in stdin line by line when no text is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) > 0 {
				_, err := fmt.Fprintln(out, taxid.Mask(strings.Join(args, " ")))
				return err
			}
			return maskLines(cmd.InOrStdin(), out)
		},
	}
}

func maskLines(in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if _, werr := io.WriteString(out, taxid.Mask(line)); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
	}
}
