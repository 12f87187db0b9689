package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/martinemde/diagrams/ast"
	"github.com/martinemde/diagrams/lexer"
	"github.com/martinemde/diagrams/parser"
	"github.com/martinemde/diagrams/seqlexer"
	"github.com/martinemde/diagrams/syntax"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [file]",
	Short: "Print the token stream of a diagram file",
	Long: "Tokenize a file (stdin when omitted) with the general tokenizer, or with the sequence " +
		"tokenizer when --sequence is set or the text starts with a sequenceDiagram header.",
	Args: cobra.MaximumNArgs(1),
	RunE: runTokens,
}

func init() {
	tokensCmd.Flags().Bool("sequence", false, "Use the sequence diagram tokenizer")
	tokensCmd.Flags().Bool("json", false, "Print tokens as JSON")
	rootCmd.AddCommand(tokensCmd)
}

// tokenOutput is the JSON form of one token.
type tokenOutput struct {
	Kind string      `json:"kind"`
	Text string      `json:"text,omitempty"`
	Span syntax.Span `json:"span"`
}

func runTokens(cmd *cobra.Command, args []string) error {
	sources, err := readSources(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	src := sources[0]
	sequence, _ := cmd.Flags().GetBool("sequence")
	asJSON, _ := cmd.Flags().GetBool("json")

	toks, err := tokenize(src.Text, sequence || parser.DetectKind(src.Text) == ast.KindSequence)
	if err != nil {
		renderDiagnostic(cmd.ErrOrStderr(), src.Name, src.Text, err)
		return fmt.Errorf("tokenizing %s failed", src.Name)
	}
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(toks)
	}
	printTokens(cmd.OutOrStdout(), toks)
	return nil
}

func tokenize(text string, sequence bool) ([]tokenOutput, error) {
	var out []tokenOutput
	if sequence {
		toks, err := seqlexer.Tokenize(text)
		if err != nil {
			return nil, err
		}
		for _, t := range toks {
			out = append(out, tokenOutput{Kind: t.Kind.String(), Text: t.Value, Span: t.Span})
		}
		return out, nil
	}
	toks, err := lexer.Tokenize(text)
	if err != nil {
		return nil, err
	}
	for _, t := range toks {
		out = append(out, tokenOutput{Kind: t.Kind.String(), Text: t.Value, Span: t.Span})
	}
	return out, nil
}

func printTokens(w io.Writer, toks []tokenOutput) {
	for i, tok := range toks {
		fmt.Fprintf(w, "%3d: %-18s", i+1, tok.Kind)
		if tok.Text != "" && tok.Text != "\n" {
			fmt.Fprintf(w, " %q", tok.Text)
		}
		fmt.Fprintf(w, " at %d:%d-%d:%d\n",
			tok.Span.Start.Line, tok.Span.Start.Column,
			tok.Span.End.Line, tok.Span.End.Column)
	}
}
