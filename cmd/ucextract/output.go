package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"ucextract/internal/extractor"
)

const (
	formatJSONL = "jsonl"
	formatJSON  = "json"
	formatTable = "table"
	formatCSV   = "csv"
)

var resultHeaders = []string{"File", "Distributor", "Status", "UCs", "Confidence", "Method", "Blacklisted", "Customer Codes"}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// resolveFormat picks the explicit format, then --json, then table for
// terminals and jsonl for pipes and files.
func resolveFormat(explicit string, jsonFlag bool, w io.Writer) (string, error) {
	switch format := strings.ToLower(strings.TrimSpace(explicit)); format {
	case formatJSONL, formatJSON, formatTable, formatCSV:
		return format, nil
	case "":
	default:
		return "", fmt.Errorf("unsupported format %q (want jsonl, json, table, or csv)", explicit)
	}
	if jsonFlag {
		return formatJSON, nil
	}
	if isTerminal(w) {
		return formatTable, nil
	}
	return formatJSONL, nil
}

// resultWriter streams jsonl and buffers the other formats until close.
type resultWriter struct {
	out     io.Writer
	format  string
	enc     *json.Encoder
	results []extractor.Result
}

func newResultWriter(out io.Writer, format string) *resultWriter {
	return &resultWriter{out: out, format: format, enc: json.NewEncoder(out)}
}

func (w *resultWriter) write(res extractor.Result) error {
	if w.format == formatJSONL {
		return w.enc.Encode(res)
	}
	w.results = append(w.results, res)
	return nil
}

func (w *resultWriter) close() error {
	switch w.format {
	case formatJSON:
		results := w.results
		if results == nil {
			results = []extractor.Result{}
		}
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case formatTable:
		if len(w.results) == 0 {
			_, err := fmt.Fprintln(w.out, "No documents processed")
			return err
		}
		_, err := fmt.Fprintln(w.out, renderTable(resultHeaders, resultRows(w.results),
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft}))
		return err
	case formatCSV:
		_, err := fmt.Fprintln(w.out, renderCSV(resultHeaders, resultRows(w.results)))
		return err
	}
	return nil
}

func resultRows(results []extractor.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		name := res.File
		if name == "" {
			name = res.Path
		}
		status := string(res.Status)
		if res.Status == extractor.StatusError && len(res.Errors) > 0 {
			status += ": " + res.Errors[0]
		}
		rows = append(rows, []string{
			name,
			res.Distributor,
			status,
			strings.Join(res.UCs, " "),
			strconv.FormatFloat(res.Confidence, 'f', 3, 64),
			res.Method,
			strings.Join(res.BlacklistedUCs, " "),
			strings.Join(res.CustomerCodesDiscarded, " "),
		})
	}
	return rows
}
