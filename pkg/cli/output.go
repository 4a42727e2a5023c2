package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"mercator-hq/judgment/pkg/audit"
	"mercator-hq/judgment/pkg/decision"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output.
	FormatCSV OutputFormat = "csv"
)

// RecordHeaders are the columns of tabular audit record output.
var RecordHeaders = []string{
	"timestamp",
	"request_id",
	"depth",
	"ml_invoked",
	"gate_action",
	"matched_rule",
	"learner_state",
	"layers_invoked",
	"layers_skipped",
}

// Formatter formats command output.
type Formatter interface {
	Format(data any) ([]byte, error)
	FormatTo(w io.Writer, data any) error
}

// TextFormatter formats output as plain text. Audit records are rendered as
// an aligned table.
type TextFormatter struct{}

// Format converts data to text format.
func (f *TextFormatter) Format(data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.FormatTo(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	records, ok := data.([]audit.Record)
	if !ok {
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(RecordHeaders, "\t")))
	for i := range records {
		row := recordRow(&records[i])
		for j, v := range row {
			if v == "" {
				row[j] = "-"
			}
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d record(s)\n", len(records))
	return err
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format converts data to JSON format.
func (f *JSONFormatter) Format(data any) ([]byte, error) {
	if f.Indent {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVFormatter formats audit records or raw rows as CSV.
type CSVFormatter struct {
	// Headers overrides the header row. For audit records it defaults to
	// RecordHeaders.
	Headers []string
}

// Format converts data to CSV format.
func (f *CSVFormatter) Format(data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.FormatTo(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatTo writes data to writer in CSV format. Supported data types are
// []audit.Record and [][]string.
func (f *CSVFormatter) FormatTo(w io.Writer, data any) error {
	var (
		headers = f.Headers
		rows    [][]string
	)

	switch v := data.(type) {
	case []audit.Record:
		if headers == nil {
			headers = RecordHeaders
		}
		rows = make([][]string, 0, len(v))
		for i := range v {
			rows = append(rows, recordRow(&v[i]))
		}
	case [][]string:
		rows = v
	default:
		return fmt.Errorf("CSV output not supported for %T", data)
	}

	csvWriter := csv.NewWriter(w)
	if len(headers) > 0 {
		if err := csvWriter.Write(headers); err != nil {
			return err
		}
	}
	if err := csvWriter.WriteAll(rows); err != nil {
		return err
	}
	return csvWriter.Error()
}

// ParseFormat parses an output format name.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown output format %q (valid: text, json, csv)", s)
	}
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) (Formatter, error) {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}, nil
	case FormatCSV:
		return &CSVFormatter{}, nil
	case FormatText, "":
		return &TextFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func recordRow(rec *audit.Record) []string {
	md := &rec.DecisionMetadata
	return []string{
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.RequestID,
		strconv.Itoa(md.DecisionDepth),
		strconv.FormatBool(md.MLInvoked),
		string(md.GateAction),
		md.MatchedRule,
		string(md.LearnerState),
		joinLayers(md.LayersInvoked),
		joinLayers(md.LayersSkipped),
	}
}

func joinLayers(layers []decision.Layer) string {
	parts := make([]string, len(layers))
	for i, l := range layers {
		parts[i] = string(l)
	}
	return strings.Join(parts, ";")
}
