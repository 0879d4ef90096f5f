package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/apigrate/quickbooks/internal/constants"
	"github.com/apigrate/quickbooks/pkg/qbo"
)

const defaultJSONIndent = 2

// outputFormat returns the configured format, defaulting to table.
func outputFormat() (string, error) {
	format := strings.ToLower(viper.GetString("output"))

	switch format {
	case "":
		return constants.FormatTable, nil
	case constants.FormatJSON, constants.FormatYAML, constants.FormatTable:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q (use table, json or yaml)", constants.ErrInvalidOutputFormat, format)
	}
}

// writeValue renders v as JSON or YAML. Table output is handled by callers;
// for raw API payloads it falls back to indented JSON.
func writeValue(w io.Writer, format string, v interface{}) error {
	if format == constants.FormatYAML {
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(v)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", strings.Repeat(" ", defaultJSONIndent))

	return encoder.Encode(v)
}

// writePayload renders a raw API response body.
func writePayload(w io.Writer, payload json.RawMessage) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	if format != constants.FormatYAML {
		var indented bytes.Buffer

		err = json.Indent(&indented, payload, "", strings.Repeat(" ", defaultJSONIndent))
		if err != nil {
			return fmt.Errorf("failed to format response: %w", err)
		}

		indented.WriteByte('\n')

		_, err = w.Write(indented.Bytes())

		return err
	}

	var decoded interface{}

	err = json.Unmarshal(payload, &decoded)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return writeValue(w, format, decoded)
}

// renderTable writes a simple header/rows table.
func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)

	headerCells := make([]any, len(header))
	for i, h := range header {
		headerCells[i] = h
	}

	table.Header(headerCells...)

	for _, row := range rows {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}

		_ = table.Append(cells...)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// readPayload accepts a literal JSON document, "@path" for a file or "-" for
// stdin.
func readPayload(cmd *cobra.Command, arg string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)

	switch {
	case arg == "-":
		data, err = io.ReadAll(cmd.InOrStdin())
	case strings.HasPrefix(arg, "@"):
		// #nosec G304 -- the path is supplied by the operator on the command line
		data, err = os.ReadFile(strings.TrimPrefix(arg, "@"))
	default:
		data = []byte(arg)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, constants.ErrInvalidPayload
	}

	return json.RawMessage(data), nil
}

// parseReportParams turns key=value arguments into query values.
func parseReportParams(args []string) (url.Values, error) {
	params := url.Values{}

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidReportParam, arg)
		}

		params.Add(key, value)
	}

	return params, nil
}

// addCallFlags registers the per-call flags shared by the entity commands.
func addCallFlags(cmd *cobra.Command) {
	cmd.Flags().String("request-id", "", `idempotency key for the call ("auto" generates one)`)
	cmd.Flags().String("minor-version", "", "API minor version for this call (overrides the configured default)")
}

// callOptions reads the per-call flags; it returns nil when none are set.
func callOptions(cmd *cobra.Command) *qbo.CallOptions {
	requestID, _ := cmd.Flags().GetString("request-id")
	minorVersion, _ := cmd.Flags().GetString("minor-version")

	if requestID == constants.RequestIDAuto {
		requestID = qbo.NewRequestID()
	}

	if requestID == "" && minorVersion == "" {
		return nil
	}

	return &qbo.CallOptions{RequestID: requestID, MinorVersion: minorVersion}
}

func maskToken(token string) string {
	const visible = 4

	if token == "" {
		return constants.NotAvailable
	}

	if len(token) <= visible {
		return constants.MaskedValue
	}

	return token[:visible] + constants.MaskedValue
}
