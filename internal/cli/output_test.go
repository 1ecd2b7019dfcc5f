package cli

import (
	"bytes"
	"strings"
	"testing"
)

func newBufferOutput(jsonMode bool) (*Output, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Output{writer: &buf, jsonMode: jsonMode, colorEnabled: false}, &buf
}

func TestTableAlignsColumns(t *testing.T) {
	out, buf := newBufferOutput(false)
	table := NewTable(out, "SYMBOL", "PRICE")
	table.AddRow("AAPL", "$150.00")
	table.AddRow("MSFT", "$1,020.50")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got %d lines", len(lines))
	}
	want := len(lines[0])
	for i, line := range lines {
		if len(line) != want {
			t.Errorf("line %d width = %d, want %d", i, len(line), want)
		}
	}
}

func TestStripANSI(t *testing.T) {
	colored := ColorGreen + "FILLED" + ColorReset
	if got := stripANSI(colored); got != "FILLED" {
		t.Errorf("stripANSI(%q) = %q, want FILLED", colored, got)
	}
	if got := stripANSI("plain"); got != "plain" {
		t.Errorf("stripANSI(plain) = %q", got)
	}
}

func TestJSONOutput(t *testing.T) {
	out, buf := newBufferOutput(true)
	if !out.IsJSON() {
		t.Fatal("expected JSON mode")
	}
	if err := out.JSON(map[string]string{"status": "ok"}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"status": "ok"`) {
		t.Errorf("unexpected JSON output: %s", buf.String())
	}
}

func TestColoredStringDisabled(t *testing.T) {
	out, _ := newBufferOutput(false)
	if got := out.Green("up"); got != "up" {
		t.Errorf("expected plain text with colors disabled, got %q", got)
	}
}
