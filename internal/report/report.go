// Package report renders plain-text pass reports and writes them to disk.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"algo-trader/internal/models"
	"algo-trader/internal/store"
	"algo-trader/pkg/utils"
)

// PassSummary collects everything one scheduled pass produced.
type PassSummary struct {
	Slot        string
	GeneratedAt time.Time
	Mode        models.TradeMode
	Results     []models.ScanResult
	ScanErrors  []models.ScanError
	Signals     []models.Signal
	Orders      []models.Order
	OrderErrors []error
	Portfolio   []store.PortfolioSnapshot
}

// Generator renders and persists reports.
type Generator struct {
	reportsDir string
}

// NewGenerator creates a report generator writing into reportsDir.
func NewGenerator(reportsDir string) *Generator {
	return &Generator{reportsDir: reportsDir}
}

// Render produces the plain-text report for a pass.
func (g *Generator) Render(s PassSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "===== %s REPORT =====\n", strings.ToUpper(s.Slot))
	fmt.Fprintf(&b, "Generated: %s\n", s.GeneratedAt.Format("02-Jan-2006 15:04:05"))
	fmt.Fprintf(&b, "Mode: %s\n\n", s.Mode)

	fmt.Fprintf(&b, "--- Scan (%d symbols ranked) ---\n", len(s.Results))
	if len(s.Results) == 0 {
		b.WriteString("no symbols passed the scan\n")
	}
	for i, r := range s.Results {
		fmt.Fprintf(&b, "%2d. %-6s %-8s score %6.1f  price %s", i+1, r.Symbol, r.Trend, r.Score, utils.FormatPrice(r.Snapshot.Price))
		if r.Snapshot.RSI != nil {
			fmt.Fprintf(&b, "  RSI %5.1f", *r.Snapshot.RSI)
		}
		if len(r.MatchedCriteria) > 0 {
			fmt.Fprintf(&b, "  [%s]", strings.Join(r.MatchedCriteria, ", "))
		}
		b.WriteString("\n")
	}

	if len(s.ScanErrors) > 0 {
		fmt.Fprintf(&b, "\n--- Scan failures (%d) ---\n", len(s.ScanErrors))
		for _, e := range s.ScanErrors {
			fmt.Fprintf(&b, "%-6s %s: %v\n", e.Symbol, e.Kind, e.Err)
		}
	}

	fmt.Fprintf(&b, "\n--- Signals (%d) ---\n", len(s.Signals))
	if len(s.Signals) == 0 {
		b.WriteString("no crossover signals\n")
	}
	for _, sig := range s.Signals {
		fmt.Fprintf(&b, "%s %-6s @ %s  %s  (%s)\n", sig.Kind, sig.Symbol, utils.FormatPrice(sig.TriggerPrice), sig.Reason, sig.ID)
	}

	fmt.Fprintf(&b, "\n--- Orders (%d) ---\n", len(s.Orders))
	if len(s.Orders) == 0 {
		b.WriteString("no orders placed\n")
	}
	for _, o := range s.Orders {
		fmt.Fprintf(&b, "%-4s %-6s x%-4d %-9s attempts %d", o.Side, o.Symbol, o.Quantity, o.Status, o.AttemptCount)
		if o.BrokerRef != "" {
			fmt.Fprintf(&b, "  ref %s", o.BrokerRef)
		}
		if o.LastError != "" {
			fmt.Fprintf(&b, "  err %s", o.LastError)
		}
		b.WriteString("\n")
	}
	for _, err := range s.OrderErrors {
		fmt.Fprintf(&b, "order error: %v\n", err)
	}

	if len(s.Portfolio) > 0 {
		first := s.Portfolio[0]
		last := s.Portfolio[len(s.Portfolio)-1]
		fmt.Fprintf(&b, "\n--- Portfolio ---\n")
		fmt.Fprintf(&b, "Current value: %s\n", utils.FormatPrice(last.TotalValue))
		if first.TotalValue > 0 {
			change := (last.TotalValue - first.TotalValue) / first.TotalValue * 100
			fmt.Fprintf(&b, "Change over window: %+.2f%% (since %s)\n", change, first.Timestamp.Format("02-Jan-2006"))
		}
	}

	return b.String()
}

// Save renders the report and writes it under the reports directory, named
// by slot and date. It returns the written path.
func (g *Generator) Save(s PassSummary) (string, error) {
	text := g.Render(s)

	if err := os.MkdirAll(g.reportsDir, 0755); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.txt", s.GeneratedAt.Format("2006-01-02"), sanitizeSlot(s.Slot))
	path := filepath.Join(g.reportsDir, name)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// sanitizeSlot makes a slot name filesystem-safe ("08:00" -> "0800").
func sanitizeSlot(slot string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, slot)
}
