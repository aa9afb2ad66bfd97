package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	// InventoryUsageText is the reply to an inventory command without an item.
	InventoryUsageText = "使い方: #在庫 <品名> (例: #在庫 米)"
	// NoInventoryText is the reply when no row matches.
	NoInventoryText = "該当する在庫が見つかりませんでした。"

	maxInventoryRows = 20
)

// RangeReader reads rows from a spreadsheet range.
type RangeReader interface {
	Values(ctx context.Context, a1Range string) ([][]string, error)
}

// Inventory looks up stock rows in a spreadsheet. Columns are name,
// quantity and unit.
type Inventory struct {
	sheet   RangeReader
	rng     string
	timeout time.Duration
	logger  *slog.Logger
}

func NewInventory(sheet RangeReader, a1Range string, timeout time.Duration, logger *slog.Logger) *Inventory {
	return &Inventory{
		sheet:   sheet,
		rng:     a1Range,
		timeout: timeout,
		logger:  logger.With("component", "backend", "backend", "inventory"),
	}
}

func (inv *Inventory) Name() string { return "inventory" }

// Query returns every row whose name contains item, ignoring case.
func (inv *Inventory) Query(ctx context.Context, item string) (string, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return InventoryUsageText, nil
	}

	ctx, cancel := withTimeout(ctx, inv.timeout)
	defer cancel()

	rows, err := inv.sheet.Values(ctx, inv.rng)
	if err != nil {
		return "", &Error{Backend: "inventory", Op: "values.get", Err: err}
	}

	needle := strings.ToLower(item)
	var lines []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" || !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		lines = append(lines, formatRow(name, row[1:]))
		if len(lines) == maxInventoryRows {
			break
		}
	}
	inv.logger.Debug("lookup", "rows", len(rows), "matches", len(lines))

	if len(lines) == 0 {
		return NoInventoryText, nil
	}
	return strings.Join(lines, "\n"), nil
}

func formatRow(name string, rest []string) string {
	var qty, unit string
	if len(rest) > 0 {
		qty = strings.TrimSpace(rest[0])
	}
	if len(rest) > 1 {
		unit = strings.TrimSpace(rest[1])
	}
	switch {
	case qty == "":
		return fmt.Sprintf("%s: -", name)
	case unit == "":
		return fmt.Sprintf("%s: %s", name, qty)
	default:
		return fmt.Sprintf("%s: %s %s", name, qty, unit)
	}
}
