package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
)

// Backfill reads a CSV export, probes each row's source page for the
// spoiler warning, and writes the same CSV with a Spoilers column appended.
// Under dry-run only the would-be row count is logged and nothing is
// written.
func (a *Adapter) Backfill(ctx context.Context, r io.Reader, w io.Writer, dryRun bool) error {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return err
	}

	rows := [][]string{append(header, colSpoilers)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}

		flag, err := a.probe.Check(ctx, field(cols, row, colURI))
		if err != nil {
			a.log.Warn("spoiler probe failed, assuming no spoilers",
				"title", field(cols, row, colName), "reason", err)
		}
		rows = append(rows, append(row, flagField(flag)))
	}

	if dryRun {
		a.log.Info("dry run: would write rows", "count", len(rows)-1)
		return nil
	}

	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

func flagField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
