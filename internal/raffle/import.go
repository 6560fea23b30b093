package raffle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/promoraffle/promoraffle/internal/metrics"
	"github.com/promoraffle/promoraffle/internal/model"
	"github.com/promoraffle/promoraffle/internal/store"
)

// ImportResult summarises an inventory import.
type ImportResult struct {
	BatchID  string `json:"batch_id"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}

// ImportInventory normalizes rows and upserts them in batches. Each batch is its
// own transaction; batches run concurrently up to ImportParallelism. Consumed
// codes stay consumed. Rows without a code and repeated codes (last one wins)
// are skipped.
func (s *Service) ImportInventory(ctx context.Context, rows []model.ImportRow) (*ImportResult, error) {
	ctx, span := tracer.Start(ctx, "raffle.ImportInventory")
	defer span.End()

	if len(rows) == 0 {
		return nil, spanError(span, fmt.Errorf("%w: no rows to import", model.ErrValidation))
	}

	clean := normalizeRows(rows)
	res := &ImportResult{
		BatchID: s.Now().UTC().Format(time.RFC3339Nano),
		Skipped: len(rows) - len(clean),
	}
	span.SetAttributes(
		attribute.String("batch", res.BatchID),
		attribute.Int("rows", len(rows)),
	)

	batchSize := max(s.ImportBatchSize, 1)
	var imported atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.ImportParallelism, 1))
	for start := 0; start < len(clean); start += batchSize {
		chunk := clean[start:min(start+batchSize, len(clean))]
		g.Go(func() error {
			n, err := store.ImportInventoryBatch(gctx, s.DB, res.BatchID, chunk)
			if err != nil {
				return err
			}
			imported.Add(int64(n))
			return nil
		})
	}
	err := g.Wait()

	res.Imported = int(imported.Load())
	metrics.ImportedCodes.Add(float64(res.Imported))
	if err != nil {
		slog.Error("inventory import failed", "batch", res.BatchID, "imported", res.Imported, "error", err)
		return res, spanError(span, err)
	}

	slog.Info("inventory imported", "batch", res.BatchID, "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}

func normalizeRows(rows []model.ImportRow) []model.ImportRow {
	index := make(map[string]int, len(rows))
	clean := make([]model.ImportRow, 0, len(rows))

	for _, r := range rows {
		code := model.NormalizeSerial(r.Code)
		if code == "" {
			continue
		}
		row := model.ImportRow{
			Code:       code,
			Model:      strings.TrimSpace(r.Model),
			ProductRef: strings.TrimSpace(r.ProductRef),
		}
		if row.Model == "" {
			row.Model = model.UnknownModel
		}

		if i, ok := index[code]; ok {
			clean[i] = row
			continue
		}
		index[code] = len(clean)
		clean = append(clean, row)
	}
	return clean
}
