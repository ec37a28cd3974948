package moniker

import (
	"context"
	"fmt"
	"runtime"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/jward/moniker/internal/binder"
	"github.com/jward/moniker/internal/store"
)

// workItem holds everything an extraction worker needs.
type workItem struct {
	path   string
	lang   string
	fileID int64
	src    []byte
	batch  *store.BatchedStore
	err    error
}

// IndexFilesParallel indexes files using a three-phase parallel pipeline:
//
//	Phase A (serial):   Hash check, delete old data, prepare file records.
//	Phase B (parallel): Parse and extract into per-file BatchedStores.
//	Phase C (serial):   Commit batches to SQLite.
func (e *Engine) IndexFilesParallel(ctx context.Context, paths []string) error {
	if e.changed == nil {
		e.changed = make(map[int64]bool)
	}
	var errs *multierror.Error

	// ---- Phase A: Serial file preparation ----
	var items []*workItem
	for _, path := range paths {
		item, skip, err := e.prepareFile(path)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			continue
		}
		item.batch = store.NewBatchedStore()
		items = append(items, &item)
	}

	if len(items) == 0 {
		return errs.ErrorOrNil()
	}

	// ---- Phase B: Parallel extraction ----
	// Workers never return errors so one bad file does not cancel the rest;
	// failures are recorded on the item.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(runtime.NumCPU(), len(items))))
	for _, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				item.err = err
				return nil
			}
			item.err = binder.Extract(gctx, item.batch, item.fileID, item.path, item.src, item.lang)
			return nil
		})
	}
	_ = g.Wait()

	// ---- Phase C: Serial commit ----
	for _, item := range items {
		if item.err != nil {
			errs = multierror.Append(errs, fmt.Errorf("extract %s: %w", item.path, item.err))
			e.discard(*item)
			continue
		}
		if err := e.store.CommitBatch(item.batch); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("commit %s: %w", item.path, err))
			e.discard(*item)
			continue
		}
		e.logger.Debug("indexed file", "path", item.path, "language", item.lang)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return errs.ErrorOrNil()
}
