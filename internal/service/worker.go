package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// TaskError collects the per-record failures of a bulk load. Failed records
// do not stop the batch.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d records failed:", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString(" ")
		b.WriteString(err.Error())
		b.WriteString(";")
	}
	return b.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

// BulkIngestor loads member and deal batches with bounded concurrency.
type BulkIngestor struct {
	service  *IngestService
	workers  int
	progress func(kind string, done, total int)
}

func NewBulkIngestor(service *IngestService, workers int) *BulkIngestor {
	if workers <= 0 {
		workers = 4
	}
	return &BulkIngestor{service: service, workers: workers}
}

// WithProgress registers fn to be called after each record, successful or
// not. Calls are serialized.
func (bi *BulkIngestor) WithProgress(fn func(kind string, done, total int)) *BulkIngestor {
	bi.progress = fn
	return bi
}

// IngestMembers upserts members concurrently. Members reference their
// upline by id, so arrival order does not matter.
func (bi *BulkIngestor) IngestMembers(ctx context.Context, members []MemberInput) error {
	return bi.run(ctx, "members", len(members), func(idx int) error {
		if _, err := bi.service.UpsertMember(ctx, members[idx]); err != nil {
			return fmt.Errorf("member %d (%s): %w", idx, members[idx].ID, err)
		}
		return nil
	})
}

// IngestDeals upserts deals concurrently.
func (bi *BulkIngestor) IngestDeals(ctx context.Context, deals []DealInput) error {
	return bi.run(ctx, "deals", len(deals), func(idx int) error {
		if _, err := bi.service.UpsertDeal(ctx, deals[idx]); err != nil {
			return fmt.Errorf("deal %d (%s): %w", idx, deals[idx].ID, err)
		}
		return nil
	})
}

// run returns ctx's error when cancelled, otherwise a *TaskError holding
// every record failure, or nil.
func (bi *BulkIngestor) run(ctx context.Context, kind string, total int, fn func(idx int) error) error {
	if total == 0 {
		return nil
	}

	var (
		g       errgroup.Group
		mu      sync.Mutex
		done    int
		taskErr TaskError
	)
	g.SetLimit(bi.workers)

	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			err := fn(i)

			mu.Lock()
			defer mu.Unlock()
			done++
			if err != nil {
				taskErr.Errors = append(taskErr.Errors, err)
			}
			if bi.progress != nil {
				bi.progress(kind, done, total)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(taskErr.Errors) == 0 {
		return nil
	}
	return &taskErr
}
