package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"ares/internal/api"
	"ares/internal/ares"
	"ares/internal/export"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// app runs one CLI command against a lookup.
type app struct {
	lookup  api.Lookup
	out     io.Writer
	errOut  io.Writer
	workers int
	xlsx    string
	log     *zap.Logger
}

// item is one entry of a batch answer.
type item struct {
	ID     string `json:"id"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`

	err error
}

var errUsage = errors.New("usage")

func (a *app) dispatch(ctx context.Context, cmd string, args []string) int {
	var err error
	switch cmd {
	case "bas":
		err = a.records(ctx, args, a.lookup.FindByID)
	case "res":
		err = a.records(ctx, args, a.lookup.FindLegalFormByID)
	case "tax":
		err = a.taxIDs(ctx, args)
	case "find":
		err = a.find(ctx, args)
	case "people":
		err = a.people(ctx, args)
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		fmt.Fprintln(a.errOut, err)
		return exitUsage
	default:
		fmt.Fprintln(a.errOut, err)
		return exitFailure
	}
}

// batch runs fn for every id on at most a.workers goroutines. Results keep
// the order of ids; a failed id does not stop the others.
func (a *app) batch(ctx context.Context, ids []string, fn func(context.Context, string) (any, error)) []item {
	items := make([]item, len(ids))

	var g errgroup.Group
	g.SetLimit(a.workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			v, err := fn(ctx, id)
			items[i] = item{ID: id, Result: v, err: err}
			if err != nil {
				items[i].Result = nil
				items[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()
	return items
}

// emit prints a single answer bare and a batch as an array. Any failed item
// makes the command fail.
func (a *app) emit(items []item) error {
	if len(items) == 1 {
		if items[0].err != nil {
			return items[0].err
		}
		return writeJSON(a.out, items[0].Result)
	}

	if err := writeJSON(a.out, items); err != nil {
		return err
	}
	failed := 0
	for _, it := range items {
		if it.err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d lookups failed", failed, len(items))
	}
	return nil
}

func (a *app) records(ctx context.Context, ids []string, find func(context.Context, string) (ares.Record, error)) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one company id is required", errUsage)
	}
	items := a.batch(ctx, ids, func(ctx context.Context, id string) (any, error) {
		return find(ctx, id)
	})

	var recs ares.Records
	for _, it := range items {
		if rec, ok := it.Result.(ares.Record); ok {
			recs = append(recs, rec)
		}
	}
	if err := a.exportRecords(recs); err != nil {
		return err
	}
	return a.emit(items)
}

func (a *app) taxIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one company id is required", errUsage)
	}
	items := a.batch(ctx, ids, func(ctx context.Context, id string) (any, error) {
		return a.lookup.FindTaxIDByID(ctx, id)
	})
	return a.emit(items)
}

func (a *app) find(ctx context.Context, args []string) error {
	var name, city string
	switch len(args) {
	case 2:
		city = args[1]
		fallthrough
	case 1:
		name = args[0]
	default:
		return fmt.Errorf("%w: find <name> [city]", errUsage)
	}

	recs, err := a.lookup.FindByName(ctx, name, city)
	if err != nil {
		return err
	}
	if err := a.exportRecords(recs); err != nil {
		return err
	}
	return writeJSON(a.out, recs)
}

func (a *app) people(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: people <id>", errUsage)
	}
	set, found, err := a.lookup.Officers(ctx, args[0])
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no court registry extract for %s", args[0])
	}
	if a.xlsx != "" {
		if err := export.SaveFile(a.xlsx, func(w io.Writer) error { return export.WriteOfficers(w, set) }); err != nil {
			return err
		}
		a.log.Info("officers exported", zap.String("path", a.xlsx), zap.Int("officers", set.Len()))
	}
	return writeJSON(a.out, set)
}

func (a *app) exportRecords(recs ares.Records) error {
	if a.xlsx == "" || len(recs) == 0 {
		return nil
	}
	if err := export.SaveFile(a.xlsx, func(w io.Writer) error { return export.WriteRecords(w, recs) }); err != nil {
		return err
	}
	a.log.Info("records exported", zap.String("path", a.xlsx), zap.Int("records", len(recs)))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
