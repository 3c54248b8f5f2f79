package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"ares/internal/ares"
	"ares/internal/justice"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type fakeLookup struct {
	calls atomic.Int32
}

func (f *fakeLookup) FindByID(_ context.Context, id string) (ares.Record, error) {
	f.calls.Add(1)
	if id == "1" {
		return ares.Record{}, &ares.Error{Kind: ares.NotFound, Op: "bas", Subject: id}
	}
	return ares.Record{CompanyID: id, CompanyName: "Firma " + id}, nil
}

func (f *fakeLookup) FindLegalFormByID(ctx context.Context, id string) (ares.Record, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeLookup) FindTaxIDByID(_ context.Context, id string) (string, error) {
	return "CZ" + id, nil
}

func (f *fakeLookup) FindByName(_ context.Context, name, city string) (ares.Records, error) {
	return ares.Records{{CompanyID: "27074358", CompanyName: name + "|" + city}}, nil
}

func (f *fakeLookup) Officers(_ context.Context, id string) (*justice.OfficerSet, bool, error) {
	if id == "1" {
		return nil, false, nil
	}
	set := justice.NewOfficerSet()
	set.Put(justice.Officer{Name: "JAN NOVÁK", Role: justice.RoleManagingOfficer})
	return set, true, nil
}

func newTestApp() (*app, *bytes.Buffer, *bytes.Buffer, *fakeLookup) {
	var out, errOut bytes.Buffer
	f := &fakeLookup{}
	return &app{lookup: f, out: &out, errOut: &errOut, workers: 2, log: zap.NewNop()}, &out, &errOut, f
}

func TestDispatch_SingleRecord(t *testing.T) {
	t.Parallel()

	a, out, _, _ := newTestApp()
	if code := a.dispatch(context.Background(), "bas", []string{"27074358"}); code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	var rec ares.Record
	if err := json.Unmarshal(out.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v (%s)", err, out)
	}
	if rec.CompanyID != "27074358" {
		t.Fatalf("record = %+v", rec)
	}
}

func TestDispatch_BatchKeepsOrderAndReportsFailures(t *testing.T) {
	t.Parallel()

	a, out, errOut, f := newTestApp()
	ids := []string{"5", "1", "7", "9"}
	if code := a.dispatch(context.Background(), "res", ids); code != exitFailure {
		t.Fatalf("exit = %d, want failure for id 1", code)
	}
	if int(f.calls.Load()) != len(ids) {
		t.Fatalf("lookups = %d, want %d", f.calls.Load(), len(ids))
	}

	var items []struct {
		ID     string       `json:"id"`
		Result *ares.Record `json:"result"`
		Error  string       `json:"error"`
	}
	if err := json.Unmarshal(out.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v (%s)", err, out)
	}
	for i, id := range ids {
		if items[i].ID != id {
			t.Fatalf("item %d id = %q, want %q", i, items[i].ID, id)
		}
	}
	if items[1].Result != nil || !strings.Contains(items[1].Error, "not found") {
		t.Fatalf("failed item = %+v", items[1])
	}
	if items[2].Result == nil || items[2].Result.CompanyName != "Firma 7" {
		t.Fatalf("item 2 = %+v", items[2])
	}
	if !strings.Contains(errOut.String(), "1 of 4") {
		t.Fatalf("stderr = %q", errOut)
	}
}

func TestDispatch_TaxAndFind(t *testing.T) {
	t.Parallel()

	a, out, _, _ := newTestApp()
	if code := a.dispatch(context.Background(), "tax", []string{"27074358"}); code != exitOK {
		t.Fatalf("tax exit = %d", code)
	}
	if got := strings.TrimSpace(out.String()); got != `"CZ27074358"` {
		t.Fatalf("tax output = %s", got)
	}

	out.Reset()
	if code := a.dispatch(context.Background(), "find", []string{"Asseco", "Praha"}); code != exitOK {
		t.Fatalf("find exit = %d", code)
	}
	var recs ares.Records
	if err := json.Unmarshal(out.Bytes(), &recs); err != nil || len(recs) != 1 || recs[0].CompanyName != "Asseco|Praha" {
		t.Fatalf("find output = %s, %v", out, err)
	}
}

func TestDispatch_Usage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cmd  string
		args []string
	}{
		{"bas", nil},
		{"tax", nil},
		{"find", nil},
		{"find", []string{"a", "b", "c"}},
		{"people", nil},
		{"frobnicate", nil},
	}
	for _, tc := range tests {
		a, _, _, _ := newTestApp()
		if code := a.dispatch(context.Background(), tc.cmd, tc.args); code != exitUsage {
			t.Errorf("%s %v: exit = %d, want %d", tc.cmd, tc.args, code, exitUsage)
		}
	}
}

func TestDispatch_PeopleExport(t *testing.T) {
	t.Parallel()

	a, out, _, _ := newTestApp()
	a.xlsx = filepath.Join(t.TempDir(), "people.xlsx")

	if code := a.dispatch(context.Background(), "people", []string{"27074358"}); code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	var officers []justice.Officer
	if err := json.Unmarshal(out.Bytes(), &officers); err != nil || len(officers) != 1 {
		t.Fatalf("output = %s, %v", out, err)
	}

	f, err := excelize.OpenFile(a.xlsx)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Officers")
	if err != nil || len(rows) != 2 || rows[1][0] != "JAN NOVÁK" {
		t.Fatalf("rows = %v, %v", rows, err)
	}

	if code := a.dispatch(context.Background(), "people", []string{"1"}); code != exitFailure {
		t.Fatalf("missing extract exit = %d", code)
	}
}

func TestDispatch_RecordsExport(t *testing.T) {
	t.Parallel()

	a, _, _, _ := newTestApp()
	a.xlsx = filepath.Join(t.TempDir(), "companies.xlsx")

	if code := a.dispatch(context.Background(), "bas", []string{"5", "6"}); code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	f, err := excelize.OpenFile(a.xlsx)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Companies")
	if err != nil || len(rows) != 3 {
		t.Fatalf("rows = %v, %v", rows, err)
	}
}
