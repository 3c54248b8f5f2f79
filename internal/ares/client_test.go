package ares

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ares/internal/cache"
	"ares/internal/justice"
)

const testBase = "http://ares.test/cgi-bin/ares"

// fakeFetcher answers from a url -> body table and counts requests.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string][]byte
	calls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, u string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, u)
	b, ok := f.bodies[u]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return b, nil
}

func (f *fakeFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func testNow() time.Time { return time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC) }

func newTestCache(t *testing.T) (*cache.ResponseCache, *cache.FileStore) {
	t.Helper()
	store, err := cache.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return cache.New(store, cache.Options{Now: testNow}), store
}

func newTestClient(t *testing.T, bodies map[string][]byte) (*Client, *fakeFetcher, *cache.ResponseCache) {
	t.Helper()
	rc, _ := newTestCache(t)
	f := &fakeFetcher{bodies: bodies}
	c := NewClient(Options{Fetcher: f, Cache: rc, BaseURL: testBase + "/", Now: testNow})
	return c, f, rc
}

var asseco = Record{
	CompanyID:               "27074358",
	TaxID:                   "CZ27074358",
	CompanyName:             "Asseco Central Europe, a.s.",
	Street:                  "Budějovická",
	StreetHouseNumber:       "778",
	StreetOrientationNumber: "3a",
	Town:                    "Praha 4 - Michle",
	Zip:                     "14000",
}

func TestClient_URLs(t *testing.T) {
	t.Parallel()

	c := NewClient(Options{Fetcher: &fakeFetcher{}, BaseURL: testBase})
	tests := []struct {
		got, want string
	}{
		{c.basicURL(27074358), testBase + "/darv_bas.cgi?ico=27074358"},
		{c.resURL(27074358), testBase + "/darv_res.cgi?ICO=27074358"},
		{c.taxURL(6947), testBase + "/ares_es.cgi?ico=6947&filtr=0"},
		{c.searchURL("Nadační fond", "České Budějovice"), testBase + "/ares_es.cgi?obch_jm=Nadacni+fond&obec=Ceske+Budejovice&filtr=0"},
		{c.searchURL("Asseco", ""), testBase + "/ares_es.cgi?obch_jm=Asseco&obec=&filtr=0"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("url = %q, want %q", tc.got, tc.want)
		}
	}

	if got := NewClient(Options{Fetcher: &fakeFetcher{}}).basicURL(1); got != DefaultBaseURL+"/darv_bas.cgi?ico=1" {
		t.Errorf("default base url = %q", got)
	}
}

func TestClient_FindByID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, f, _ := newTestClient(t, map[string][]byte{
		testBase + "/darv_bas.cgi?ico=27074358": fixture(t, "bas_27074358.xml"),
	})

	rec, err := c.FindByID(ctx, "270 74 358")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if rec != asseco {
		t.Fatalf("record = %+v\nwant %+v", rec, asseco)
	}
	if got := rec.StreetWithNumbers(); got != "Budějovická 778/3a" {
		t.Fatalf("StreetWithNumbers = %q", got)
	}

	again, err := c.FindByID(ctx, "27074358")
	if err != nil {
		t.Fatalf("second FindByID: %v", err)
	}
	if again != rec {
		t.Fatalf("cached record = %+v, want %+v", again, rec)
	}
	if n := f.count(); n != 1 {
		t.Fatalf("fetches = %d, want 1", n)
	}
	if got := c.LastURL(); got != testBase+"/darv_bas.cgi?ico=27074358" {
		t.Fatalf("LastURL = %q", got)
	}
}

func TestClient_FindByID_NoCache(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{bodies: map[string][]byte{
		testBase + "/darv_bas.cgi?ico=27074358": fixture(t, "bas_27074358.xml"),
	}}
	c := NewClient(Options{Fetcher: f, BaseURL: testBase})

	for i := 0; i < 2; i++ {
		if _, err := c.FindByID(context.Background(), "27074358"); err != nil {
			t.Fatalf("FindByID: %v", err)
		}
	}
	if n := f.count(); n != 2 {
		t.Fatalf("fetches = %d, want 2 without a cache", n)
	}
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, f, _ := newTestClient(t, map[string][]byte{
		testBase + "/darv_bas.cgi?ico=1":                      fixture(t, "bas_27074358.xml"),
		testBase + "/darv_bas.cgi?ico=2":                      fixture(t, "bas_mismatch.xml"),
		testBase + "/darv_bas.cgi?ico=3":                      []byte("<html><body>Service Unavailable"),
		testBase + "/darv_bas.cgi?ico=4":                      nil,
		testBase + "/ares_es.cgi?ico=1&filtr=0":               fixture(t, "tax_27074358.xml"),
		testBase + "/ares_es.cgi?obch_jm=Nikdo&obec=&filtr=0": fixture(t, "find_empty.xml"),
	})

	tests := []struct {
		name string
		call func() error
		want error
		op   string
	}{
		{
			name: "id mismatch",
			call: func() error { _, err := c.FindByID(ctx, "1"); return err },
			want: ErrNotFound, op: opBasic,
		},
		{
			name: "error answer",
			call: func() error { _, err := c.FindByID(ctx, "2"); return err },
			want: ErrNotFound, op: opBasic,
		},
		{
			name: "html instead of xml",
			call: func() error { _, err := c.FindByID(ctx, "3"); return err },
			want: ErrSourceUnavailable, op: opBasic,
		},
		{
			name: "empty body",
			call: func() error { _, err := c.FindByID(ctx, "4"); return err },
			want: ErrSourceUnavailable, op: opBasic,
		},
		{
			name: "transport failure",
			call: func() error { _, err := c.FindByID(ctx, "5"); return err },
			want: ErrSourceUnavailable, op: opBasic,
		},
		{
			name: "tax id mismatch",
			call: func() error { _, err := c.FindTaxIDByID(ctx, "1"); return err },
			want: ErrNotFound, op: opTax,
		},
		{
			name: "empty search",
			call: func() error { _, err := c.FindByName(ctx, "Nikdo", ""); return err },
			want: ErrNotFound, op: opFind,
		},
	}
	for _, tc := range tests {
		err := tc.call()
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
			continue
		}
		var e *Error
		if !errors.As(err, &e) || e.Op != tc.op {
			t.Errorf("%s: err = %#v, want op %q", tc.name, err, tc.op)
		}
		if IsRetryable(err) != (tc.want == ErrSourceUnavailable) {
			t.Errorf("%s: IsRetryable = %v", tc.name, IsRetryable(err))
		}
	}

	if n := f.count(); n != len(tests) {
		t.Fatalf("fetches = %d, want %d", n, len(tests))
	}
}

// TestClient_InvalidInputSkipsNetwork checks that malformed input fails
// before any request is made.
func TestClient_InvalidInputSkipsNetwork(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, f, _ := newTestClient(t, nil)

	calls := map[string]func() error{
		"short name":   func() error { _, err := c.FindByName(ctx, "AB", "Praha"); return err },
		"short accent": func() error { _, err := c.FindByName(ctx, "Čš", ""); return err },
		"letters id":   func() error { _, err := c.FindByID(ctx, "12a45"); return err },
		"empty id":     func() error { _, err := c.FindLegalFormByID(ctx, " "); return err },
		"zero id":      func() error { _, err := c.FindTaxIDByID(ctx, "0"); return err },
		"officers id":  func() error { _, _, err := c.Officers(ctx, "x"); return err },
	}
	for name, call := range calls {
		err := call()
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", name, err)
		}
		if KindOf(err) != InvalidInput {
			t.Errorf("%s: KindOf = %v", name, KindOf(err))
		}
	}
	if n := f.count(); n != 0 {
		t.Fatalf("fetches = %d, want 0", n)
	}
}

func TestClient_FindLegalFormByID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, f, _ := newTestClient(t, map[string][]byte{
		testBase + "/darv_res.cgi?ICO=27074358":        fixture(t, "res_27074358.xml"),
		testBase + "/ares_es.cgi?ico=27074358&filtr=0": fixture(t, "tax_27074358.xml"),
	})

	rec, err := c.FindLegalFormByID(ctx, "27074358")
	if err != nil {
		t.Fatalf("FindLegalFormByID: %v", err)
	}
	want := Record{
		CompanyID:               "27074358",
		TaxID:                   "CZ27074358",
		CompanyName:             "Asseco Central Europe, a.s.",
		Street:                  "Budějovická",
		StreetHouseNumber:       "778",
		StreetOrientationNumber: "3a",
		Town:                    "Praha",
		Zip:                     "14000",
	}
	if rec != want {
		t.Fatalf("record = %+v\nwant %+v", rec, want)
	}
	if n := f.count(); n != 2 {
		t.Fatalf("fetches = %d, want res + tax", n)
	}

	taxID, err := c.FindTaxIDByID(ctx, "27074358")
	if err != nil || taxID != "CZ27074358" {
		t.Fatalf("FindTaxIDByID = %q, %v", taxID, err)
	}
	if _, err := c.FindLegalFormByID(ctx, "27074358"); err != nil {
		t.Fatalf("cached FindLegalFormByID: %v", err)
	}
	if n := f.count(); n != 2 {
		t.Fatalf("fetches = %d, want cached answers", n)
	}
}

func TestClient_FindLegalFormByID_TaxFailure(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestClient(t, map[string][]byte{
		testBase + "/darv_res.cgi?ICO=27074358": fixture(t, "res_27074358.xml"),
	})

	_, err := c.FindLegalFormByID(context.Background(), "27074358")
	var e *Error
	if !errors.As(err, &e) || e.Kind != SourceUnavailable || e.Op != opTax {
		t.Fatalf("err = %v, want unavailable tax lookup", err)
	}
}

func TestClient_FindByName(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, f, _ := newTestClient(t, map[string][]byte{
		testBase + "/ares_es.cgi?obch_jm=Asseco&obec=&filtr=0": fixture(t, "find_asseco.xml"),
	})

	recs, err := c.FindByName(ctx, "Asseco", "")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	want := Records{
		{CompanyID: "27074358", CompanyName: "Asseco Central Europe, a.s.", TaxID: "CZ27074358"},
		{CompanyID: "00006947", CompanyName: "Asseco Nadační fond"},
		{CompanyID: "27074358", CompanyName: "Asseco Central Europe, a.s.", TaxID: "CZ27074358"},
	}
	if len(recs) != len(want) {
		t.Fatalf("records = %+v", recs)
	}
	for i := range want {
		if recs[i] != want[i] {
			t.Fatalf("record[%d] = %+v, want %+v", i, recs[i], want[i])
		}
	}

	cached, err := c.FindByName(ctx, "Asseco", "")
	if err != nil || len(cached) != 3 || cached[1] != want[1] {
		t.Fatalf("cached FindByName = %+v, %v", cached, err)
	}
	if n := f.count(); n != 1 {
		t.Fatalf("fetches = %d, want 1", n)
	}
}

func TestClient_Balancer(t *testing.T) {
	t.Parallel()

	canonical := testBase + "/darv_bas.cgi?ico=27074358"
	routed := "http://balancer.test/route?url=" + url.QueryEscape(canonical)

	c, f, _ := newTestClient(t, map[string][]byte{routed: fixture(t, "bas_27074358.xml")})
	c.SetBalancer("http://balancer.test/route")

	if _, err := c.FindByID(context.Background(), "27074358"); err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got := c.LastURL(); got != routed {
		t.Fatalf("LastURL = %q, want %q", got, routed)
	}
	if f.calls[0] != routed {
		t.Fatalf("fetched %q, want %q", f.calls[0], routed)
	}

	if got := balance("", canonical); got != canonical {
		t.Fatalf("balance without balancer = %q", got)
	}
}

// TestClient_DebugKeepsRawPayload checks that the raw answer is stored even
// when it cannot be parsed.
func TestClient_DebugKeepsRawPayload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	broken := []byte("<html><body>Service Unavailable")
	rc, store := newTestCache(t)
	f := &fakeFetcher{bodies: map[string][]byte{
		testBase + "/darv_bas.cgi?ico=27074358": broken,
	}}
	c := NewClient(Options{Fetcher: f, Cache: rc, BaseURL: testBase, Now: testNow})
	c.SetDebug(true)

	if _, err := c.FindByID(ctx, "27074358"); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
	raw, err := store.Read(ctx, cache.RawEntityKey(opBasic, 27074358, rc.Bucket()))
	if err != nil || string(raw) != string(broken) {
		t.Fatalf("raw payload = %q, %v", raw, err)
	}
}

func TestClient_SetCacheStrategy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, f, rc := newTestClient(t, map[string][]byte{
		testBase + "/darv_bas.cgi?ico=27074358": fixture(t, "bas_27074358.xml"),
	})

	if _, err := c.FindByID(ctx, "27074358"); err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if _, err := c.FindByID(ctx, "27074358"); err != nil {
		t.Fatalf("cached FindByID: %v", err)
	}
	if n := f.count(); n != 1 {
		t.Fatalf("fetches = %d, want 1", n)
	}

	c.SetCacheStrategy("Y-m-d")
	if got := rc.Bucket(); got != "2026-10-18" {
		t.Fatalf("Bucket() = %q, want 2026-10-18", got)
	}
	rec, err := c.FindByID(ctx, "27074358")
	if err != nil {
		t.Fatalf("FindByID after strategy change: %v", err)
	}
	if rec != asseco {
		t.Fatalf("record = %+v\nwant %+v", rec, asseco)
	}
	if n := f.count(); n != 2 {
		t.Fatalf("fetches = %d, want 2 after the bucket changed", n)
	}

	// A nil cache ignores the layout.
	NewClient(Options{Fetcher: &fakeFetcher{}}).SetCacheStrategy("Y")
}

func TestClient_CorruptCacheIsMiss(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rc, store := newTestCache(t)
	key := cache.EntityKey(opBasic, 27074358, rc.Bucket())
	if err := store.Write(ctx, key, []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	f := &fakeFetcher{bodies: map[string][]byte{
		testBase + "/darv_bas.cgi?ico=27074358": fixture(t, "bas_27074358.xml"),
	}}
	c := NewClient(Options{Fetcher: f, Cache: rc, BaseURL: testBase})

	rec, err := c.FindByID(ctx, "27074358")
	if err != nil || rec != asseco {
		t.Fatalf("FindByID = %+v, %v", rec, err)
	}
	if n := f.count(); n != 1 {
		t.Fatalf("fetches = %d, want 1", n)
	}
	if _, err := c.FindByID(ctx, "27074358"); err != nil || f.count() != 1 {
		t.Fatalf("entry was not rewritten: fetches = %d, err = %v", f.count(), err)
	}
}

type fakeOfficers struct {
	set   *justice.OfficerSet
	found bool
	err   error
	got   int
}

func (f *fakeOfficers) FindByID(_ context.Context, companyID int) (*justice.OfficerSet, bool, error) {
	f.got = companyID
	return f.set, f.found, f.err
}

func TestClient_Officers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	set := justice.NewOfficerSet()
	set.Put(justice.Officer{Name: "JAN NOVÁK", Role: justice.RoleManagingOfficer})

	finder := &fakeOfficers{set: set, found: true}
	c := NewClient(Options{Fetcher: &fakeFetcher{}, Officers: finder})

	got, found, err := c.Officers(ctx, "00006947")
	if err != nil || !found || got.Len() != 1 {
		t.Fatalf("Officers = %v, %v, %v", got, found, err)
	}
	if finder.got != 6947 {
		t.Fatalf("company id = %d, want 6947", finder.got)
	}

	finder.set, finder.found = nil, false
	if _, found, err := c.Officers(ctx, "6947"); err != nil || found {
		t.Fatalf("not found = %v, %v", found, err)
	}

	finder.err = errors.New("timeout")
	if _, _, err := c.Officers(ctx, "6947"); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}

	bare := NewClient(Options{Fetcher: &fakeFetcher{}})
	if _, _, err := bare.Officers(ctx, "6947"); !errors.Is(err, errNoOfficerSource) {
		t.Fatalf("err = %v, want errNoOfficerSource", err)
	}
}
