package ares

import "testing"

func TestParseID(t *testing.T) {
	t.Parallel()

	valid := map[string]int{
		"27074358":    27074358,
		" 27074358\n": 27074358,
		"270 74 358":  27074358,
		"00006947":    6947,
	}
	for in, want := range valid {
		got, err := ParseID(in)
		if err != nil {
			t.Errorf("ParseID(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseID(%q) = %d, want %d", in, got, want)
		}
	}

	for _, in := range []string{"", "   ", "abc", "12a", "-5", "+5", "0", "000", "1.5", "99999999999999999999999"} {
		if _, err := ParseID(in); err == nil {
			t.Errorf("ParseID(%q) expected error", in)
		}
	}
}

func TestCheckSearchName(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"abc", "ČEZ", "Asseco"} {
		if err := checkSearchName(ok); err != nil {
			t.Errorf("checkSearchName(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", "ab", "Čé"} {
		if err := checkSearchName(bad); err == nil {
			t.Errorf("checkSearchName(%q) expected error", bad)
		}
	}
}

func TestStripDiacritics(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                 "",
		"Společník":        "Spolecnik",
		"Žluťoučký kůň":    "Zlutoucky kun",
		"České Budějovice": "Ceske Budejovice",
		"ACME a.s.":        "ACME a.s.",
	}
	for in, want := range tests {
		if got := StripDiacritics(in); got != want {
			t.Errorf("StripDiacritics(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeTaxID(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"dic=CZ12345678": "CZ12345678",
		"dic=12345678":   "CZ12345678",
		"CZ12345678":     "CZ12345678",
		"12345678":       "CZ12345678",
		"cz699001234":    "CZ699001234",
		" dic=12345678 ": "CZ12345678",
		"":               "",
		"dic=":           "",
	}
	for in, want := range tests {
		if got := NormalizeTaxID(in); got != want {
			t.Errorf("NormalizeTaxID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMapSearchResults(t *testing.T) {
	t.Parallel()

	rows := []SearchRow{
		{ID: "27074358", Name: "Asseco Central Europe, a.s.", HasVAT: "1", TaxCode: "dic=27074358"},
		{ID: "00006947", Name: "Ministerstvo financí", HasVAT: "0", TaxCode: "dic=00006947"},
		{ID: "12345678", Name: "Bez DPH s.r.o.", HasVAT: "", TaxCode: "dic=12345678"},
		{ID: "27074358", Name: "Asseco Central Europe, a.s.", HasVAT: "true", TaxCode: "dic=CZ27074358"},
	}
	got := MapSearchResults(rows)
	if len(got) != len(rows) {
		t.Fatalf("len = %d, want %d", len(got), len(rows))
	}

	wantTax := []string{"CZ27074358", "", "", "CZ27074358"}
	for i, rec := range got {
		if rec.CompanyID != rows[i].ID || rec.CompanyName != rows[i].Name {
			t.Errorf("row %d = %+v, want id %q name %q", i, rec, rows[i].ID, rows[i].Name)
		}
		if rec.TaxID != wantTax[i] {
			t.Errorf("row %d TaxID = %q, want %q", i, rec.TaxID, wantTax[i])
		}
		if rec.Street != "" || rec.Town != "" || rec.Zip != "" {
			t.Errorf("row %d carries address fields: %+v", i, rec)
		}
	}

	if empty := MapSearchResults(nil); empty == nil || len(empty) != 0 {
		t.Fatalf("MapSearchResults(nil) = %#v, want empty non-nil", empty)
	}
}
