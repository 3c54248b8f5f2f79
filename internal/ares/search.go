package ares

import (
	"strings"

	xmlparser "ares/internal/parser/xml"
)

// SearchRow is one element of a name-search answer.
type SearchRow struct {
	ID      string // ico
	Name    string // ojm
	HasVAT  string // dph flag, as emitted
	TaxCode string // p_dph, "dic=..." encoded
}

// MapSearchResults converts search rows to records in source order. The tax
// id is only derived for rows flagged as VAT payers. Address fields are left
// empty: the search answer carries no structured address.
func MapSearchResults(rows []SearchRow) Records {
	out := make(Records, 0, len(rows))
	for _, row := range rows {
		rec := Record{
			CompanyID:   row.ID,
			CompanyName: row.Name,
		}
		if truthy(row.HasVAT) {
			rec.TaxID = NormalizeTaxID(row.TaxCode)
		}
		out = append(out, rec)
	}
	return out
}

func searchRows(doc *xmlparser.Document) []SearchRow {
	els := doc.FindAll(pathStandard)
	rows := make([]SearchRow, 0, len(els))
	for _, el := range els {
		rows = append(rows, SearchRow{
			ID:      el.Value("dtt:ico"),
			Name:    el.Value("dtt:ojm"),
			HasVAT:  el.Value("dtt:dph"),
			TaxCode: el.Value("dtt:p_dph"),
		})
	}
	return rows
}

func truthy(flag string) bool {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "", "0", "false", "ne":
		return false
	}
	return true
}
