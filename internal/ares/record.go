package ares

// Record is the canonical result of a company lookup. CompanyID is always set
// on success; every other field is an empty string when the source omits it.
type Record struct {
	CompanyID               string `json:"company_id"`
	TaxID                   string `json:"tax_id"`
	CompanyName             string `json:"company_name"`
	Street                  string `json:"street"`
	StreetHouseNumber       string `json:"street_house_number"`
	StreetOrientationNumber string `json:"street_orientation_number"`
	Town                    string `json:"town"`
	Zip                     string `json:"zip"`
}

// StreetWithNumbers renders "street house" or "street house/orientation".
func (r Record) StreetWithNumbers() string {
	if r.StreetOrientationNumber == "" {
		return r.Street + " " + r.StreetHouseNumber
	}
	return r.Street + " " + r.StreetHouseNumber + "/" + r.StreetOrientationNumber
}

// String returns the company name.
func (r Record) String() string { return r.CompanyName }

// Records is an ordered search result. Order follows the source and
// duplicates are kept.
type Records []Record

// TaxRecord wraps a normalized tax id so it can be cached as a typed payload.
type TaxRecord struct {
	TaxID string `json:"tax_id"`
}
