package ares

import (
	"strconv"
	"strings"

	xmlparser "ares/internal/parser/xml"
)

// Element paths inside the ARES answers. Prefixes are the ones the service
// declares on the root element.
const (
	pathBasic    = "are:Odpoved/D:VBAS"
	pathRes      = "are:Odpoved/D:Vypis_RES"
	pathStandard = "are:Odpoved/dtt:V/dtt:S"
)

// sameID compares an identifier emitted by the source (which may carry
// leading zeros) with the requested one.
func sameID(emitted string, want int) bool {
	got, err := strconv.Atoi(strings.TrimSpace(emitted))
	return err == nil && got == want
}

// basicRecord maps a darv_bas VBAS element. ok is false when the element is
// missing or describes a different company.
func basicRecord(doc *xmlparser.Document, id int) (Record, bool) {
	el := doc.Find(pathBasic)
	if el == nil || !sameID(el.Value("D:ICO"), id) {
		return Record{}, false
	}

	addr := NormalizeAddress(AddressFields{
		Street:            el.Value("D:AA/D:NU"),
		Locality:          el.Value("D:AA/D:NCO"),
		Town:              el.Value("D:AA/D:N"),
		TownDisplay:       el.Value("D:AA/D:NMC"),
		HouseNumber:       el.Value("D:AA/D:CD"),
		OrientationNumber: el.Value("D:AA/D:CO"),
		AltNumber:         el.Value("D:AA/D:CA"),
		Zip:               el.Value("D:AA/D:PSC"),
	})

	return Record{
		CompanyID:               el.Value("D:ICO"),
		TaxID:                   NormalizeTaxID(el.Value("D:DIC")),
		CompanyName:             CleanCompanyName(el.Value("D:OF")),
		Street:                  addr.Street,
		StreetHouseNumber:       addr.HouseNumber,
		StreetOrientationNumber: addr.OrientationNumber,
		Town:                    addr.Town,
		Zip:                     addr.Zip,
	}, true
}

// resRecord maps a darv_res Vypis_RES element. The registered seat (SI) is
// already structured, so no disambiguation is applied; the tax id is filled
// in by the caller.
func resRecord(doc *xmlparser.Document, id int) (Record, bool) {
	el := doc.Find(pathRes)
	if el == nil || !sameID(el.Value("D:ZAU/D:ICO"), id) {
		return Record{}, false
	}
	return Record{
		CompanyID:               strconv.Itoa(id),
		CompanyName:             el.Value("D:ZAU/D:OF"),
		Street:                  el.Value("D:SI/D:NU"),
		StreetHouseNumber:       el.Value("D:SI/D:CD"),
		StreetOrientationNumber: el.Value("D:SI/D:CO"),
		Town:                    el.Value("D:SI/D:N"),
		Zip:                     el.Value("D:SI/D:PSC"),
	}, true
}

// taxRecord maps the first S element of an ares_es answer.
func taxRecord(doc *xmlparser.Document, id int) (TaxRecord, bool) {
	el := doc.Find(pathStandard)
	if el == nil || !sameID(el.Value("dtt:ico"), id) {
		return TaxRecord{}, false
	}
	return TaxRecord{TaxID: NormalizeTaxID(el.Value("dtt:p_dph"))}, true
}
