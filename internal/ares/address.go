package ares

import "strings"

// prague is the one town whose districts are spelled out in the composite
// display field (NMC) rather than in the town name itself.
const prague = "Praha"

// AddressFields carries the raw address elements of a basic (darv_bas)
// response. Field comments name the source element.
type AddressFields struct {
	Street            string // NU: street name
	Locality          string // NCO: part of town / area
	Town              string // N: base town
	TownDisplay       string // NMC: composite "town + area" display string
	HouseNumber       string // CD: číslo domovní
	OrientationNumber string // CO: číslo orientační
	AltNumber         string // CA: fallback number text
	Zip               string // PSC
}

// Address is the disambiguated postal address.
type Address struct {
	Street            string
	HouseNumber       string
	OrientationNumber string
	Town              string
	Zip               string
}

// NormalizeAddress reconstructs one coherent address from the overlapping
// source fields. It never fails; absent input yields empty output fields.
func NormalizeAddress(f AddressFields) Address {
	house, orientation := selectNumbers(f)
	return Address{
		Street:            selectStreet(f),
		HouseNumber:       house,
		OrientationNumber: orientation,
		Town:              selectTown(f),
		Zip:               f.Zip,
	}
}

// selectStreet falls back to the area, then the town, so an address without a
// named street does not render as a bare house number.
func selectStreet(f AddressFields) string {
	switch {
	case f.Street != "":
		return f.Street
	case f.Locality != "":
		return f.Locality
	default:
		return f.Town
	}
}

func selectNumbers(f AddressFields) (house, orientation string) {
	switch {
	case f.OrientationNumber != "":
		return f.HouseNumber, f.OrientationNumber
	case f.HouseNumber != "":
		return f.HouseNumber, ""
	default:
		return f.AltNumber, ""
	}
}

// townContainsArea reports whether the area is already spelled out by the
// town fields, e.g. "Praha-Libuš" / "Libuš" or
// "Brandýs nad Labem-Stará Boleslav" / "Brandýs nad Labem".
// An empty area counts as contained for Praha only.
func townContainsArea(f AddressFields) bool {
	if f.Town == prague && strings.Contains(f.TownDisplay, f.Locality) {
		return true
	}
	return f.Locality != "" && strings.Contains(f.Town, f.Locality)
}

func selectTown(f AddressFields) string {
	redundant := townContainsArea(f)

	if f.Town == prague {
		// NMC occasionally omits Praha; rendering NMC alone would then give
		// something like " - Vinohrady".
		if !strings.Contains(f.TownDisplay, prague) {
			return f.Town + " - " + f.Locality
		}
		if redundant {
			return f.TownDisplay
		}
		return f.TownDisplay + " - " + f.Locality
	}

	if f.Locality != "" && f.Locality != f.Town && !redundant {
		// "České Budějovice 3" must not become "České Budějovice - České Budějovice 3".
		if strings.HasPrefix(f.Locality, f.Town) {
			return f.Locality
		}
		return f.Town + " - " + f.Locality
	}

	return f.Town
}

// CleanCompanyName strips one pair of double quotes that wraps the whole
// name. Partial or unbalanced quoting is left as is.
func CleanCompanyName(name string) string {
	if len(name) >= 2 && strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) {
		return name[1 : len(name)-1]
	}
	return name
}
