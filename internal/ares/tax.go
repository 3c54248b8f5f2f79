package ares

import "strings"

// NormalizeTaxID converts the vendor "dic=<value>" encoding into the
// canonical "CZ<digits>" form. Values that already carry the CZ prefix keep
// a single one; an empty value stays empty.
func NormalizeTaxID(raw string) string {
	v := strings.TrimSpace(raw)
	v = strings.TrimPrefix(v, "dic=")
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToUpper(v), "CZ") {
		return "CZ" + v[2:]
	}
	return "CZ" + v
}
