package justice

import (
	"errors"
	"fmt"
	"strings"

	"ares/internal/parser/html"

	"github.com/PuerkitoBio/goquery"
)

// Headings of the extract blocks that describe officers. Compared after
// trimming surrounding whitespace.
const (
	headingManagingOfficer = "jednatel:"
	headingPartner         = "Společník:"
)

const birthMarker = ", dat. nar."

var (
	labelsSince = []string{"Den vzniku funkce:", "Den vzniku členství:", "Den vzniku:"}
	labelShare  = "Obchodní podíl:"
	// labelled lines that are neither the address nor a field we keep
	labelsSkip = []string{"Den zániku funkce:", "Den zániku členství:", "Vklad:", "Splaceno:", "Podíl:", "Druh podílu:"}
)

var errNoName = errors.New("officer block has no name")

// blockLines returns the normalized, non-empty text lines of an officer
// block, heading excluded.
func blockLines(block *goquery.Selection) []string {
	var lines []string
	block.Find(".vr-child > div").Each(func(_ int, s *goquery.Selection) {
		if line := html.CollapseWhitespace(s.Text()); line != "" {
			lines = append(lines, line)
		}
	})
	return lines
}

// parsePerson reads the common layout: a "NAME, dat. nar. DATE" line,
// followed by the address and labelled lines.
func parsePerson(block *goquery.Selection, role Role) (Officer, error) {
	lines := blockLines(block)
	if len(lines) == 0 {
		return Officer{}, fmt.Errorf("%s: %w", role, errNoName)
	}

	o := Officer{Role: role}
	o.Name = lines[0]
	if name, ok := html.ExtractBetween(lines[0], "", birthMarker); ok {
		o.Name = strings.TrimSpace(name)
		if birth, ok := html.ExtractBetween(lines[0], birthMarker, ""); ok {
			o.BirthDate = strings.TrimSpace(birth)
		}
	}
	if o.Name == "" {
		return Officer{}, fmt.Errorf("%s: %w", role, errNoName)
	}

	for _, line := range lines[1:] {
		if v, ok := cutAny(line, labelsSince); ok {
			if o.Since == "" {
				o.Since = v
			}
			continue
		}
		if v, ok := html.CutLabel(line, labelShare); ok {
			if role == RolePartner {
				o.Share = v
			}
			continue
		}
		if _, ok := cutAny(line, labelsSkip); ok {
			continue
		}
		if o.Address == "" {
			o.Address = line
		}
	}
	return o, nil
}

func cutAny(line string, labels []string) (string, bool) {
	for _, l := range labels {
		if v, ok := html.CutLabel(line, l); ok {
			return v, true
		}
	}
	return "", false
}

func parseManagingOfficer(block *goquery.Selection) (Officer, error) {
	return parsePerson(block, RoleManagingOfficer)
}

func parsePartner(block *goquery.Selection) (Officer, error) {
	return parsePerson(block, RolePartner)
}

// parseDetail walks the officer blocks of an extract page. Blocks with other
// headings are ignored. The first parse error aborts the walk.
func parseDetail(doc *goquery.Document) (*OfficerSet, error) {
	set := NewOfficerSet()
	var walkErr error

	doc.Find(".aunp-content .div-table").EachWithBreak(func(_ int, block *goquery.Selection) bool {
		heading := strings.TrimSpace(block.Find(".vr-hlavicka").First().Text())

		var parse func(*goquery.Selection) (Officer, error)
		switch heading {
		case headingManagingOfficer:
			parse = parseManagingOfficer
		case headingPartner:
			parse = parsePartner
		default:
			return true
		}

		o, err := parse(block)
		if err != nil {
			walkErr = err
			return false
		}
		set.Put(o)
		return true
	})

	if walkErr != nil {
		return nil, walkErr
	}
	return set, nil
}

// detailHref returns the link to the full extract: the second result link.
// The first one points at the current-state extract.
func detailHref(doc *goquery.Document) (string, bool) {
	var hrefs []string
	doc.Find(".result-links > li > a").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})
	if len(hrefs) < 2 {
		return "", false
	}
	return hrefs[1], true
}
