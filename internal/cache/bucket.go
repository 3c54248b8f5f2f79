package cache

import (
	"fmt"
	"strings"
	"time"
)

// DefaultStrategy buckets entries by ISO year and week: one bucket per
// calendar week.
const DefaultStrategy = "YW"

// FormatBucket renders t with a PHP date()-style layout. Supported
// characters:
//
//	Y  4-digit year            y  2-digit year
//	o  ISO-8601 year           W  ISO-8601 week, zero padded
//	m  month, zero padded      n  month
//	d  day, zero padded        j  day
//	z  day of year, from 0     N  ISO day of week, 1 = Monday
//	H  hour, zero padded
//
// A backslash emits the next character literally; any other character is
// copied as is.
func FormatBucket(layout string, t time.Time) string {
	var b strings.Builder
	escaped := false
	for _, r := range layout {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case 'Y':
			fmt.Fprintf(&b, "%04d", t.Year())
		case 'y':
			fmt.Fprintf(&b, "%02d", t.Year()%100)
		case 'o':
			year, _ := t.ISOWeek()
			fmt.Fprintf(&b, "%04d", year)
		case 'W':
			_, week := t.ISOWeek()
			fmt.Fprintf(&b, "%02d", week)
		case 'm':
			fmt.Fprintf(&b, "%02d", int(t.Month()))
		case 'n':
			fmt.Fprintf(&b, "%d", int(t.Month()))
		case 'd':
			fmt.Fprintf(&b, "%02d", t.Day())
		case 'j':
			fmt.Fprintf(&b, "%d", t.Day())
		case 'z':
			fmt.Fprintf(&b, "%d", t.YearDay()-1)
		case 'N':
			wd := int(t.Weekday())
			if wd == 0 {
				wd = 7
			}
			fmt.Fprintf(&b, "%d", wd)
		case 'H':
			fmt.Fprintf(&b, "%02d", t.Hour())
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
