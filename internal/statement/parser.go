package statement

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/punchamoorthee/cardfees/internal/domain"
	"github.com/shopspring/decimal"
)

type datePattern struct {
	re    *regexp.Regexp
	parse func(m []string) (time.Time, bool)
}

var datePatterns = []datePattern{
	{
		re: regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`),
		parse: func(m []string) (time.Time, bool) {
			return ymd(m[1], m[2], m[3])
		},
	},
	{
		re: regexp.MustCompile(`\b(\d{2})[/-](\d{2})[/-](\d{4})\b`),
		parse: func(m []string) (time.Time, bool) {
			return ymd(m[3], m[2], m[1])
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(\d{1,2})[ -](jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[ -](\d{4})\b`),
		parse: func(m []string) (time.Time, bool) {
			mon := strings.ToUpper(m[2][:1]) + strings.ToLower(m[2][1:])
			t, err := time.Parse("2 Jan 2006", m[1]+" "+mon+" "+m[3])
			return t, err == nil
		},
	},
}

// amountRe matches money with exactly two decimals, optionally followed by a Cr marker.
var amountRe = regexp.MustCompile(`(?i)(?:₹|rs\.?|inr)?\s*(\d{1,3}(?:,\d{2,3})+|\d+)\.(\d{2})\b(\s*cr\b)?`)

func ymd(y, m, d string) (time.Time, bool) {
	year, err1 := strconv.Atoi(y)
	month, err2 := strconv.Atoi(m)
	day, err3 := strconv.Atoi(d)
	if err1 != nil || err2 != nil || err3 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// ParseEntries pulls debit lines out of statement text. A line counts when
// it carries a date and an amount with two decimals; lines whose amount is
// marked Cr (payments, refunds) are skipped.
func ParseEntries(pages []string) []domain.EntryInput {
	var entries []domain.EntryInput
	for _, page := range pages {
		for _, line := range strings.Split(page, "\n") {
			if e, ok := parseLine(strings.TrimSpace(line)); ok {
				entries = append(entries, e)
			}
		}
	}
	return entries
}

func parseLine(line string) (domain.EntryInput, bool) {
	if line == "" {
		return domain.EntryInput{}, false
	}

	var (
		date time.Time
		rest string
		ok   bool
	)
	for _, p := range datePatterns {
		loc := p.re.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		m := make([]string, len(loc)/2)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = line[loc[2*i]:loc[2*i+1]]
			}
		}
		if date, ok = p.parse(m); ok {
			rest = line[loc[1]:]
			break
		}
	}
	if !ok {
		return domain.EntryInput{}, false
	}

	m := amountRe.FindStringSubmatch(rest)
	if m == nil || m[3] != "" {
		return domain.EntryInput{}, false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "") + "." + m[2])
	if err != nil || amount.IsZero() {
		return domain.EntryInput{}, false
	}

	d := domain.DateOf(date)
	return domain.EntryInput{Amount: &amount, Date: &d}, true
}
