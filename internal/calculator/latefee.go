package calculator

import (
	"github.com/punchamoorthee/cardfees/internal/domain"
	"github.com/shopspring/decimal"
)

type schedule interface {
	fee(outstanding decimal.Decimal) decimal.Decimal
}

// band caps a tier. Inclusive bands match amount <= limit, exclusive ones amount < limit.
type band struct {
	limit     decimal.Decimal
	inclusive bool
	fee       decimal.Decimal
}

func upTo(limit, fee int64) band {
	return band{limit: decimal.NewFromInt(limit), inclusive: true, fee: decimal.NewFromInt(fee)}
}

func below(limit, fee int64) band {
	return band{limit: decimal.NewFromInt(limit), fee: decimal.NewFromInt(fee)}
}

// tiered scans bands in ascending order; the first match wins.
type tiered struct {
	bands []band
	above decimal.Decimal
}

func (t tiered) fee(amount decimal.Decimal) decimal.Decimal {
	for _, b := range t.bands {
		if b.inclusive && amount.LessThanOrEqual(b.limit) {
			return b.fee
		}
		if !b.inclusive && amount.LessThan(b.limit) {
			return b.fee
		}
	}
	return t.above
}

// proportional charges a share of the balance, clamped to [min, max].
type proportional struct {
	rate decimal.Decimal
	min  decimal.Decimal
	max  decimal.Decimal
}

func (p proportional) fee(amount decimal.Decimal) decimal.Decimal {
	return Clamp(amount.Mul(p.rate), p.min, p.max)
}

var schedules = map[domain.Bank]schedule{
	domain.BankHDFC: tiered{
		bands: []band{below(100, 0), upTo(500, 100), upTo(5000, 500), upTo(10000, 600), upTo(25000, 800), upTo(50000, 1100)},
		above: decimal.NewFromInt(1300),
	},
	domain.BankSBI: tiered{
		bands: []band{upTo(500, 0), upTo(1000, 400), upTo(10000, 750), upTo(25000, 950), upTo(50000, 1100)},
		above: decimal.NewFromInt(1300),
	},
	domain.BankICICI: tiered{
		bands: []band{below(100, 0), upTo(500, 100), upTo(5000, 500), upTo(10000, 750), upTo(25000, 900), upTo(50000, 1000)},
		above: decimal.NewFromInt(1200),
	},
	domain.BankAxis: tiered{
		bands: []band{upTo(500, 0), upTo(5000, 500), upTo(10000, 750)},
		above: decimal.NewFromInt(1200),
	},
	domain.BankKotak: tiered{
		bands: []band{upTo(100, 0), upTo(500, 100), upTo(1000, 500), upTo(5000, 750), upTo(10000, 750), upTo(25000, 1200), upTo(50000, 1200)},
		above: decimal.NewFromInt(1300),
	},
	domain.BankIDFC: proportional{
		rate: decimal.RequireFromString("0.15"),
		min:  decimal.NewFromInt(100),
		max:  decimal.NewFromInt(1250),
	},
	domain.BankAmericanExpress: proportional{
		rate: decimal.RequireFromString("0.30"),
		min:  decimal.NewFromInt(500),
		max:  decimal.NewFromInt(1000),
	},
	domain.BankCitibank: tiered{
		bands: []band{upTo(500, 100), upTo(5000, 500), upTo(10000, 750)},
		above: decimal.NewFromInt(950),
	},
}

// LateFee returns the flat penalty a bank charges for the given outstanding
// balance. Banks without a published schedule (Yes, PNB, unknown) charge 0.
func LateFee(bank domain.Bank, outstanding decimal.Decimal) decimal.Decimal {
	s, ok := schedules[bank]
	if !ok {
		return decimal.Zero
	}
	return s.fee(outstanding)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Max(lo, decimal.Min(v, hi))
}
