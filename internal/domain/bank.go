package domain

import "strings"

// Bank identifies the card issuer whose late-fee schedule applies.
type Bank string

const (
	BankHDFC            Bank = "HDFC"
	BankSBI             Bank = "SBI"
	BankICICI           Bank = "ICICI"
	BankAxis            Bank = "Axis"
	BankKotak           Bank = "Kotak"
	BankYes             Bank = "Yes"
	BankPNB             Bank = "PNB"
	BankIDFC            Bank = "IDFC"
	BankAmericanExpress Bank = "AmericanExpress"
	BankCitibank        Bank = "Citibank"
)

// Banks lists every issuer accepted by the calculator.
var Banks = []Bank{
	BankHDFC,
	BankSBI,
	BankICICI,
	BankAxis,
	BankKotak,
	BankYes,
	BankPNB,
	BankIDFC,
	BankAmericanExpress,
	BankCitibank,
}

// ParseBank matches s against the known issuers, ignoring case and spaces.
func ParseBank(s string) (Bank, bool) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if key == "" {
		return "", false
	}
	for _, b := range Banks {
		if strings.ToLower(string(b)) == key {
			return b, true
		}
	}
	switch key {
	case "amex":
		return BankAmericanExpress, true
	case "citi":
		return BankCitibank, true
	case "yesbank":
		return BankYes, true
	}
	return "", false
}
