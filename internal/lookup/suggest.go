package lookup

import (
	"slices"
	"strings"
)

var symbolsByLetter = map[string][]string{
	"A": {"AAPL", "AMGN", "ADBE", "AMD", "AMZN", "AIG", "AXP", "ABT", "ADI", "ANSS"},
	"B": {"BA", "BAC", "BBY", "BAX", "BMY"},
	"C": {"CAT", "COST", "CRM", "CSCO", "C", "CME"},
	"D": {"DHR", "DIS", "DUK", "DOW", "DTE"},
	"E": {"EBAY", "ED", "EL", "EMN"},
	"F": {"FB", "FDX", "FIS", "FISV", "FTNT"},
	"G": {"GE", "GILD", "GLW", "GOOGL", "GS"},
	"H": {"HD", "HON", "HPE", "HPQ"},
	"I": {"IBM", "INTC", "INTU", "IP"},
	"J": {"JNJ", "JPM", "KMB", "KMI"},
	"K": {"KO", "KHC", "KEYS", "KMX"},
	"L": {"LMT", "LOW", "LRCX", "LNT"},
	"M": {"META", "MCD", "MDT", "MSFT", "MU"},
	"N": {"NKE", "NFLX", "NVDA", "NVS"},
	"O": {"ORCL", "OMC", "OXY"},
	"P": {"PEP", "PG", "PYPL", "PM"},
	"Q": {"QCOM", "QRVO"},
	"R": {"ROST", "RTN", "RMD"},
	"S": {"SBUX", "SPG", "SQ", "SYK"},
	"T": {"T", "TSLA", "TXN", "TGT"},
	"U": {"UAL", "UNH", "UPS", "USB"},
	"V": {"V", "VZ", "VLO"},
	"W": {"WBA", "WDC", "WMT", "WM"},
	"X": {"XOM", "XRX"},
	"Y": {"YUM"},
	"Z": {"ZBH", "ZION", "ZTS"},
}

// Suggest returns popular symbols for a single-letter input. Any other
// input yields nil.
func Suggest(input string) []string {
	key := strings.ToUpper(input)
	if len(key) != 1 {
		return nil
	}
	return slices.Clone(symbolsByLetter[key])
}
