package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidSymbol is returned when the API reports an "Error Message",
	// which it does for unknown symbols.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrRateLimited is returned on 429 and when the API answers with a
	// "Note" or "Information" payload instead of data.
	ErrRateLimited = errors.New("rate limited")

	ErrUnauthorized = errors.New("unauthorized")
)

const dateLayout = "2006-01-02"

// DailyBar is one entry of the daily time series.
type DailyBar struct {
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

type dailyResponse struct {
	ErrorMessage string                       `json:"Error Message"`
	Note         string                       `json:"Note"`
	Information  string                       `json:"Information"`
	Series       map[string]map[string]string `json:"Time Series (Daily)"`
}

// GetTimeSeriesDaily retrieves the daily time series of symbol. Bars are
// returned newest first.
func (c *AlphaVantageAPIClient) GetTimeSeriesDaily(ctx context.Context, symbol string, opts ...AlphaVantageAPIClientOption) ([]DailyBar, error) {
	var override = &AlphaVantageAPIClient{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
		query:      c.query,
	}
	for _, opt := range opts {
		opt(override)
	}

	query := maps.Clone(override.query)
	query.Set("function", "TIME_SERIES_DAILY")
	query.Set("symbol", symbol)

	url := fmt.Sprintf("%s/query?%s", override.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header

	res, err := override.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusForbidden:
		return nil, ErrUnauthorized

	case http.StatusTooManyRequests:
		return nil, ErrRateLimited

	default:
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body dailyResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding time series response: %w", err)
	}

	switch {
	case body.ErrorMessage != "":
		return nil, fmt.Errorf("%w: %s", ErrInvalidSymbol, symbol)
	case body.Note != "":
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, body.Note)
	case body.Information != "":
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, body.Information)
	}

	bars := make([]DailyBar, 0, len(body.Series))
	for day, values := range body.Series {
		// "2024-01-05": {
		//   "1. open": "181.9900",
		//   "2. high": "182.7600",
		//   "3. low": "180.1700",
		//   "4. close": "181.1800",
		//   "5. volume": "62379661"
		// }
		date, err := time.Parse(dateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("decoding date %q: %w", day, err)
		}
		bar := DailyBar{Date: date}
		for key, dst := range map[string]*decimal.Decimal{
			"1. open":  &bar.Open,
			"2. high":  &bar.High,
			"3. low":   &bar.Low,
			"4. close": &bar.Close,
		} {
			v, err := parseDecimal(values, key)
			if err != nil {
				return nil, fmt.Errorf("decoding %s on %s: %w", key, day, err)
			}
			*dst = v
		}
		if raw, ok := values["5. volume"]; ok {
			vol, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("decoding volume on %s: %w", day, err)
			}
			bar.Volume = vol
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.After(bars[j].Date) })
	return bars, nil
}

func parseDecimal(values map[string]string, key string) (decimal.Decimal, error) {
	raw, ok := values[key]
	if !ok {
		return decimal.Zero, errors.New("missing field")
	}
	return decimal.NewFromString(raw)
}
