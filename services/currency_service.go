package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	exchangeRateBaseURL = "https://v6.exchangerate-api.com"
	ratesTTL            = 6 * time.Hour
)

var ErrRatesUnavailable = errors.New("exchange rates unavailable")

type exchangeRateResponse struct {
	Result          string             `json:"result"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// CurrencyService converts revenue figures to USD using rates cached for six hours.
type CurrencyService struct {
	http   *resty.Client
	apiKey string
	logger *slog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	rates     map[string]float64
	fetchedAt time.Time
}

func NewCurrencyService(apiKey string, logger *slog.Logger) *CurrencyService {
	return newCurrencyService(exchangeRateBaseURL, apiKey, logger)
}

func newCurrencyService(baseURL, apiKey string, logger *slog.Logger) *CurrencyService {
	return &CurrencyService{
		http:   resty.New().SetBaseURL(baseURL).SetTimeout(10 * time.Second),
		apiKey: apiKey,
		logger: logger,
		now:    time.Now,
	}
}

// Rates returns USD-based conversion rates, fetching them when the cache is stale.
func (s *CurrencyService) Rates(ctx context.Context) (map[string]float64, error) {
	s.mu.RLock()
	if s.rates != nil && s.now().Sub(s.fetchedAt) < ratesTTL {
		rates := s.rates
		s.mu.RUnlock()
		return rates, nil
	}
	s.mu.RUnlock()

	if s.apiKey == "" {
		return nil, fmt.Errorf("%w: EXCHANGE_RATE_API_KEY not configured", ErrRatesUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rates != nil && s.now().Sub(s.fetchedAt) < ratesTTL {
		return s.rates, nil
	}

	s.logger.Info("fetching exchange rates")
	var data exchangeRateResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetResult(&data).
		Get("/v6/" + s.apiKey + "/latest/USD")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRatesUnavailable, err)
	}
	if !resp.IsSuccess() || data.Result != "success" {
		return nil, fmt.Errorf("%w: status %d", ErrRatesUnavailable, resp.StatusCode())
	}

	s.rates = data.ConversionRates
	s.fetchedAt = s.now()
	return s.rates, nil
}

func (s *CurrencyService) ToUSD(ctx context.Context, amount float64, currency string) (float64, error) {
	currency = strings.ToUpper(currency)
	if currency == "USD" {
		return amount, nil
	}
	rates, err := s.Rates(ctx)
	if err != nil {
		return 0, err
	}
	rate, ok := rates[currency]
	if !ok || rate == 0 {
		return 0, fmt.Errorf("%w: no rate for %s", ErrRatesUnavailable, currency)
	}
	return amount / rate, nil
}
