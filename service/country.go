package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	ipAPIEndpoint        = "https://ipapi.co/json/"
	ipWhoIsEndpoint      = "https://ipwho.is/"
	providerErrSnippetN  = 120
	countryLookupTimeout = 8 * time.Second
)

type countryProvider struct {
	name     string
	endpoint string
	parse    func([]byte) (string, error)
}

var defaultCountryProviders = []countryProvider{
	{name: "ipapi", endpoint: ipAPIEndpoint, parse: parseIPAPICountry},
	{name: "ipwhois", endpoint: ipWhoIsEndpoint, parse: parseIPWhoIsCountry},
}

// DetectCountry guesses the country of the current network from IP geolocation.
// The result is a country name in the form the movie catalogue stores.
func DetectCountry(ctx context.Context, httpClient *http.Client) (string, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: countryLookupTimeout}
	}
	return detectCountryWithProviders(ctx, httpClient, defaultCountryProviders)
}

func detectCountryWithProviders(ctx context.Context, httpClient *http.Client, providers []countryProvider) (string, error) {
	if len(providers) == 0 {
		return "", errors.New("no country providers configured")
	}

	var providerErrors []string
	for _, provider := range providers {
		country, err := detectCountryFromProvider(ctx, httpClient, provider)
		if err == nil {
			return country, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		providerErrors = append(providerErrors, fmt.Sprintf("%s: %s", provider.name, err.Error()))
	}
	return "", fmt.Errorf("could not detect country (%s)", strings.Join(providerErrors, " | "))
}

func detectCountryFromProvider(ctx context.Context, httpClient *http.Client, provider countryProvider) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create country request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)

	res, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("country request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		if msg := compactProviderErrorSnippet(string(snippet)); msg != "" {
			return "", fmt.Errorf("%s: %s", res.Status, msg)
		}
		return "", errors.New(res.Status)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read country response: %w", err)
	}
	country, err := provider.parse(body)
	if err != nil {
		return "", err
	}
	if country = strings.TrimSpace(country); country == "" {
		return "", errors.New("provider returned no country")
	}
	return country, nil
}

func parseIPAPICountry(body []byte) (string, error) {
	var payload struct {
		Country string `json:"country_name"`
		Error   bool   `json:"error"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode country response: %w", err)
	}
	if payload.Error {
		if payload.Reason == "" {
			payload.Reason = "unknown error"
		}
		return "", errors.New(payload.Reason)
	}
	return payload.Country, nil
}

func parseIPWhoIsCountry(body []byte) (string, error) {
	var payload struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Country string `json:"country"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode country response: %w", err)
	}
	if !payload.Success {
		if strings.TrimSpace(payload.Message) == "" {
			payload.Message = "provider returned unsuccessful response"
		}
		return "", errors.New(payload.Message)
	}
	return payload.Country, nil
}

func compactProviderErrorSnippet(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype") {
		return ""
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > providerErrSnippetN {
		text = text[:providerErrSnippetN]
	}
	return text
}
