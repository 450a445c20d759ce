package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"movienight-cli/model"
)

const (
	appDir               = "movienight-cli"
	maxRecentSearchTerms = 10
)

type cacheEnvelope[T any] struct {
	UpdatedAt time.Time `json:"updated_at"`
	Data      T         `json:"data"`
}

type tokenFile struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type searchHistory struct {
	Terms []string `json:"terms"`
}

// SearchSnapshot is the last displayed search result set and its page links.
type SearchSnapshot struct {
	Term     string        `json:"term"`
	Results  []model.Movie `json:"results"`
	Next     string        `json:"next"`
	Previous string        `json:"previous"`
}

// LoadTokens returns the persisted token pair, or zero tokens when none were saved.
func LoadTokens() (model.Tokens, error) {
	path, err := configPath("session.json")
	if err != nil {
		return model.Tokens{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Tokens{}, nil
		}
		return model.Tokens{}, err
	}
	var file tokenFile
	if err := json.Unmarshal(data, &file); err != nil {
		return model.Tokens{}, errors.New("invalid session file format")
	}
	return model.Tokens{Access: file.Access, Refresh: file.Refresh}, nil
}

func SaveTokens(tokens model.Tokens) error {
	path, err := configPath("session.json")
	if err != nil {
		return err
	}
	return writeJSON(path, tokenFile{Access: tokens.Access, Refresh: tokens.Refresh}, 0o600)
}

// ClearTokens removes the persisted tokens. Missing files are not an error.
func ClearTokens() error {
	path, err := configPath("session.json")
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func LoadRecentSearchTerms() ([]string, error) {
	path, err := configPath("search_terms.json")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var history searchHistory
	if err := json.Unmarshal(data, &history); err == nil {
		return history.Terms, nil
	}

	var legacy []string
	if err := json.Unmarshal(data, &legacy); err == nil {
		return legacy, nil
	}
	return nil, errors.New("invalid search history format")
}

// RememberSearchTerm moves term to the front of the recent list, dropping
// case-insensitive duplicates.
func RememberSearchTerm(term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	history, _ := LoadRecentSearchTerms()
	next := []string{term}
	for _, existing := range history {
		if stringsEqualFold(existing, term) || strings.TrimSpace(existing) == "" {
			continue
		}
		next = append(next, existing)
		if len(next) >= maxRecentSearchTerms {
			break
		}
	}

	path, err := configPath("search_terms.json")
	if err != nil {
		return err
	}
	return writeJSON(path, searchHistory{Terms: next}, 0o644)
}

// LoadSearchCache returns the last search snapshot and whether it is younger than ttl.
func LoadSearchCache(ttl time.Duration) (SearchSnapshot, bool, error) {
	path, err := cachePath("search.json")
	if err != nil {
		return SearchSnapshot{}, false, err
	}
	cache, err := loadCache[SearchSnapshot](path)
	if err != nil {
		return SearchSnapshot{}, false, err
	}
	if cache.UpdatedAt.IsZero() {
		return SearchSnapshot{}, false, nil
	}
	return cache.Data, time.Since(cache.UpdatedAt) <= ttl, nil
}

func SaveSearchCache(snapshot SearchSnapshot) error {
	path, err := cachePath("search.json")
	if err != nil {
		return err
	}
	return saveCache(path, snapshot)
}

func LoadGenreCache(ttl time.Duration) ([]model.Genre, bool, error) {
	path, err := cachePath("genres.json")
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Genre](path)
	if err != nil {
		return nil, false, err
	}
	if cache.UpdatedAt.IsZero() {
		return nil, false, nil
	}
	return cache.Data, time.Since(cache.UpdatedAt) <= ttl, nil
}

func SaveGenreCache(genres []model.Genre) error {
	path, err := cachePath("genres.json")
	if err != nil {
		return err
	}
	return saveCache(path, genres)
}

func loadCache[T any](path string) (cacheEnvelope[T], error) {
	var cache cacheEnvelope[T]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return cache, err
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return cache, err
	}
	return cache, nil
}

func saveCache[T any](path string, data T) error {
	cache := cacheEnvelope[T]{
		UpdatedAt: time.Now(),
		Data:      data,
	}
	return writeJSON(path, cache, 0o644)
}

func writeJSON(path string, v any, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, perm)
}

func configPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}

func cachePath(name string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}

func stringsEqualFold(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
