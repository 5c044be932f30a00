package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	nameLookupTimeout = 3 * time.Second
	maxSuggestedName  = 32
)

var fallbackAdjectives = []string{
	"Brave", "Curious", "Dusty", "Gentle", "Lucky", "Quiet", "Restless", "Clever",
}

var fallbackNouns = []string{
	"Bard", "Cartographer", "Detective", "Navigator", "Scribe", "Smuggler", "Wanderer", "Oracle",
}

// nameResponse is the shape returned by the random name service.
type nameResponse struct {
	Results []struct {
		Name struct {
			FirstName string `json:"first_name"`
		} `json:"name"`
	} `json:"results"`
}

var nameClient = &http.Client{Timeout: nameLookupTimeout}

// suggestName asks the configured name service for a display name, and falls
// back to a locally generated one when none is configured or the lookup fails.
func suggestName(ctx context.Context, cfg *Config) string {
	if cfg.nameAPI == "" {
		return localName()
	}

	name, err := lookupName(ctx, cfg.nameAPI)
	if err != nil {
		logf(cfg, "GAMES: Name lookup failed, using local name: %v", err)

		return localName()
	}

	return name
}

func lookupName(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, nameLookupTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := nameClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("name service returned %s", resp.Status)
	}

	var body nameResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode name response: %w", err)
	}
	if len(body.Results) == 0 {
		return "", fmt.Errorf("name service returned no results")
	}

	name := strings.TrimSpace(body.Results[0].Name.FirstName)
	if name == "" {
		return "", fmt.Errorf("name service returned an empty name")
	}

	for utf8.RuneCountInString(name) > maxSuggestedName {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}

	return name, nil
}

func localName() string {
	return fallbackAdjectives[rand.IntN(len(fallbackAdjectives))] + " " +
		fallbackNouns[rand.IntN(len(fallbackNouns))]
}
