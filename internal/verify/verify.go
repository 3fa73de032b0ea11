// Package verify defines the national-ID registry collaborator used to
// confirm an applicant's identity before registration proceeds.
package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Result is the registry's answer for an ID number.
type Result struct {
	Matched   bool   `json:"matched"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Verifier checks an ID number against the identity registry. A negative
// match is not an error; errors are transport failures.
type Verifier interface {
	VerifyNationalID(ctx context.Context, idNumber string) (Result, error)
}

// RegistryClient is a thin HTTP client for the registry lookup service.
type RegistryClient struct {
	url    string
	apiKey string
	http   *http.Client
}

func NewRegistryClient(url, apiKey string) *RegistryClient {
	return &RegistryClient{url: url, apiKey: apiKey, http: &http.Client{Timeout: 15 * time.Second}}
}

func (c *RegistryClient) VerifyNationalID(ctx context.Context, idNumber string) (Result, error) {
	body, err := json.Marshal(map[string]string{"idNumber": idNumber})
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("registry lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("registry lookup: status %d", resp.StatusCode)
	}
	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("registry lookup: %w", err)
	}
	return out, nil
}

// StubVerifier matches every syntactically valid ID number. Used in dev and
// test deployments where no registry endpoint is configured.
type StubVerifier struct{}

func (StubVerifier) VerifyNationalID(ctx context.Context, idNumber string) (Result, error) {
	return Result{Matched: true}, nil
}
