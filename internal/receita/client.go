// internal/receita/client.go
package receita

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rodoaet/aet-backend/internal/config"
	"github.com/rodoaet/aet-backend/internal/utils"
)

var (
	// ErrNotFound means the registry has no record for the CNPJ. Callers
	// cache this outcome like any other, it is a stable answer.
	ErrNotFound = errors.New("CNPJ not found in registry")
	ErrInvalid  = errors.New("invalid CNPJ")
)

// Client queries the public CNPJ registry mirror for company records.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.ReceitaConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
		},
	}
}

// Lookup fetches the registry record for a CNPJ. The input may carry
// formatting punctuation; it is stripped and check-digit validated before
// the request goes out.
func (c *Client) Lookup(ctx context.Context, cnpj string) (*Company, error) {
	digits := utils.OnlyDigits(cnpj)
	if !utils.ValidCNPJ(digits) {
		return nil, ErrInvalid
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+digits, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var record companyResponse
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to decode registry response: %w", err)
	}
	return record.toCompany(), nil
}
