package insights

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"coinpal/internal/apperr"
	"coinpal/internal/backend"
	"coinpal/internal/models"
)

type JSONGetter interface {
	GetJSON(ctx context.Context, path string, out interface{}) error
}

// Client reads portfolio insights from the insights service.
type Client struct {
	backend JSONGetter
}

func NewClient(backend JSONGetter) *Client {
	return &Client{backend: backend}
}

func insightsPath(address string) string {
	return "/api/v1/portfolio/" + url.PathEscape(address) + "/insights"
}

func (c *Client) Fetch(ctx context.Context, address string) (*models.PortfolioInsights, error) {
	if address == "" {
		return nil, apperr.Wrap(apperr.InputMissing, errors.New("wallet address is empty"))
	}
	var out models.PortfolioInsights
	if err := c.backend.GetJSON(ctx, insightsPath(address), &out); err != nil {
		return nil, fmt.Errorf("fetch insights for %s: %w", address, err)
	}
	return &out, nil
}

// ErrorMessage returns the text shown to the user for a failed fetch: the
// service's detail or error field when present.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *backend.StatusError
	if errors.As(err, &se) {
		if detail := se.Detail(); detail != "" {
			return detail
		}
		return fmt.Sprintf("HTTP error! Status: %d", se.StatusCode)
	}
	return err.Error()
}
