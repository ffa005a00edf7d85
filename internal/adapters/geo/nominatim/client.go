package nominatim

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-recovery/internal/platform/httpclient"
)

const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Client hace reverse geocoding contra una API estilo Nominatim.
// El timeout es corto a propósito: este lookup está en el camino del
// escaneo y no puede agregar latencia ilimitada.
type Client struct {
	http *httpclient.Client
}

type Config struct {
	BaseURL string
	Timeout time.Duration // default 3s
}

func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	hc, err := httpclient.NewWithBaseURL(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc}, nil
}

func (c *Client) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	if c == nil || c.http == nil {
		return "", errors.New("nominatim: nil client")
	}

	path := fmt.Sprintf("/reverse?format=jsonv2&lat=%f&lon=%f", lat, lng)

	var out struct {
		DisplayName string `json:"display_name"`
	}
	headers := map[string]string{
		// Nominatim exige identificarse
		"User-Agent": "pet-recovery/1.0",
	}
	if err := c.http.DoJSON(ctx, http.MethodGet, path, headers, nil, &out); err != nil {
		return "", err
	}

	name := strings.TrimSpace(out.DisplayName)
	if name == "" {
		return "", errors.New("nominatim: empty display_name")
	}
	return name, nil
}
