package plex

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/kinorelay/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "KinoRelay/1.0"
	clientID       = "kinorelay-client"
)

// Client is a minimal Plex Media Server API client for the relay: item
// metadata, scrobbling, and the access token used in download URLs.
type Client struct {
	baseURL           string
	token             string
	machineIdentifier string // fetched from /identity on init
	httpClient        *http.Client
	logger            *slog.Logger
}

// NewClient creates a new Plex API client
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// AccessToken returns the token embedded in download URLs
func (c *Client) AccessToken() string {
	return c.token
}

// MachineIdentifier returns the identifier fetched by FetchIdentity
func (c *Client) MachineIdentifier() string {
	return c.machineIdentifier
}

// FetchIdentity fetches and stores the server's machineIdentifier
func (c *Client) FetchIdentity(ctx context.Context) error {
	body, err := c.doRequest(ctx, http.MethodGet, "/identity", nil, "application/xml")
	if err != nil {
		return err
	}

	var identity struct {
		XMLName           xml.Name `xml:"MediaContainer"`
		MachineIdentifier string   `xml:"machineIdentifier,attr"`
	}
	if err := xml.Unmarshal(body, &identity); err != nil {
		return fmt.Errorf("failed to parse identity: %w", err)
	}
	if identity.MachineIdentifier == "" {
		return fmt.Errorf("not a Plex server")
	}

	c.machineIdentifier = identity.MachineIdentifier
	return nil
}

// doRequest performs an authenticated HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, accept string) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", accept)
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("X-Plex-Client-Identifier", clientID)
	req.Header.Set("X-Plex-Product", "KinoRelay")
	req.Header.Set("X-Plex-Version", "1.0")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("plex request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("plex request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized:
		return nil, domain.ErrAuthFailed
	case http.StatusNotFound:
		return nil, domain.ErrItemNotFound
	default:
		c.logger.Error("plex request error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}

// parseResponse parses a JSON response into a MediaContainer
func (c *Client) parseResponse(body []byte) (*MediaContainer, error) {
	var resp APIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp.MediaContainer, nil
}

// GetItemMetadata returns the metadata container for a single item
func (c *Client) GetItemMetadata(ctx context.Context, itemID string) (*domain.ItemMetadata, error) {
	path := fmt.Sprintf("/library/metadata/%s", url.PathEscape(itemID))
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, "application/json")
	if err != nil {
		return nil, err
	}

	container, err := c.parseResponse(body)
	if err != nil {
		return nil, err
	}

	return MapItemMetadata(container), nil
}

// MarkPlayed marks an item as fully watched
func (c *Client) MarkPlayed(ctx context.Context, itemID string) error {
	query := url.Values{}
	query.Set("key", itemID)
	query.Set("identifier", "com.plexapp.plugins.library")

	_, err := c.doRequest(ctx, http.MethodGet, "/:/scrobble", query, "application/json")
	return err
}
