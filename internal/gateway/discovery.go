package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// discoverGatewayURL asks the presence service's REST API for the current
// real-time gateway endpoint.
func (c *Client) discoverGatewayURL(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBase+"/gateway", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build gateway discovery request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway discovery request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway discovery returned HTTP %d", resp.StatusCode)
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to parse gateway discovery response: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("gateway discovery response carries no URL")
	}
	return result.URL, nil
}
