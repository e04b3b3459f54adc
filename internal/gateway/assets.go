package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// assetHandlePrefix marks a URL that the presence service has already
// resolved into an asset handle.
const assetHandlePrefix = "mp:"

// resolveAsset turns a source artwork URL into an asset handle the presence
// service accepts. Results are cached; failures fall back to the default
// asset exactly once. isFallback marks that this call already is the
// fallback attempt, bounding the recursion to depth one.
func (c *Client) resolveAsset(ctx context.Context, sourceURL, credential string, isFallback bool) (string, error) {
	if sourceURL == "" {
		if isFallback {
			return "", fmt.Errorf("%w: default asset URL is empty", ErrAssetResolution)
		}
		return c.fallback(ctx, credential, "empty source URL")
	}

	// Already resolved, nothing to translate
	if strings.HasPrefix(sourceURL, assetHandlePrefix) {
		return sourceURL, nil
	}

	cacheKey := assetKey(sourceURL)
	if cached, ok, err := c.store.Get(ctx, cacheKey); err == nil && ok && cached != "" {
		c.metrics.IncAssetCache("hit")
		c.logger.Debug("asset cache hit", zap.String("sourceURL", sourceURL))
		return cached, nil
	}
	c.metrics.IncAssetCache("miss")

	handle, err := c.translateAsset(ctx, sourceURL, credential)
	if err != nil {
		if isFallback {
			return "", fmt.Errorf("%w: %v", ErrAssetResolution, err)
		}
		return c.fallback(ctx, credential, err.Error())
	}

	ttl := assetTTL
	if isFallback {
		ttl = fallbackAssetTTL
	}
	if err := c.store.Set(ctx, cacheKey, handle, ttl); err != nil {
		c.logger.Warn("failed to cache asset handle",
			zap.String("sourceURL", sourceURL), zap.Error(err))
	}
	return handle, nil
}

// fallback retries resolution once with the configured default asset.
func (c *Client) fallback(ctx context.Context, credential, reason string) (string, error) {
	c.logger.Debug("falling back to default asset", zap.String("reason", reason))
	c.metrics.IncAssetFallback()
	return c.resolveAsset(ctx, c.cfg.DefaultAssetURL, credential, true)
}

// translateAsset calls the presence service's asset-translation endpoint.
func (c *Client) translateAsset(ctx context.Context, sourceURL, credential string) (string, error) {
	body, err := json.Marshal(map[string][]string{"urls": {sourceURL}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal asset request: %w", err)
	}

	url := fmt.Sprintf("%s/v9/applications/%s/external-assets", c.cfg.APIBase, c.clientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build asset request: %w", err)
	}
	req.Header.Set("Authorization", credential)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("asset translation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("asset translation returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read asset response: %w", err)
	}

	var assets []struct {
		ExternalAssetPath string `json:"external_asset_path"`
	}
	if err := json.Unmarshal(data, &assets); err != nil {
		return "", fmt.Errorf("failed to parse asset response: %w", err)
	}
	if len(assets) == 0 || assets[0].ExternalAssetPath == "" {
		return "", fmt.Errorf("asset translation returned no asset path")
	}

	return assetHandlePrefix + assets[0].ExternalAssetPath, nil
}
