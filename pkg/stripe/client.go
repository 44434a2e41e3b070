// Package stripe configures the Stripe SDK for the platform account and
// holds the webhook signing secret used to verify inbound events.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/platebite/platebite-backend/pkg/config"
	"github.com/platebite/platebite-backend/pkg/logger"
)

var (
	errAPIKeyRequired = errors.New("stripe api key is required")
	errSecretRequired = errors.New("stripe webhook signing secret is required")
)

// Client carries the per-process Stripe settings. API calls go through the
// SDK's package-level functions, so the secret key is set globally once at
// startup.
type Client struct {
	live          bool
	signingSecret string
}

// NewClient validates the configured key against the requested mode and sets
// it on the SDK. A test key in live mode (or the reverse) fails fast here
// rather than at the first charge.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	signingSecret := strings.TrimSpace(cfg.Secret)
	if signingSecret == "" {
		return nil, errSecretRequired
	}

	live, err := isLive(cfg.Environment())
	if err != nil {
		return nil, err
	}
	wantPrefix := "sk_test"
	if live {
		wantPrefix = "sk_live"
	}
	if !strings.HasPrefix(apiKey, wantPrefix) {
		return nil, fmt.Errorf("stripe %s mode requires a %s key", cfg.Environment(), wantPrefix)
	}

	stripe.Key = apiKey

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"live": live}), "stripe client initialized")
	}

	return &Client{live: live, signingSecret: signingSecret}, nil
}

// Live reports whether the client points at the live Stripe environment.
func (c *Client) Live() bool {
	if c == nil {
		return false
	}
	return c.live
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

func isLive(env string) (bool, error) {
	switch env {
	case "test":
		return false, nil
	case "live":
		return true, nil
	default:
		return false, fmt.Errorf("stripe environment must be %q or %q, got %q", "test", "live", env)
	}
}
