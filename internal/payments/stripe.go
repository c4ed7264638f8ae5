// Package payments talks to the card processor. Orders arrive at the API
// with a payment already confirmed client-side; this client creates the
// PaymentIntent whose clientSecret the frontend needs to run that
// confirmation.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const stripeAPIBase = "https://api.stripe.com/v1"

// Intent is the subset of a PaymentIntent the checkout flow needs.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type Client struct {
	secretKey  string
	httpClient *http.Client
}

// NewClient builds a processor client. With an empty key the client runs in
// mock mode and fabricates intents locally, which is what development and
// the test suite use.
func NewClient(secretKey string) *Client {
	return &Client{
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Mock() bool {
	return c.secretKey == ""
}

// CreateIntent registers a payment of the given amount (major units) and
// returns the intent carrying the clientSecret.
func (c *Client) CreateIntent(ctx context.Context, amount float64, currency string, metadata map[string]string) (*Intent, error) {
	if c.Mock() {
		id := "pi_mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
		logrus.WithField("intent_id", id).Debug("payments: mock intent created")
		return &Intent{
			ID:           id,
			ClientSecret: id + "_secret_" + uuid.NewString()[:8],
			Status:       "requires_payment_method",
		}, nil
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(int64(math.Round(amount*100)), 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, stripeAPIBase+"/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("payments: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payments: create intent: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("payments: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, decodeError(resp.StatusCode, body)
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("payments: decode intent: %w", err)
	}
	return &intent, nil
}

// GetIntent fetches the current state of an intent, used to double-check a
// transaction id the client reports as succeeded.
func (c *Client) GetIntent(ctx context.Context, id string) (*Intent, error) {
	if c.Mock() {
		return &Intent{ID: id, Status: "succeeded"}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, stripeAPIBase+"/payment_intents/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("payments: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payments: get intent: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("payments: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, decodeError(resp.StatusCode, body)
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("payments: decode intent: %w", err)
	}
	return &intent, nil
}

func decodeError(status int, body []byte) error {
	var wrapper struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error.Message != "" {
		return fmt.Errorf("payments: processor error (%d %s): %s", status, wrapper.Error.Type, wrapper.Error.Message)
	}
	return fmt.Errorf("payments: processor returned status %d", status)
}
