package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cross-site-rewards/internal/model"
	apperrors "cross-site-rewards/pkg/errors"
	"cross-site-rewards/pkg/metrics"
)

// SecretHeader carries the shared secret on every cross-site call
const SecretHeader = "X-XSR-Secret"

// APINamespace is the path prefix of the receiver endpoints
const APINamespace = "/xsr/v1"

// maxBody caps how much of a peer response is read
const maxBody = 1 << 20

// ReceiverClient calls the coupon API of the receiver site
type ReceiverClient struct {
	baseURL         string
	secret          string
	listTimeout     time.Duration
	generateTimeout time.Duration
	client          *http.Client
	metrics         *metrics.Metrics
}

func NewReceiverClient(baseURL, secret string, listTimeout, generateTimeout time.Duration) *ReceiverClient {
	return &ReceiverClient{
		baseURL:         strings.TrimRight(baseURL, "/"),
		secret:          secret,
		listTimeout:     listTimeout,
		generateTimeout: generateTimeout,
		client:          &http.Client{},
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (c *ReceiverClient) WithHTTPClient(hc *http.Client) *ReceiverClient {
	c.client = hc
	return c
}

// WithMetrics counts every outbound call by endpoint and result.
func (c *ReceiverClient) WithMetrics(m *metrics.Metrics) *ReceiverClient {
	c.metrics = m
	return c
}

// Configured reports whether remote URL and secret are both present.
func (c *ReceiverClient) Configured() bool {
	return c.baseURL != "" && c.secret != ""
}

// ListProducts fetches the receiver's claimable products.
func (c *ReceiverClient) ListProducts(ctx context.Context) ([]model.RemoteProduct, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listTimeout)
	defer cancel()

	var products []model.RemoteProduct
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GenerateCoupon asks the receiver to mint a coupon for rewardProductID.
// orderID only travels along as a reference for the receiver's logs.
func (c *ReceiverClient) GenerateCoupon(ctx context.Context, rewardProductID, orderID int64) (*model.GenerateCouponResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	body, err := json.Marshal(model.GenerateCouponRequest{
		RewardProductID: model.FlexibleID(rewardProductID),
		OrderID:         model.FlexibleID(orderID),
	})
	if err != nil {
		return nil, err
	}

	var out model.GenerateCouponResponse
	if err := c.do(ctx, http.MethodPost, "/generate", body, &out); err != nil {
		return nil, err
	}
	if out.Code == "" || out.ClaimURL == "" {
		return &out, fmt.Errorf("%w: response without code or claim_url", apperrors.ErrRemoteUnavailable)
	}
	return &out, nil
}

func (c *ReceiverClient) do(ctx context.Context, method, path string, body []byte, out interface{}) (err error) {
	if c.metrics != nil {
		defer func() {
			result := "success"
			if err != nil {
				result = "failure"
			}
			c.metrics.RemoteRequests.WithLabelValues(path, result).Inc()
		}()
	}
	if !c.Configured() {
		return fmt.Errorf("%w: remote url or secret missing", apperrors.ErrNotConfigured)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+APINamespace+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrRemoteUnavailable, err)
	}
	req.Header.Set(SecretHeader, c.secret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", apperrors.ErrRemoteUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: malformed response: %v", apperrors.ErrRemoteUnavailable, err)
	}
	return nil
}

func remoteError(status int, raw []byte) error {
	var envelope model.ErrorResponse
	_ = json.Unmarshal(raw, &envelope)

	kind := apperrors.ErrRemoteUnavailable
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = apperrors.ErrAuthentication
	case http.StatusBadRequest:
		kind = apperrors.ErrInvalidRequest
	}
	return &apperrors.RemoteError{Status: status, Code: envelope.Error, Err: kind}
}
