package psp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Niiaks/paygate/internal/config"
	"github.com/Niiaks/paygate/pkg/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const DefaultBaseURL = "https://api.paystack.co"

type PaystackClient struct {
	httpClient *http.Client
	secretKey  string
	baseURL    string
	logger     *zerolog.Logger
}

func NewPaystackClient(cfg config.PaystackConfig, logger *zerolog.Logger) *PaystackClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &PaystackClient{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 50,
				IdleConnTimeout:     90 * time.Second,
				DisableKeepAlives:   false,
			},
		},
		secretKey: cfg.SecretKey,
		baseURL:   baseURL,
		logger:    logger,
	}
}

// InitializeTransaction calls POST /transaction/initialize. The amount in req
// must already be in minor units.
func (c *PaystackClient) InitializeTransaction(ctx context.Context, req *types.InitializeTransactionRequest) (*types.InitializeTransactionData, error) {
	var data types.InitializeTransactionData
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", req, &data); err != nil {
		return nil, err
	}

	if data.AuthorizationURL == "" || data.Reference == "" {
		return nil, &GatewayError{StatusCode: http.StatusOK, Message: "initialize response missing authorization_url or reference"}
	}

	return &data, nil
}

// VerifyTransaction calls GET /transaction/verify/{reference}.
func (c *PaystackClient) VerifyTransaction(ctx context.Context, reference string) (*types.PaystackTransaction, error) {
	var data types.PaystackTransaction
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data); err != nil {
		return nil, err
	}

	if data.Reference == "" || data.Status == "" {
		return nil, &GatewayError{StatusCode: http.StatusOK, Message: "verify response missing reference or status"}
	}

	return &data, nil
}

// do performs one request, checks the Paystack envelope and decodes its data into out.
func (c *PaystackClient) do(ctx context.Context, method, path string, body, out any) error {
	respBody, status, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	var envelope types.PaystackEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return newGatewayError(status, respBody)
	}

	if !envelope.Status {
		return newGatewayError(status, respBody)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		ge := newGatewayError(status, respBody)
		ge.Message = "malformed data in paystack response: " + err.Error()
		return ge
	}

	return nil
}

func (c *PaystackClient) doRequest(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	endpoint := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			c.logger.Error().Err(err).Msg("Failed to marshal request body")
			return nil, 0, errors.Wrap(err, "failed to marshal request")
		}
		reqBody = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to create HTTP request")
		return nil, 0, errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		c.logger.Error().Err(err).
			Str("method", method).
			Str("url", endpoint).
			Int64("duration_ms", duration).
			Msg("HTTP request failed")
		return nil, 0, &TransportError{Op: "request failed", Err: errors.WithStack(err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error().Err(err).
			Str("method", method).
			Str("url", endpoint).
			Int64("duration_ms", duration).
			Msg("Failed to read response body")
		return nil, resp.StatusCode, &TransportError{Op: "failed to read response", Err: errors.WithStack(err)}
	}

	if resp.StatusCode >= 300 {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("url", endpoint).
			Int64("duration_ms", duration).
			Str("body", string(respBody)).
			Msg("Paystack API error response")
		return nil, resp.StatusCode, newGatewayError(resp.StatusCode, respBody)
	}

	c.logger.Info().
		Int("status", resp.StatusCode).
		Str("method", method).
		Str("url", endpoint).
		Int64("duration_ms", duration).
		Msg("Paystack API request successful")

	return respBody, resp.StatusCode, nil
}
