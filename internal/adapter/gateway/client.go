package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
)

const maxResponseBody = 1 << 20

// TooManyRequestsError represents rate limiting signal from the gateway.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Is lets callers treat rate limiting as a temporary outage.
func (e TooManyRequestsError) Is(target error) bool {
	return target == domainErrors.ErrGatewayUnavailable
}

// Client exposes operations of the payment gateway.
type Client interface {
	CreatePayment(ctx context.Context, req model.ChargeRequest) (*model.ChargeResult, error)
	PaymentStatus(ctx context.Context, reference string) (*model.GatewayStatus, error)
	VerifySignature(body []byte, header string) bool
	SignatureConfigured() bool
}

// HTTPClient implements Client via the gateway REST API.
type HTTPClient struct {
	baseURL    *url.URL
	apiKey     string
	secret     []byte
	httpClient *http.Client
	logger     *slog.Logger
}

type createRequest struct {
	Amount      decimal.Decimal   `json:"amount"`
	Currency    string            `json:"currency"`
	Method      string            `json:"payment_method"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	ReturnURL   string            `json:"return_url,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	CardToken   string            `json:"card_token,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// envelope mirrors the JSON wrapper of every gateway answer.
type envelope struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Code    string       `json:"code"`
	Data    *paymentData `json:"data"`
}

type paymentData struct {
	ID          string           `json:"id"`
	Reference   string           `json:"reference"`
	Status      string           `json:"status"`
	CheckoutURL string           `json:"checkout_url"`
	Amount      *decimal.Decimal `json:"amount"`
}

// NewHTTPClient creates the gateway client. Every call is bounded by timeout.
func NewHTTPClient(baseURL, apiKey, webhookSecret string, timeout time.Duration, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("gateway url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		secret:  []byte(webhookSecret),
		logger:  logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// CreatePayment opens a payment at the gateway. The reference doubles as idempotency key.
func (c *HTTPClient) CreatePayment(ctx context.Context, req model.ChargeRequest) (*model.ChargeResult, error) {
	payload, err := json.Marshal(createRequest{
		Amount:      req.Amount.Round(2),
		Currency:    req.Currency,
		Method:      req.Method,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		ReturnURL:   req.ReturnURL,
		Phone:       req.Phone,
		CardToken:   req.CardToken,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("encode payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/v1/payments"), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.Reference)

	status, body, err := c.do(httpReq, "create payment")
	if err != nil {
		return nil, err
	}

	env, decodeErr := decodeEnvelope(body)
	if status >= http.StatusBadRequest || (decodeErr == nil && strings.EqualFold(env.Status, "error")) {
		return nil, rejection(env, body, status)
	}
	if decodeErr != nil || env.Data == nil {
		return nil, &domainErrors.GatewayNetworkError{Op: "create payment", Err: fmt.Errorf("malformed response: %w", errors.Join(decodeErr, errors.New("missing data")))}
	}

	return &model.ChargeResult{
		ExternalID:  env.Data.ID,
		Reference:   firstNonEmpty(env.Data.Reference, req.Reference),
		CheckoutURL: env.Data.CheckoutURL,
		Raw:         json.RawMessage(body),
	}, nil
}

// PaymentStatus queries the gateway for an existing payment.
func (c *HTTPClient) PaymentStatus(ctx context.Context, reference string) (*model.GatewayStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/v1/payments", url.PathEscape(reference)), nil)
	if err != nil {
		return nil, err
	}

	status, body, err := c.do(httpReq, "payment status")
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusNotFound:
		return nil, domainErrors.ErrUnknownReference
	case status >= http.StatusBadRequest:
		env, _ := decodeEnvelope(body)
		return nil, rejection(env, body, status)
	}

	env, err := decodeEnvelope(body)
	if err != nil || env.Data == nil {
		return nil, &domainErrors.GatewayNetworkError{Op: "payment status", Err: fmt.Errorf("malformed response")}
	}

	return &model.GatewayStatus{
		ExternalID: env.Data.ID,
		Reference:  firstNonEmpty(env.Data.Reference, reference),
		State:      ParseState(env.Data.Status),
		Amount:     env.Data.Amount,
		Raw:        json.RawMessage(body),
	}, nil
}

// do sends req and classifies transport failures, rate limiting and 5xx answers.
func (c *HTTPClient) do(req *http.Request, op string) (int, []byte, error) {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &domainErrors.GatewayNetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return 0, nil, &domainErrors.GatewayNetworkError{Op: op, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return 0, nil, TooManyRequestsError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode >= http.StatusInternalServerError:
		c.logger.Error("gateway request failed", slog.String("op", op), slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return 0, nil, &domainErrors.GatewayNetworkError{Op: op, Err: fmt.Errorf("gateway error: %s", resp.Status)}
	}
	return resp.StatusCode, body, nil
}

func (c *HTTPClient) endpoint(parts ...string) string {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(append([]string{endpoint.Path}, parts...)...)
	return endpoint.String()
}

// ParseState maps the provider vocabulary onto GatewayState.
func ParseState(status string) model.GatewayState {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "successful", "completed", "paid":
		return model.GatewayStateSucceeded
	case "failed", "cancelled", "canceled", "declined", "rejected":
		return model.GatewayStateFailed
	case "expired":
		return model.GatewayStateExpired
	default:
		return model.GatewayStatePending
	}
}

func decodeEnvelope(body []byte) (envelope, error) {
	var env envelope
	if len(bytes.TrimSpace(body)) == 0 {
		return env, errors.New("empty body")
	}
	err := json.Unmarshal(body, &env)
	return env, err
}

func rejection(env envelope, body []byte, status int) error {
	msg := env.Message
	if msg == "" {
		msg = fmt.Sprintf("gateway responded %d", status)
	}
	var raw json.RawMessage
	if json.Valid(body) {
		raw = json.RawMessage(body)
	}
	return &domainErrors.GatewayRejectionError{Code: env.Code, Message: msg, Raw: raw}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
