package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/checkout/internal/config"
	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
)

// PaymentDetails is a validated method selection with its normalized payer data.
type PaymentDetails struct {
	Method    config.MethodPolicy
	Phone     string
	CardToken string
}

// Direct reports whether the payer confirms on the device (no redirect).
func (d PaymentDetails) Direct() bool {
	return d.Method.Kind == config.KindMobileMoney
}

// Validator enforces method, phone and amount rules from the payment policy.
type Validator struct {
	policy  *config.Policy
	methods map[string]config.MethodPolicy
	logger  *slog.Logger
}

// NewValidator indexes the policy methods.
func NewValidator(policy *config.Policy, logger *slog.Logger) *Validator {
	methods := make(map[string]config.MethodPolicy, len(policy.Methods))
	for _, m := range policy.Methods {
		methods[strings.ToLower(m.Name)] = m
	}
	return &Validator{policy: policy, methods: methods, logger: logger}
}

// Details validates the method and the data it requires.
func (v *Validator) Details(method, phone, cardToken string) (*PaymentDetails, error) {
	m, ok := v.methods[strings.ToLower(strings.TrimSpace(method))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domainErrors.ErrUnknownMethod, method)
	}

	details := &PaymentDetails{Method: m}
	switch m.Kind {
	case config.KindMobileMoney:
		normalized, err := v.NormalizePhone(m, phone)
		if err != nil {
			return nil, err
		}
		details.Phone = normalized
	case config.KindCard:
		if strings.TrimSpace(cardToken) == "" {
			return nil, domainErrors.ErrMissingCardToken
		}
		details.CardToken = strings.TrimSpace(cardToken)
	}
	return details, nil
}

// NormalizePhone converts local or international input to country code + 9 digits
// and checks the carrier prefix of the method.
func (v *Validator) NormalizePhone(m config.MethodPolicy, phone string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
	digits = strings.TrimPrefix(digits, "+")

	if digits == "" {
		return "", fmt.Errorf("%w: phone is required for %s", domainErrors.ErrInvalidPhone, m.Name)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", domainErrors.ErrInvalidPhone
		}
	}

	cc := v.policy.PhoneCountryCode
	switch {
	case strings.HasPrefix(digits, cc) && len(digits) == len(cc)+9:
	case strings.HasPrefix(digits, "0") && len(digits) == 10:
		digits = cc + digits[1:]
	case len(digits) == 9:
		digits = cc + digits
	default:
		return "", domainErrors.ErrInvalidPhone
	}

	if len(m.Prefixes) == 0 {
		return digits, nil
	}
	national := digits[len(cc):]
	for _, prefix := range m.Prefixes {
		if strings.HasPrefix(national, prefix) {
			return digits, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domainErrors.ErrCarrierMismatch, m.Name)
}

// CheckLimit rejects amounts above the method ceiling with alternatives.
func (v *Validator) CheckLimit(m config.MethodPolicy, amount decimal.Decimal) error {
	limit := decimal.NewFromFloat(m.MaxAmount)
	if amount.LessThanOrEqual(limit) {
		return nil
	}

	var suggestions []string
	for _, other := range v.policy.Methods {
		if other.Name == m.Name {
			continue
		}
		if otherLimit := decimal.NewFromFloat(other.MaxAmount); amount.LessThanOrEqual(otherLimit) {
			suggestions = append(suggestions, fmt.Sprintf("pay with %s (limit %s)", other.Name, otherLimit.StringFixed(2)))
		}
	}
	parts := amount.Div(limit).Ceil().IntPart()
	suggestions = append(suggestions, fmt.Sprintf("split into %d payments of at most %s", parts, limit.StringFixed(2)))

	return &domainErrors.MethodLimitError{Method: m.Name, Limit: limit, Amount: amount, Suggestions: suggestions}
}

// ReconcileAmount compares the client-declared total with the server total and returns
// the amount to charge.
func (v *Validator) ReconcileAmount(declared *decimal.Decimal, server decimal.Decimal) (decimal.Decimal, error) {
	server = server.Round(2)
	if declared == nil {
		return server, nil
	}
	client := declared.Round(2)
	if !client.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: declared amount must be positive", domainErrors.ErrInvalidAmount)
	}
	if client.Equal(server) {
		return server, nil
	}

	drift := client.Sub(server).Abs()
	allowed := decimal.Max(
		decimal.NewFromFloat(v.policy.AmountDriftFloor),
		server.Mul(decimal.NewFromFloat(v.policy.AmountDriftRatio)),
	)
	if drift.GreaterThan(allowed) {
		return decimal.Zero, &domainErrors.AmountMismatchError{Client: client, Server: server}
	}

	v.logger.Warn("client amount differs from server total within tolerance",
		slog.String("client", client.StringFixed(2)),
		slog.String("server", server.StringFixed(2)),
		slog.Bool("trust_client", v.policy.TrustClientAmount),
	)
	if v.policy.TrustClientAmount {
		return client, nil
	}
	return server, nil
}

// Currency returns the charge currency, rejecting anything but the configured one.
func (v *Validator) Currency(requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" || strings.EqualFold(requested, v.policy.Currency) {
		return v.policy.Currency, nil
	}
	return "", fmt.Errorf("%w: %s", domainErrors.ErrUnsupportedCurrency, requested)
}
