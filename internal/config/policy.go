package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Method kinds.
const (
	KindMobileMoney = "mobile_money"
	KindCard        = "card"
)

// MethodPolicy describes one payment method accepted at checkout.
type MethodPolicy struct {
	Name      string   `yaml:"name"`
	Kind      string   `yaml:"kind"`
	MaxAmount float64  `yaml:"max_amount"`
	Prefixes  []string `yaml:"prefixes"`
}

// Policy holds the payment rules: timeouts, amount tolerance and method ceilings.
type Policy struct {
	Currency          string         `yaml:"currency" env:"PAYMENT_CURRENCY" env-default:"TZS"`
	PhoneCountryCode  string         `yaml:"phone_country_code" env:"PHONE_COUNTRY_CODE" env-default:"255"`
	HardTimeout       time.Duration  `yaml:"hard_timeout" env:"PAYMENT_HARD_TIMEOUT" env-default:"15m"`
	SoftTimeout       time.Duration  `yaml:"soft_timeout" env:"PAYMENT_SOFT_TIMEOUT" env-default:"3m"`
	SoftPollThreshold int            `yaml:"soft_poll_threshold" env:"PAYMENT_SOFT_POLL_THRESHOLD" env-default:"60"`
	AmountDriftRatio  float64        `yaml:"amount_drift_ratio" env:"AMOUNT_DRIFT_RATIO" env-default:"0.01"`
	AmountDriftFloor  float64        `yaml:"amount_drift_floor" env:"AMOUNT_DRIFT_FLOOR" env-default:"1"`
	TrustClientAmount bool           `yaml:"trust_client_amount" env:"TRUST_CLIENT_AMOUNT" env-default:"false"`
	CartIdleTTL       time.Duration  `yaml:"cart_idle_ttl" env:"CART_IDLE_TTL" env-default:"72h"`
	Methods           []MethodPolicy `yaml:"methods"`
}

// DefaultMethods returns the built-in method table used when the policy lists none.
func DefaultMethods() []MethodPolicy {
	return []MethodPolicy{
		{Name: "mpesa", Kind: KindMobileMoney, MaxAmount: 3_000_000, Prefixes: []string{"74", "75", "76"}},
		{Name: "tigopesa", Kind: KindMobileMoney, MaxAmount: 3_000_000, Prefixes: []string{"65", "67", "71"}},
		{Name: "airtelmoney", Kind: KindMobileMoney, MaxAmount: 3_000_000, Prefixes: []string{"68", "69", "78"}},
		{Name: "halopesa", Kind: KindMobileMoney, MaxAmount: 2_000_000, Prefixes: []string{"61", "62"}},
		{Name: "card", Kind: KindCard, MaxAmount: 20_000_000},
	}
}

// LoadPolicy reads the policy from a YAML file when path is set, otherwise from the
// environment. Both sources honour env overrides.
func LoadPolicy(path string) (*Policy, error) {
	var p Policy
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &p)
	} else {
		err = cleanenv.ReadEnv(&p)
	}
	if err != nil {
		return nil, fmt.Errorf("read payment policy: %w", err)
	}

	if len(p.Methods) == 0 {
		p.Methods = DefaultMethods()
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Policy) validate() error {
	if p.HardTimeout <= 0 || p.SoftTimeout <= 0 {
		return fmt.Errorf("payment timeouts must be positive")
	}
	if p.SoftTimeout > p.HardTimeout {
		return fmt.Errorf("soft timeout %v exceeds hard timeout %v", p.SoftTimeout, p.HardTimeout)
	}
	if p.AmountDriftRatio < 0 || p.AmountDriftFloor < 0 {
		return fmt.Errorf("amount drift tolerance must not be negative")
	}
	seen := make(map[string]struct{}, len(p.Methods))
	for _, m := range p.Methods {
		if m.Name == "" || m.MaxAmount <= 0 {
			return fmt.Errorf("payment method %q needs a name and a positive max_amount", m.Name)
		}
		if m.Kind != KindMobileMoney && m.Kind != KindCard {
			return fmt.Errorf("payment method %q has unknown kind %q", m.Name, m.Kind)
		}
		if _, dup := seen[m.Name]; dup {
			return fmt.Errorf("payment method %q declared twice", m.Name)
		}
		seen[m.Name] = struct{}{}
	}
	return nil
}
