package auth

// Strategy verifies identity tokens issued by the external identity provider.
type Strategy interface {
	ParseToken(token string) (int64, error)
	Name() string
}

type Options struct {
	Issuer string
}
