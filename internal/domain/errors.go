package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidAsset         = errors.New("invalid asset")
	ErrUnsupportedAssetType = errors.New("unsupported asset type")

	ErrMissingCredentials  = errors.New("missing credentials")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUnexpectedShape     = errors.New("unexpected response shape")
	ErrPriceUnavailable    = errors.New("price unavailable")
)

type ErrorKind string

const (
	KindMissingCredentials  ErrorKind = "missing_credentials"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	KindUnexpectedShape     ErrorKind = "unexpected_shape"
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindMissingCredentials:
		return ErrMissingCredentials
	case KindUpstreamUnavailable:
		return ErrUpstreamUnavailable
	default:
		return ErrUnexpectedShape
	}
}

// ProviderError is returned by every provider adapter. errors.Is matches it
// against the sentinel of its Kind as well as the wrapped cause.
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	Symbol   string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Provider, e.Symbol, e.Kind.sentinel())
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

func MissingCredentials(provider, symbol, envKey string) *ProviderError {
	return &ProviderError{Kind: KindMissingCredentials, Provider: provider, Symbol: symbol, Err: fmt.Errorf("%s is not set", envKey)}
}

func UpstreamUnavailable(provider, symbol string, err error) *ProviderError {
	return &ProviderError{Kind: KindUpstreamUnavailable, Provider: provider, Symbol: symbol, Err: err}
}

func UnexpectedShape(provider, symbol, detail string) *ProviderError {
	return &ProviderError{Kind: KindUnexpectedShape, Provider: provider, Symbol: symbol, Err: errors.New(detail)}
}

// UnavailableError reports an exhausted provider chain.
type UnavailableError struct {
	Symbol   string
	Type     AssetType
	Attempts []error
}

func (e *UnavailableError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Error())
	}
	return fmt.Sprintf("%s for %s (%s): all providers failed: %s", ErrPriceUnavailable, e.Symbol, e.Type, strings.Join(parts, "; "))
}

func (e *UnavailableError) Unwrap() []error {
	return append([]error{ErrPriceUnavailable}, e.Attempts...)
}
