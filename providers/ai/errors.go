package ai

import "fmt"

// APIError reports a non-2xx provider response or an in-band error object.
// Payload carries the provider's raw error body for user-facing diagnostics.
type APIError struct {
	Provider   string
	StatusCode int
	Payload    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Payload)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Payload)
}

// NetworkError reports a request that could not complete at the transport
// level (DNS, TLS, connection reset, retry budget exhausted). Host names the
// failing origin so callers can render remediation hints ("check your proxy
// to <host>").
type NetworkError struct {
	Host string
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error reaching %s: %v", e.Host, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UnsupportedCapabilityError is raised before any network call when the
// selected provider does not support an operation the caller asked for.
type UnsupportedCapabilityError struct {
	Provider   string
	Capability string // "tool_use", "vision", "paint"
}

func (e *UnsupportedCapabilityError) Error() string {
	return fmt.Sprintf("provider %s does not support %s", e.Provider, e.Capability)
}

// QuotaExhaustedError is the hosted aggregator's monthly-cap response,
// distinguished from a generic APIError so the UI can show an upgrade prompt.
type QuotaExhaustedError struct {
	Provider string
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("provider %s: monthly usage quota exhausted", e.Provider)
}
