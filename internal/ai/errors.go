package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Provider failures are classified into sentinels inside each adapter from
// HTTP status and API error codes, so callers can branch with errors.Is
// instead of sniffing error text.
var (
	ErrUnavailable   = errors.New("ai provider unavailable")
	ErrModelNotFound = errors.New("ai model not found")
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	ErrBadRequest    = errors.New("ai provider rejected request")
)

func classifyHTTP(provider string, status int, body string) error {
	body = strings.TrimSpace(body)
	switch {
	case status == http.StatusBadRequest:
		return fmt.Errorf("%w: %s: %s", ErrBadRequest, provider, body)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s: %s", ErrModelNotFound, provider, body)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s: %s", ErrQuotaExceeded, provider, body)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s: %s", ErrUnavailable, provider, body)
	default:
		return fmt.Errorf("%s request failed: status %d: %s", provider, status, body)
	}
}
