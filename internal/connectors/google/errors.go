package google

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// ErrForbidden indicates insufficient permissions on a file or folder.
var ErrForbidden = errors.New("google: forbidden (insufficient permissions)")

// rateLimitReasons are the 403 reasons Google uses for quota throttling.
var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"quotaExceeded":         true,
}

// IsUnauthorized returns true if the error indicates invalid credentials.
func IsUnauthorized(err error) bool {
	return statusCode(err) == http.StatusUnauthorized
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return statusCode(err) == http.StatusNotFound
}

// IsRateLimited returns true if the error indicates rate limiting, either
// as a 429 or as a 403 with a quota reason.
func IsRateLimited(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == http.StatusTooManyRequests {
		return true
	}
	if gerr.Code == http.StatusForbidden {
		for _, e := range gerr.Errors {
			if rateLimitReasons[e.Reason] {
				return true
			}
		}
	}
	return false
}

// WrapError maps a Google API error onto the domain sentinels so services
// can classify it with errors.Is. The original message is kept.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	if IsRateLimited(err) {
		return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", domain.ErrAuthInvalid, err)
		case gerr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		case gerr.Code == http.StatusNotFound:
			return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		case gerr.Code == http.StatusConflict:
			return fmt.Errorf("%w: %v", domain.ErrAlreadyExists, err)
		case gerr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %v", domain.ErrTransientIO, err)
		default:
			return err
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", domain.ErrTransientIO, err)
	}
	return err
}

func statusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}
