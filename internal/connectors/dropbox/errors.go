package dropbox

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// WrapError maps a Dropbox API error onto the domain sentinels. The SDK
// reports endpoint errors through their error summary, for example
// "path/not_found/.." or "to/conflict/file/..".
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	summary := err.Error()
	switch {
	case strings.Contains(summary, "not_found"):
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	case strings.Contains(summary, "conflict"):
		return fmt.Errorf("%w: %v", domain.ErrAlreadyExists, err)
	case strings.Contains(summary, "too_many_requests"), strings.Contains(summary, "too_many_write_operations"):
		return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	case strings.Contains(summary, "invalid_access_token"), strings.Contains(summary, "expired_access_token"):
		return fmt.Errorf("%w: %v", domain.ErrAuthInvalid, err)
	case strings.Contains(summary, "internal_server_error"):
		return fmt.Errorf("%w: %v", domain.ErrTransientIO, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", domain.ErrTransientIO, err)
	}
	return err
}
