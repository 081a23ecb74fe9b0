// Package oauth provides Google API credentials from files on disk: an
// OAuth client with a stored user token, or a service account key.
package oauth

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// TokenProvider implements driven.TokenProvider over an oauth2.TokenSource.
// Refreshed user tokens are written back to the token file.
type TokenProvider struct {
	src       oauth2.TokenSource
	tokenFile string

	mu    sync.Mutex
	saved string
	ok    bool
}

var _ driven.TokenProvider = (*TokenProvider)(nil)

// ClientConfig reads an OAuth client ("installed" or "web") credentials file.
func ClientConfig(credentialsFile string, scopes []string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read credentials: %v", domain.ErrAuthRequired, err)
	}
	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: parse credentials: %v", domain.ErrConfigInvalid, err)
	}
	return cfg, nil
}

// NewUserTokenProvider uses the stored user token in tokenFile, refreshing
// it through cfg as it expires.
func NewUserTokenProvider(ctx context.Context, cfg *oauth2.Config, tokenFile string) (*TokenProvider, error) {
	tok, err := LoadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	return &TokenProvider{
		src:       oauth2.ReuseTokenSource(tok, cfg.TokenSource(ctx, tok)),
		tokenFile: tokenFile,
		saved:     tok.AccessToken,
		ok:        true,
	}, nil
}

// NewServiceAccountProvider authenticates with a service account key.
func NewServiceAccountProvider(ctx context.Context, keyFile string, scopes []string) (*TokenProvider, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read service account key: %v", domain.ErrAuthRequired, err)
	}
	jwtCfg, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: parse service account key: %v", domain.ErrConfigInvalid, err)
	}
	return &TokenProvider{src: oauth2.ReuseTokenSource(nil, jwtCfg.TokenSource(ctx)), ok: true}, nil
}

// GetToken implements driven.TokenProvider.
func (p *TokenProvider) GetToken(_ context.Context) (string, error) {
	tok, err := p.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Token implements oauth2.TokenSource so the provider can be handed to
// the Google client constructors directly.
func (p *TokenProvider) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			p.ok = false
			return nil, fmt.Errorf("%w: %v", domain.ErrAuthInvalid, err)
		}
		return nil, fmt.Errorf("%w: token refresh: %v", domain.ErrTransientIO, err)
	}
	p.ok = true

	if p.tokenFile != "" && tok.AccessToken != p.saved {
		if err := SaveToken(p.tokenFile, tok); err != nil {
			logger.L().Warn("failed to persist refreshed token", zap.String("file", p.tokenFile), zap.Error(err))
		} else {
			p.saved = tok.AccessToken
			logger.L().Debug("refreshed token saved", zap.String("file", p.tokenFile))
		}
	}
	return tok, nil
}

// IsAuthenticated implements driven.TokenProvider. It turns false once a
// refresh has been rejected by the token endpoint.
func (p *TokenProvider) IsAuthenticated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ok
}

// LoadToken reads a token saved by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no token at %s, run `soapnotes auth`", domain.ErrAuthRequired, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: parse token %s: %v", domain.ErrAuthInvalid, path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token %s is empty", domain.ErrAuthInvalid, path)
	}
	return &tok, nil
}

// SaveToken writes tok to path with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return os.Rename(tmp, path)
}

// Authorize runs the out-of-band consent flow: it prints the consent URL
// to out, reads the authorisation code from in, exchanges it and saves
// the token.
func Authorize(ctx context.Context, cfg *oauth2.Config, tokenFile string, in io.Reader, out io.Writer) error {
	url := cfg.AuthCodeURL("soapnotes", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(out, "Open this URL in a browser and approve access:\n\n  %s\n\nPaste the authorisation code: ", url)

	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: empty authorisation code", domain.ErrInvalidInput)
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: exchange code: %v", domain.ErrAuthInvalid, err)
	}
	if err := SaveToken(tokenFile, tok); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved to %s\n", tokenFile)
	return nil
}
