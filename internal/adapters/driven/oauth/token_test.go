package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

const installedCredentials = `{
  "installed": {
    "client_id": "client-123.apps.googleusercontent.com",
    "client_secret": "shh",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["urn:ietf:wg:oauth:2.0:oob", "http://localhost"]
  }
}`

type sequenceSource struct {
	tokens []*oauth2.Token
	err    error
	calls  int
}

func (s *sequenceSource) Token() (*oauth2.Token, error) {
	if s.err != nil {
		return nil, s.err
	}
	tok := s.tokens[s.calls]
	if s.calls < len(s.tokens)-1 {
		s.calls++
	}
	return tok, nil
}

func TestClientConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(installedCredentials), 0o600))

	cfg, err := ClientConfig(path, []string{"scope-a"})
	require.NoError(t, err)
	assert.Equal(t, "client-123.apps.googleusercontent.com", cfg.ClientID)
	assert.Equal(t, []string{"scope-a"}, cfg.Scopes)

	_, err = ClientConfig(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"nothing": {}}`), 0o600))
	_, err = ClientConfig(bad, nil)
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestSaveAndLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	tok := &oauth2.Token{AccessToken: "a1", RefreshToken: "r1", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour).Round(time.Second)}

	require.NoError(t, SaveToken(path, tok))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "a1", loaded.AccessToken)
	assert.Equal(t, "r1", loaded.RefreshToken)
	assert.True(t, tok.Expiry.Equal(loaded.Expiry))
}

func TestLoadToken_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadToken(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("not json"), 0o600))
	_, err = LoadToken(garbage)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("{}"), 0o600))
	_, err = LoadToken(empty)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
}

func TestTokenProvider_PersistsRefreshedToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	src := &sequenceSource{tokens: []*oauth2.Token{
		{AccessToken: "a1", RefreshToken: "r1"},
		{AccessToken: "a2", RefreshToken: "r1"},
	}}
	p := &TokenProvider{src: src, tokenFile: path, saved: "a1", ok: true}
	ctx := context.Background()

	got, err := p.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1", got)
	assert.NoFileExists(t, path)

	got, err = p.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a2", got)

	saved, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "a2", saved.AccessToken)
	assert.True(t, p.IsAuthenticated())
}

func TestTokenProvider_Errors(t *testing.T) {
	t.Run("rejected refresh", func(t *testing.T) {
		p := &TokenProvider{src: &sequenceSource{err: &oauth2.RetrieveError{ErrorCode: "invalid_grant"}}, ok: true}

		_, err := p.GetToken(context.Background())
		assert.ErrorIs(t, err, domain.ErrAuthInvalid)
		assert.False(t, p.IsAuthenticated())
	})

	t.Run("network failure", func(t *testing.T) {
		p := &TokenProvider{src: &sequenceSource{err: errors.New("dial tcp: timeout")}, ok: true}

		_, err := p.GetToken(context.Background())
		assert.ErrorIs(t, err, domain.ErrTransientIO)
		assert.True(t, p.IsAuthenticated())
	})
}

func TestNewUserTokenProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "a1", RefreshToken: "r1", Expiry: time.Now().Add(time.Hour)}))

	p, err := NewUserTokenProvider(context.Background(), &oauth2.Config{}, path)
	require.NoError(t, err)

	got, err := p.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a1", got)

	_, err = NewUserTokenProvider(context.Background(), &oauth2.Config{}, filepath.Join(t.TempDir(), "none.json"))
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestAuthorize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"a1","refresh_token":"r1","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	cfg := &oauth2.Config{
		ClientID:    "client",
		Endpoint:    oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		RedirectURL: "urn:ietf:wg:oauth:2.0:oob",
	}
	path := filepath.Join(t.TempDir(), "token.json")

	t.Run("saves token", func(t *testing.T) {
		var out strings.Builder
		require.NoError(t, Authorize(context.Background(), cfg, path, strings.NewReader("good-code\n"), &out))

		assert.Contains(t, out.String(), srv.URL+"/auth")
		assert.Contains(t, out.String(), "access_type=offline")
		tok, err := LoadToken(path)
		require.NoError(t, err)
		assert.Equal(t, "r1", tok.RefreshToken)
	})

	t.Run("rejected code", func(t *testing.T) {
		var out strings.Builder
		err := Authorize(context.Background(), cfg, path, strings.NewReader("bad-code\n"), &out)
		assert.ErrorIs(t, err, domain.ErrAuthInvalid)
	})

	t.Run("empty code", func(t *testing.T) {
		var out strings.Builder
		err := Authorize(context.Background(), cfg, path, strings.NewReader("\n"), &out)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
