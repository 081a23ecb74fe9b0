// Package oauth runs the browser side of the Google consent flow: a
// loopback callback server that receives the authorisation code.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// DefaultTimeout bounds how long Consent waits for the browser.
const DefaultTimeout = 5 * time.Minute

// CallbackServer handles OAuth redirect callbacks.
// It starts a local HTTP server to receive the authorisation code.
type CallbackServer struct {
	mu            sync.Mutex
	port          int
	expectedState string
	codeChan      chan string
	errChan       chan error
	server        *http.Server
}

// NewCallbackServer creates a callback server. Port 0 picks a free port
// on Start.
func NewCallbackServer(port int, expectedState string) *CallbackServer {
	return &CallbackServer{
		port:          port,
		expectedState: expectedState,
		codeChan:      make(chan string, 1),
		errChan:       make(chan error, 1),
	}
}

// Start listens on 127.0.0.1 and serves /callback in the background.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	srv := &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.server = srv
	// Serve returns ErrServerClosed if Stop ran first.
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.fail(err)
		}
	}()
	return nil
}

func (s *CallbackServer) fail(err error) {
	select {
	case s.errChan <- err:
	default:
	}
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "text/html")

	if errParam := q.Get("error"); errParam != "" {
		s.fail(fmt.Errorf("%w: consent refused: %s", domain.ErrAuthInvalid, errParam))
		fmt.Fprint(w, resultPage("Authorisation failed", html.EscapeString(q.Get("error_description"))))
		return
	}
	if state := q.Get("state"); state != s.expectedState {
		s.fail(fmt.Errorf("%w: state mismatch", domain.ErrAuthInvalid))
		fmt.Fprint(w, resultPage("Authorisation failed", "The request did not come from soapnotes."))
		return
	}
	code := q.Get("code")
	if code == "" {
		s.fail(fmt.Errorf("%w: no authorisation code received", domain.ErrAuthInvalid))
		fmt.Fprint(w, resultPage("Authorisation failed", "No code was received."))
		return
	}

	select {
	case s.codeChan <- code:
	default:
	}
	fmt.Fprint(w, resultPage("Authorisation complete", "You can close this window and return to the terminal."))
}

// WaitForCode blocks until a code arrives, the callback fails, ctx is
// done or timeout passes.
func (s *CallbackServer) WaitForCode(ctx context.Context, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case code := <-s.codeChan:
		return code, nil
	case err := <-s.errChan:
		return "", err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for authorisation callback: %w", ctx.Err())
	}
}

// Stop shuts the server down. It is safe to call more than once.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.server = nil
	return err
}

// Port returns the port the server is listening on.
func (s *CallbackServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// RedirectURI returns the redirect URI for this callback server.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://127.0.0.1:%d/callback", s.Port())
}

func resultPage(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>soapnotes</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 20vh;">
<h1>%s</h1>
<p>%s</p>
</body>
</html>`, title, message)
}

// OpenBrowser opens the default browser to the given URL.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// Consent runs the loopback consent flow with PKCE and returns the token.
// The consent URL is printed to out. When openBrowser is set the default
// browser is opened on it as well.
func Consent(ctx context.Context, cfg *oauth2.Config, out io.Writer, openBrowser bool) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}

	srv := NewCallbackServer(0, state)
	if err := srv.Start(); err != nil {
		return nil, err
	}
	defer func() { _ = srv.Stop() }()

	// Copy so the caller's redirect URL is left alone.
	c := *cfg
	c.RedirectURL = srv.RedirectURI()

	verifier := oauth2.GenerateVerifier()
	url := c.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce, oauth2.S256ChallengeOption(verifier))

	fmt.Fprintf(out, "Approve access in your browser:\n\n  %s\n\n", url)
	if openBrowser {
		if err := OpenBrowser(url); err != nil {
			fmt.Fprintf(out, "Could not open a browser (%v). Open the URL above manually.\n", err)
		}
	}

	code, err := srv.WaitForCode(ctx, DefaultTimeout)
	if err != nil {
		return nil, err
	}
	tok, err := c.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: exchange code: %v", domain.ErrAuthInvalid, err)
	}
	return tok, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
