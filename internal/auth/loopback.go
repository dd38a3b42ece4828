package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	// DefaultCallbackTimeout bounds the wait for the browser redirect.
	DefaultCallbackTimeout = 5 * time.Minute

	// Token exchange timeout
	tokenExchangeTimeout = 30 * time.Second

	// DefaultStartPort is the first port tried for the callback server.
	DefaultStartPort = 8085

	// DefaultMaxPortAttempts is how many consecutive ports are tried.
	DefaultMaxPortAttempts = 5

	callbackPath = "/callback"
)

// Loopback authorizes with the authorization code flow and PKCE, receiving
// the redirect on a local HTTP server. A redirect carrying access_token in
// its query is accepted as well; browsers never send a URL fragment, so this
// only serves providers that echo the token in the query.
type Loopback struct {
	// Config is the provider's OAuth client. RedirectURL is overwritten.
	Config *oauth2.Config

	// AuthCodeOptions are extra parameters for the authorization URL.
	AuthCodeOptions []oauth2.AuthCodeOption

	// Open is called with the authorization URL. It should send the user
	// there; by default the URL is printed to Prompt.
	Open func(authURL string) error

	// Prompt receives the authorization URL when Open is nil.
	Prompt io.Writer

	// StartPort is the first callback port tried; zero means
	// DefaultStartPort and a negative value lets the OS pick.
	StartPort       int
	MaxPortAttempts int
	CallbackTimeout time.Duration

	Logger *slog.Logger
}

type callback struct {
	params url.Values
}

// Authorize implements Authenticator.
func (l *Loopback) Authorize(ctx context.Context) (Result, error) {
	log := l.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	listener, port, err := l.listen()
	if err != nil {
		return Result{}, fmt.Errorf("could not bind to local port for OAuth callback: %w", err)
	}
	defer listener.Close()

	oauthConfig := *l.Config
	oauthConfig.RedirectURL = fmt.Sprintf("http://localhost:%d%s", port, callbackPath)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	opts := append([]oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}, l.AuthCodeOptions...)
	authURL := oauthConfig.AuthCodeURL(state, opts...)

	// Start callback server
	cbCh := make(chan callback, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		w.Header().Set("Content-Type", "text/html")
		if params.Get("error") != "" || (params.Get("code") == "" && params.Get("access_token") == "") {
			fmt.Fprint(w, "<html><body><h1>Authentication failed</h1><p>You may close this window.</p></body></html>")
		} else {
			fmt.Fprint(w, "<html><body><h1>Authentication successful</h1><p>You may close this window.</p></body></html>")
		}
		select {
		case cbCh <- callback{params: params}:
		default:
		}
	})

	server := &http.Server{Handler: mux}
	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := l.open(authURL); err != nil {
		return Result{}, err
	}
	log.Debug("waiting for oauth redirect", "port", port)

	timeout := l.CallbackTimeout
	if timeout <= 0 {
		timeout = DefaultCallbackTimeout
	}

	// Wait for callback or timeout
	var cb callback
	select {
	case cb = <-cbCh:
	case err := <-serveErr:
		return Result{Type: ResultError}, err
	case <-time.After(timeout):
		return Result{Type: ResultDismiss}, nil
	case <-ctx.Done():
		return Result{Type: ResultCancel}, nil
	}

	res := Result{Type: ResultError, Params: cb.params}
	if cb.params.Get("state") != state {
		return res, errors.New("oauth state mismatch")
	}
	if e := cb.params.Get("error"); e != "" {
		log.Debug("oauth redirect returned error", "error", e, "description", cb.params.Get("error_description"))
		return res, nil
	}

	// Only reachable for providers that put the token in the query.
	if accessToken := cb.params.Get("access_token"); accessToken != "" {
		res.Type = ResultSuccess
		res.Token = tokenFromParams(cb.params)
		return res, nil
	}

	code := cb.params.Get("code")
	if code == "" {
		return res, nil
	}

	// Exchange code for token
	exchangeCtx, cancelExchange := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancelExchange()

	token, err := oauthConfig.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return res, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	res.Type = ResultSuccess
	res.Token = token
	return res, nil
}

func (l *Loopback) open(authURL string) error {
	if l.Open != nil {
		return l.Open(authURL)
	}
	if l.Prompt != nil {
		fmt.Fprintln(l.Prompt, "Open this URL in your browser:")
		fmt.Fprintln(l.Prompt, authURL)
	}
	return nil
}

// listen tries consecutive ports starting from StartPort.
func (l *Loopback) listen() (net.Listener, int, error) {
	start := l.StartPort
	switch {
	case start == 0:
		start = DefaultStartPort
	case start < 0:
		start = 0
	}
	attempts := l.MaxPortAttempts
	if attempts <= 0 {
		attempts = DefaultMaxPortAttempts
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		port := start
		if port != 0 {
			port += i
		}
		listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err != nil {
			lastErr = err
			continue
		}
		return listener, listener.Addr().(*net.TCPAddr).Port, nil
	}
	return nil, 0, fmt.Errorf("no available port found: %w", lastErr)
}

func tokenFromParams(params url.Values) *oauth2.Token {
	token := &oauth2.Token{
		AccessToken: params.Get("access_token"),
		TokenType:   params.Get("token_type"),
	}
	if secs, err := strconv.Atoi(params.Get("expires_in")); err == nil && secs > 0 {
		token.Expiry = time.Now().Add(time.Duration(secs) * time.Second)
	}
	return token
}
