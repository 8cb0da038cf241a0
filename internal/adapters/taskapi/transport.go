package taskapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// ErrNoToken is returned by a session token source when nobody is signed in.
var ErrNoToken = errors.New("no session token")

// Middleware decorates a RoundTripper. Stages compose with Chain.
type Middleware func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(req).
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// Chain wraps base with stages; the first stage is outermost.
func Chain(base http.RoundTripper, stages ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	rt := base
	for i := len(stages) - 1; i >= 0; i-- {
		if stages[i] != nil {
			rt = stages[i](rt)
		}
	}
	return rt
}

type (
	anonymousKey      struct{}
	noForcedLogoutKey struct{}
)

// WithoutAuth marks ctx so the request goes out without a bearer token and a 401
// answer does not force a logout. Used for /login.
func WithoutAuth(ctx context.Context) context.Context {
	return context.WithValue(WithoutForcedLogout(ctx), anonymousKey{}, true)
}

// WithoutForcedLogout keeps the bearer token but stops a 401 answer from forcing a logout.
// Used for /register, where a rejection is about the submitted form, not the session.
func WithoutForcedLogout(ctx context.Context) context.Context {
	return context.WithValue(ctx, noForcedLogoutKey{}, true)
}

func isAnonymous(ctx context.Context) bool {
	v, _ := ctx.Value(anonymousKey{}).(bool)
	return v
}

func skipsForcedLogout(ctx context.Context) bool {
	v, _ := ctx.Value(noForcedLogoutKey{}).(bool)
	return v
}

// RequestIDStage stamps every request with a fresh X-Request-ID unless one is present.
func RequestIDStage() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(RequestIDHeader) != "" {
				return next.RoundTrip(req)
			}
			r := req.Clone(req.Context())
			r.Header.Set(RequestIDHeader, uuid.NewString())
			return next.RoundTrip(r)
		})
	}
}

// TokenFunc reports the current bearer token; ok is false when signed out.
type TokenFunc func() (token string, ok bool)

type sessionTokenSource struct {
	fn TokenFunc
}

// SessionTokenSource adapts a TokenFunc to oauth2.TokenSource. It returns ErrNoToken when signed out.
// Tokens are never cached here; the session owns them.
func SessionTokenSource(fn TokenFunc) oauth2.TokenSource {
	return sessionTokenSource{fn: fn}
}

func (s sessionTokenSource) Token() (*oauth2.Token, error) {
	if s.fn == nil {
		return nil, ErrNoToken
	}
	tok, ok := s.fn()
	if !ok || tok == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

// BearerStage attaches the session token to every request via oauth2.Transport.
// Anonymous requests, and requests made while signed out, go out without a token.
func BearerStage(src oauth2.TokenSource) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if src == nil {
			return next
		}
		authed := &oauth2.Transport{Source: src, Base: next}
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if isAnonymous(req.Context()) {
				return next.RoundTrip(req)
			}
			if _, err := src.Token(); errors.Is(err, ErrNoToken) {
				return next.RoundTrip(req)
			}
			return authed.RoundTrip(req)
		})
	}
}

// RejectionHandler is told which bearer token a 401 answer rejected.
// token is empty when the request carried none.
type RejectionHandler func(ctx context.Context, token string)

// Rejections runs a RejectionHandler off the request path. Overlapping
// rejections of the same token collapse into one call, and Wait blocks until
// every started call has returned.
type Rejections struct {
	fn    RejectionHandler
	group singleflight.Group
	wg    sync.WaitGroup
}

// NewRejections returns a Rejections calling fn. A nil fn disables the stage.
func NewRejections(fn RejectionHandler) *Rejections {
	return &Rejections{fn: fn}
}

// Stage returns the middleware that watches for 401 answers.
// The response itself is passed through untouched.
func (r *Rejections) Stage() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if r == nil || r.fn == nil {
			return next
		}
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil || resp.StatusCode != http.StatusUnauthorized || skipsForcedLogout(req.Context()) {
				return resp, err
			}
			r.dispatch(context.WithoutCancel(req.Context()), bearerToken(req))
			return resp, nil
		})
	}
}

func (r *Rejections) dispatch(ctx context.Context, token string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_, _, _ = r.group.Do("rejected:"+token, func() (any, error) {
			r.fn(ctx, token)
			return nil, nil
		})
	}()
}

// Wait blocks until every dispatched handler call has returned or ctx is done.
func (r *Rejections) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UnauthorizedStage is NewRejections(fn).Stage() for callers that never wait.
func UnauthorizedStage(fn RejectionHandler) Middleware {
	return NewRejections(fn).Stage()
}

func bearerToken(req *http.Request) string {
	tok, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(tok)
}
