package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/chatwire/gateway/internal/gateway/config"
)

// SessionCookieName is the fixed name of the rolling session cookie.
const SessionCookieName = "session"

// sessionMaxAge is fixed at 7 days.
const sessionMaxAge = 7 * 24 * time.Hour

// Values is the signed payload carried by the session cookie.
type Values map[string]string

type sessionContextKey struct{}

// Sessions signs and verifies the rolling session cookie with a rotating
// secret pair: signing always uses the primary key, verification accepts
// either, so the secondary key can be retired without invalidating every
// live session.
type Sessions struct {
	primary   *securecookie.SecureCookie
	secondary *securecookie.SecureCookie
	secure    bool
}

// NewSessions builds the session layer from the configured key pair. The
// Secure flag is forced on unless the environment tag is the development
// sentinel.
func NewSessions(cfg *config.Config) *Sessions {
	return &Sessions{
		primary:   newCodec(cfg.SecretKeyOne),
		secondary: newCodec(cfg.SecretKeyTwo),
		secure:    !cfg.IsDevelopment(),
	}
}

func newCodec(key string) *securecookie.SecureCookie {
	codec := securecookie.New([]byte(key), nil)
	codec.MaxAge(int(sessionMaxAge.Seconds()))
	return codec
}

// Middleware decodes the session cookie if present, stashes its values in
// the request context, and re-issues the cookie so its age keeps rolling.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			var values Values
			if decodeErr := securecookie.DecodeMulti(SessionCookieName, cookie.Value, &values, s.primary, s.secondary); decodeErr == nil {
				r = r.WithContext(context.WithValue(r.Context(), sessionContextKey{}, values))
				// Rolling cookie: refresh the max-age and re-sign
				// with the primary key on every request.
				s.Issue(w, values)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Issue signs values with the primary key and sets the session cookie.
func (s *Sessions) Issue(w http.ResponseWriter, values Values) error {
	encoded, err := securecookie.EncodeMulti(SessionCookieName, values, s.primary)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionFromContext returns the decoded session values, if the request
// carried a valid session cookie.
func SessionFromContext(ctx context.Context) (Values, bool) {
	values, ok := ctx.Value(sessionContextKey{}).(Values)
	return values, ok
}
