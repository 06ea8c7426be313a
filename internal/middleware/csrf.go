package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
)

const (
	// csrfTokenLength is the byte length of CSRF tokens (32 bytes = 64 hex chars).
	csrfTokenLength = 32

	// CSRFCookieName is the cookie that holds the CSRF token.
	CSRFCookieName = "bp_csrf"

	// CSRFHeaderName is the header HTMX sends the CSRF token in.
	// Configured via hx-headers in the admin layout.
	CSRFHeaderName = "X-CSRF-Token"

	// CSRFFormField is the hidden form field name for non-HTMX forms.
	CSRFFormField = "csrf_token"
)

// CSRF provides double-submit cookie protection. Issue makes sure every
// request has a token; Verify rejects state-changing requests whose header
// or form field does not match the cookie. Routes that need a softer
// failure mode (such as delete, which redirects on a bad token) use Issue
// alone together with ValidScopedCSRFToken.
type CSRF struct {
	secure bool
}

// NewCSRF creates the CSRF middleware pair. When secure is true the token
// cookie is only sent over HTTPS.
func NewCSRF(secure bool) *CSRF {
	return &CSRF{secure: secure}
}

// Issue ensures a token cookie exists and exposes the token through the
// request context.
func (c *CSRF) Issue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if cookie, err := r.Cookie(CSRFCookieName); err == nil {
			token = cookie.Value
		}
		if token == "" {
			var err error
			token, err = generateCSRFToken()
			if err != nil {
				slog.Error("csrf token generation failed", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CSRFCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: false, // JS needs to read this for HTMX hx-headers
				Secure:   c.secure,
				SameSite: http.SameSiteStrictMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfKey, token)))
	})
}

// Verify rejects POST, PUT, PATCH and DELETE requests that do not echo the
// cookie token in the X-CSRF-Token header or the csrf_token form field.
// Must be applied after Issue.
func (c *CSRF) Verify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		submitted := r.Header.Get(CSRFHeaderName)
		if submitted == "" {
			submitted = r.FormValue(CSRFFormField)
		}

		token := CSRFTokenFromCtx(r.Context())
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(submitted)) != 1 {
			http.Error(w, "CSRF token mismatch", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CSRFTokenFromCtx returns the request's base CSRF token, or "" when Issue
// did not run.
func CSRFTokenFromCtx(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey).(string)
	return token
}

// ScopedCSRFToken derives a token bound to one intention (for example
// "delete") from the request's base token. A token scoped to one intention
// is not valid for any other.
func ScopedCSRFToken(ctx context.Context, scope string) string {
	base := CSRFTokenFromCtx(ctx)
	if base == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(base))
	mac.Write([]byte(scope))
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidScopedCSRFToken reports whether token was issued for scope in the
// current request's CSRF session.
func ValidScopedCSRFToken(ctx context.Context, scope, token string) bool {
	want := ScopedCSRFToken(ctx, scope)
	if want == "" || token == "" {
		return false
	}
	return hmac.Equal([]byte(want), []byte(token))
}

// generateCSRFToken creates a cryptographically random token.
func generateCSRFToken() (string, error) {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
