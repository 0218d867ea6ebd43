package policy

import (
	"net/http"
	"strings"
)

// Observer receives every decision made by the middleware.
type Observer func(r *http.Request, d Decision)

type MiddlewareOptions struct {
	// TrustForwardedProto takes the redirect scheme from X-Forwarded-Proto.
	TrustForwardedProto bool
	Observer            Observer
}

// Middleware redirects requests whose path is not canonical and passes all
// other requests to next untouched.
func (p *Policy) Middleware(next http.Handler, opts MiddlewareOptions) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, ok := p.DecideRequest(r, opts.TrustForwardedProto)
		if ok && opts.Observer != nil {
			opts.Observer(r, d)
		}
		if ok && d.Redirect != nil {
			WriteRedirect(w, *d.Redirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// DecideRequest canonicalizes the request URI. It returns false for requests
// that do not carry an origin-form path, such as "OPTIONS *".
func (p *Policy) DecideRequest(r *http.Request, trustForwardedProto bool) (Decision, bool) {
	if r == nil || r.URL == nil || !strings.HasPrefix(r.URL.Path, "/") {
		return Decision{}, false
	}
	return p.Decide(RequestURI(r, trustForwardedProto)), true
}

// WriteRedirect replaces any Location header and writes the status code. The
// caller must not write to w afterwards.
func WriteRedirect(w http.ResponseWriter, directive RedirectDirective) {
	w.Header().Set("Location", directive.Location)
	w.WriteHeader(directive.StatusCode)
}
