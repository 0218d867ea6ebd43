package policy

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// URI is an immutable request URI. Transformations return new values.
type URI struct {
	u url.URL
}

func ParseURI(raw string) (URI, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return URI{}, err
	}
	return FromURL(parsed), nil
}

// FromURL copies u into a URI value.
func FromURL(u *url.URL) URI {
	if u == nil {
		return URI{}
	}
	cp := *u
	if u.User != nil {
		user := *u.User
		cp.User = &user
	}
	return URI{u: cp}
}

// RequestURI builds the absolute URI of an inbound request. The scheme is
// https when the connection is TLS, or when trustForwarded is set and the
// X-Forwarded-Proto header says so. A request without a host, such as a bare
// HTTP/1.0 request, yields a relative URI.
func RequestURI(r *http.Request, trustForwarded bool) URI {
	if r == nil || r.URL == nil {
		return URI{}
	}
	out := FromURL(r.URL)
	if out.u.Host == "" {
		out.u.Host = r.Host
	}
	if out.u.Host == "" {
		out.u.Scheme = ""
	} else if out.u.Scheme == "" {
		out.u.Scheme = requestScheme(r, trustForwarded)
	}
	out.u.Fragment = ""
	out.u.RawFragment = ""
	return out
}

func requestScheme(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		proto := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")))
		if idx := strings.IndexByte(proto, ','); idx >= 0 {
			proto = strings.TrimSpace(proto[:idx])
		}
		if proto == "http" || proto == "https" {
			return proto
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// Path returns the escaped path as it appears on the wire.
func (u URI) Path() string {
	return u.u.EscapedPath()
}

// WithPath returns a copy of u with the escaped path replaced. Scheme, host,
// query and fragment are untouched.
func (u URI) WithPath(escapedPath string) (URI, error) {
	decoded, err := url.PathUnescape(escapedPath)
	if err != nil {
		return u, fmt.Errorf("invalid path %q: %w", escapedPath, err)
	}
	out := u
	out.u.Path = decoded
	out.u.RawPath = escapedPath
	return out, nil
}

func (u URI) String() string {
	return u.u.String()
}
