// Package policy decides whether a request path must be redirected to its
// canonical form.
//
// Two steps run in a fixed order: the trailing slash step, then the
// lowercase step. Both are skipped for blacklisted paths, and the lowercase
// step consults the blacklist with the path produced by the trailing slash
// step. A redirect is emitted only when the final path differs from the
// original one.
package policy

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/canonroute/canonroute/internal/blacklist"
	"github.com/canonroute/canonroute/internal/config"
	"github.com/canonroute/canonroute/internal/normalize"
)

const DefaultStatusCode = http.StatusMovedPermanently

type Step string

const (
	StepTrailingSlash Step = "trailing_slash"
	StepLowerCase     Step = "lowercase"
)

type Action string

const (
	ActionPass     Action = "pass"
	ActionRedirect Action = "redirect"
)

// Config is the resolved, process-wide canonicalization configuration.
type Config struct {
	TrailingSlash bool
	LowerCase     bool
	// StatusCode of emitted redirects; zero means DefaultStatusCode.
	StatusCode    int
	LowerCaseMode normalize.Mode
}

type RedirectDirective struct {
	StatusCode int
	Location   string
}

// Decision is the outcome of canonicalizing one URI.
type Decision struct {
	Original URI
	Final    URI
	// Steps lists the steps that changed the path, in order.
	Steps []Step
	// BlacklistRule is the pattern that exempted the path, if any.
	BlacklistRule string
	Redirect      *RedirectDirective
}

func (d Decision) Action() Action {
	if d.Redirect != nil {
		return ActionRedirect
	}
	return ActionPass
}

// Policy is immutable after New and safe for concurrent use.
type Policy struct {
	cfg       Config
	blacklist *blacklist.Matcher
}

func New(cfg Config, matcher *blacklist.Matcher) (*Policy, error) {
	if cfg.StatusCode == 0 {
		cfg.StatusCode = DefaultStatusCode
	}
	if cfg.StatusCode < 300 || cfg.StatusCode > 399 {
		return nil, fmt.Errorf("redirect status code %d is not a 3xx code", cfg.StatusCode)
	}
	if cfg.LowerCaseMode == "" {
		cfg.LowerCaseMode = normalize.ModeASCII
	}
	if _, err := normalize.ParseMode(string(cfg.LowerCaseMode)); err != nil {
		return nil, err
	}
	return &Policy{cfg: cfg, blacklist: matcher}, nil
}

// FromConfig builds a policy and its blacklist from a validated configuration.
func FromConfig(cfg *config.Config) (*Policy, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	matcher, err := blacklist.Compile(cfg.Blacklist)
	if err != nil {
		return nil, err
	}

	mode, err := normalize.ParseMode(cfg.Redirect.LowerCaseMode)
	if err != nil {
		return nil, err
	}

	pc := Config{LowerCaseMode: mode}
	if v := cfg.Redirect.Enable.TrailingSlash; v != nil {
		pc.TrailingSlash = *v
	}
	if v := cfg.Redirect.Enable.ToLowerCase; v != nil {
		pc.LowerCase = *v
	}
	if v := cfg.Redirect.StatusCode; v != nil {
		pc.StatusCode = *v
	}

	return New(pc, matcher)
}

func (p *Policy) Config() Config {
	return p.cfg
}

// Decide runs the enabled steps against u and reports whether a redirect is
// warranted.
func (p *Policy) Decide(u URI) Decision {
	d := Decision{Original: u}
	final := p.apply(u, &d)
	d.Final = final

	if final.Path() == u.Path() {
		return d
	}
	d.Redirect = &RedirectDirective{
		StatusCode: p.cfg.StatusCode,
		Location:   final.String(),
	}
	return d
}

// Canonicalize returns the canonical form of u.
func (p *Policy) Canonicalize(u URI) URI {
	return p.apply(u, nil)
}

// ResolveLink canonicalizes an outbound link so that following it never
// triggers a redirect.
func (p *Policy) ResolveLink(u URI) URI {
	return p.Canonicalize(u)
}

func (p *Policy) TrailingSlash(u URI) URI {
	out, _, _ := p.trailingSlash(u)
	return out
}

func (p *Policy) LowerCase(u URI) URI {
	out, _, _ := p.lowerCase(u)
	return out
}

func (p *Policy) apply(u URI, d *Decision) URI {
	if p.cfg.TrailingSlash {
		next, changed, rule := p.trailingSlash(u)
		u = next
		d.record(StepTrailingSlash, changed, rule)
	}
	if p.cfg.LowerCase {
		next, changed, rule := p.lowerCase(u)
		u = next
		d.record(StepLowerCase, changed, rule)
	}
	return u
}

func (d *Decision) record(step Step, changed bool, rule string) {
	if d == nil {
		return
	}
	if changed {
		d.Steps = append(d.Steps, step)
	}
	if rule != "" && d.BlacklistRule == "" {
		d.BlacklistRule = rule
	}
}

func (p *Policy) trailingSlash(u URI) (URI, bool, string) {
	path := u.Path()
	if path == "" || path[len(path)-1] == '/' {
		return u, false, ""
	}
	if normalize.HasExtension(path) {
		return u, false, ""
	}
	if rule, ok := p.blacklist.Match(path); ok {
		return u, false, rule
	}
	return p.withPath(u, normalize.AppendSlash(path))
}

func (p *Policy) lowerCase(u URI) (URI, bool, string) {
	path := u.Path()
	if rule, ok := p.blacklist.Match(path); ok {
		return u, false, rule
	}
	lowered := normalize.Lower(path, p.cfg.LowerCaseMode)
	if lowered == path {
		return u, false, ""
	}
	return p.withPath(u, lowered)
}

func (p *Policy) withPath(u URI, path string) (URI, bool, string) {
	next, err := u.WithPath(path)
	if err != nil {
		return u, false, ""
	}
	return next, true, ""
}
