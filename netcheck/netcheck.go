// Package netcheck answers one question before any network work starts:
// is this machine online, and can it reach a git hosting server? It
// probes a handful of well-known endpoints over HTTP and summarizes the
// outcome, with recovery recommendations when everything is unreachable.
package netcheck

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single endpoint probe.
const DefaultTimeout = 3 * time.Second

// userAgent identifies the checker to the probed endpoints.
const userAgent = "smart-repo-manager/1.0"

// Endpoint is one probed server.
type Endpoint struct {
	Name        string
	URL         string
	Description string
}

// DefaultEndpoints returns the general connectivity targets: two anycast
// DNS resolvers that answer from almost any network, plus two large
// HTTP services.
func DefaultEndpoints() []Endpoint {
	return []Endpoint{
		{Name: "Google DNS", URL: "https://8.8.8.8", Description: "Google Public DNS"},
		{Name: "Cloudflare DNS", URL: "https://1.1.1.1", Description: "Cloudflare DNS"},
		{Name: "GitHub", URL: "https://api.github.com", Description: "GitHub API endpoint"},
		{Name: "Google", URL: "https://www.google.com", Description: "Google homepage"},
	}
}

// GitEndpoints returns the hosting servers checked before a sync.
func GitEndpoints() []Endpoint {
	return []Endpoint{
		{Name: "GitHub", URL: "https://github.com"},
		{Name: "GitLab", URL: "https://gitlab.com"},
		{Name: "Bitbucket", URL: "https://bitbucket.org"},
	}
}

// offlineRecommendations is shown when no endpoint answered.
var offlineRecommendations = []string{
	"Check your internet connection",
	"Make sure your network cable is connected (if using a wired connection)",
	"Check your Wi-Fi settings (if using a wireless connection)",
	"Try restarting your router",
	"Check your firewall settings",
	"If using a VPN, make sure it's connected",
}

// Probe is the outcome of checking one endpoint. Success means the
// endpoint answered with anything below a server error; a client error
// still proves the network path works.
type Probe struct {
	Name       string
	URL        string
	Success    bool
	StatusCode int
	Duration   time.Duration
	Error      string
}

// Report summarizes one connectivity check. Online is true when at
// least one endpoint answered.
type Report struct {
	Online          bool
	Duration        time.Duration
	Probes          []Probe
	Recommendations []string
}

// Checker probes endpoints over HTTP.
type Checker struct {
	timeout      time.Duration
	endpoints    []Endpoint
	gitEndpoints []Endpoint
	client       *http.Client
}

// Option is a function that modifies a Checker.
type Option func(*Checker)

// WithTimeout sets the per-probe deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) { c.timeout = d }
}

// WithEndpoints overrides the general connectivity targets.
func WithEndpoints(eps []Endpoint) Option {
	return func(c *Checker) { c.endpoints = eps }
}

// WithGitEndpoints overrides the hosting servers checked before a sync.
func WithGitEndpoints(eps []Endpoint) Option {
	return func(c *Checker) { c.gitEndpoints = eps }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Checker) { c.client = hc }
}

// New creates a connectivity checker.
func New(opts ...Option) *Checker {
	c := &Checker{
		timeout:      DefaultTimeout,
		endpoints:    DefaultEndpoints(),
		gitEndpoints: GitEndpoints(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c
}

// Check probes every general endpoint and reports whether the machine
// is online. When everything is unreachable the report carries the
// recovery recommendations.
func (c *Checker) Check(ctx context.Context) *Report {
	start := time.Now()
	report := &Report{}

	for _, ep := range c.endpoints {
		probe := c.probeOne(ctx, ep)
		report.Probes = append(report.Probes, probe)
		if probe.Success {
			report.Online = true
		}
	}

	report.Duration = time.Since(start)
	if !report.Online {
		report.Recommendations = append(report.Recommendations, offlineRecommendations...)
	}
	return report
}

// GitConnectivity checks the hosting servers in order and stops at the
// first one that answers. The returned text names the reachable server,
// or lists every failure when none answered.
func (c *Checker) GitConnectivity(ctx context.Context) (bool, string) {
	var failures []string
	for _, ep := range c.gitEndpoints {
		probe := c.probeOne(ctx, ep)
		if probe.Success {
			return true, fmt.Sprintf("Connection to %s is working", probe.Name)
		}
		reason := probe.Error
		if reason == "" {
			reason = fmt.Sprintf("HTTP %d", probe.StatusCode)
		}
		failures = append(failures, fmt.Sprintf("%s: %s", probe.Name, reason))
	}
	return false, "Unable to connect to git servers: " + strings.Join(failures, ", ")
}

// ResolveHost checks DNS resolution for hostname and returns the
// resolved addresses.
func (c *Checker) ResolveHost(ctx context.Context, hostname string) (bool, []string) {
	resolveCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	addrs, err := net.DefaultResolver.LookupHost(resolveCtx, hostname)
	if err != nil || len(addrs) == 0 {
		return false, nil
	}
	return true, addrs
}

func (c *Checker) probeOne(ctx context.Context, ep Endpoint) Probe {
	probe := Probe{Name: ep.Name, URL: ep.URL}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.URL, nil)
	if err != nil {
		probe.Error = err.Error()
		probe.Duration = time.Since(start)
		return probe
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	probe.Duration = time.Since(start)
	if err != nil {
		probe.Error = err.Error()
		return probe
	}
	defer resp.Body.Close()

	probe.StatusCode = resp.StatusCode
	probe.Success = resp.StatusCode < http.StatusInternalServerError
	return probe
}
