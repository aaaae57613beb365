package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"syscall"
	"time"

	"healther/app/internal/models"
)

// maxBody bounds how much of a response is searched for the expected body
const maxBody = 1 << 20

// ErrBlockedTarget is returned for targets that must never be probed
var ErrBlockedTarget = errors.New("target not allowed")

var metadataHosts = map[string]bool{
	"metadata":                 true,
	"metadata.google.internal": true,
	"metadata.azure.com":       true,
	"instance-data":            true,
}

var metadataIPs = []net.IP{
	net.ParseIP("169.254.169.254"), // AWS, GCP, Azure, OpenStack
	net.ParseIP("fd00:ec2::254"),   // AWS IMDS over IPv6
	net.ParseIP("100.100.100.200"), // Alibaba Cloud
}

func isCloudMetadataIP(ip net.IP) bool {
	for _, m := range metadataIPs {
		if m.Equal(ip) {
			return true
		}
	}
	return false
}

// ValidateURLTarget rejects URLs that cannot be probed: unparsable ones,
// non-http(s) schemes, missing hosts and cloud metadata endpoints
func ValidateURLTarget(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrBlockedTarget)
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrBlockedTarget)
	}
	if metadataHosts[host] {
		return fmt.Errorf("%w: cloud metadata host", ErrBlockedTarget)
	}
	if ip := net.ParseIP(host); ip != nil && isCloudMetadataIP(ip) {
		return fmt.Errorf("%w: cloud metadata address", ErrBlockedTarget)
	}
	return nil
}

// guardDial refuses connections to metadata addresses after DNS resolution,
// which catches hostnames that resolve there
func guardDial(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	if ip := net.ParseIP(host); ip != nil && isCloudMetadataIP(ip) {
		return ErrBlockedTarget
	}
	return nil
}

// NewClient returns an HTTP client for probes with the given timeout
func NewClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: timeout, Control: guardDial}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.Proxy = nil
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			return ValidateURLTarget(req.URL.String())
		},
	}
}

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// SanitizeError strips credentials and query strings from any URL in an
// error message so tokens in watcher URLs never reach stored events
func SanitizeError(msg string) string {
	return urlPattern.ReplaceAllStringFunc(msg, func(raw string) string {
		u, err := url.Parse(raw)
		if err != nil {
			return "[url]"
		}
		return u.Scheme + "://" + u.Host + u.Path
	})
}

// Probe performs one GET against w.URL and maps the outcome onto a health
// status: request failures and unexpected status codes are down, a missing
// expected body is degraded, anything else healthy
func Probe(ctx context.Context, client *http.Client, w models.Watcher) models.ProbeResult {
	if err := ValidateURLTarget(w.URL); err != nil {
		return down(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.URL, nil)
	if err != nil {
		return down(err)
	}
	req.Header.Set("User-Agent", "healther-probe/1.0")

	t0 := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("probe error watcher=%s err=%s", w.ID, SanitizeError(err.Error()))
		return down(err)
	}
	defer resp.Body.Close()

	var body []byte
	if w.ExpectedBody != "" {
		body, _ = io.ReadAll(io.LimitReader(resp.Body, maxBody))
	} else {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	}
	elapsed := float64(time.Since(t0)) / float64(time.Millisecond)

	code := resp.StatusCode
	res := models.ProbeResult{
		Status:         models.StatusHealthy,
		ResponseStatus: &code,
		ResponseTimeMs: &elapsed,
	}

	expected := w.ExpectedStatus
	if expected == 0 {
		expected = models.DefaultExpectedStatus
	}
	switch {
	case code != expected:
		res.Status = models.StatusDown
		res.Message = "Unexpected status"
	case w.ExpectedBody != "" && !strings.Contains(string(body), w.ExpectedBody):
		res.Status = models.StatusDegraded
		res.Message = "Body mismatch"
	}
	return res
}

func down(err error) models.ProbeResult {
	return models.ProbeResult{
		Status:  models.StatusDown,
		Message: "Error: " + SanitizeError(err.Error()),
	}
}
