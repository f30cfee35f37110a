// Package pdf downloads and parses PDF documents.
package pdf

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNotPDF means the response did not carry application/pdf.
	ErrNotPDF = errors.New("pdf: response is not a PDF")
	// ErrTooLarge means the body exceeded the configured size cap.
	ErrTooLarge = errors.New("pdf: file exceeds maximum size")
	// ErrDownloadFailed covers network failures and non-2xx responses.
	ErrDownloadFailed = errors.New("pdf: download failed")
	// ErrSSRF means the URL, or a redirect it led to, pointed at a
	// private or otherwise non-routable address.
	ErrSSRF = errors.New("pdf: request to private network denied")
	// ErrHostNotAllowed means the URL host is outside the allow-list.
	ErrHostNotAllowed = errors.New("pdf: host not in allow-list")
)

// DefaultAllowedHosts covers arXiv's main site and its export mirror,
// the two hosts arXiv serves PDFs from.
var DefaultAllowedHosts = []string{"arxiv.org", "export.arxiv.org"}

// DownloadResult is a fetched PDF plus its integrity metadata.
type DownloadResult struct {
	Content []byte
	// ContentHash is the hex SHA-256 of Content.
	ContentHash string
	SizeBytes   int64
	ContentType string
}

// Config tunes a Downloader. Zero values take the defaults noted on
// each field.
type Config struct {
	// Timeout bounds the whole request. Default 60s.
	Timeout time.Duration
	// MaxSize caps the body in bytes. Default 100MB.
	MaxSize int64
	// UserAgent defaults to "LitXplore/1.0".
	UserAgent string
	// AllowedHosts restricts downloads to these hosts and their
	// subdomains. Default DefaultAllowedHosts.
	AllowedHosts []string
	// AllowAnyHost turns the allow-list off. Tests only.
	AllowAnyHost bool
	// AllowPrivateNetworks turns the private-address check off. Tests
	// only.
	AllowPrivateNetworks bool
}

// Downloader fetches PDFs over HTTP with a host allow-list and
// private-network protection on the URL and every redirect target.
type Downloader struct {
	client               *http.Client
	maxSize              int64
	userAgent            string
	allowedHosts         []string
	allowAnyHost         bool
	allowPrivateNetworks bool
}

// NewDownloader builds a Downloader from cfg.
func NewDownloader(cfg Config) *Downloader {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 100 << 20
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "LitXplore/1.0"
	}
	if len(cfg.AllowedHosts) == 0 {
		cfg.AllowedHosts = DefaultAllowedHosts
	}

	d := &Downloader{
		maxSize:              cfg.MaxSize,
		userAgent:            cfg.UserAgent,
		allowedHosts:         cfg.AllowedHosts,
		allowAnyHost:         cfg.AllowAnyHost,
		allowPrivateNetworks: cfg.AllowPrivateNetworks,
	}
	d.client = &http.Client{
		Timeout: cfg.Timeout,
		// Redirect targets get the same checks as the original URL, so
		// an open redirect cannot reach an internal address.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("%w: too many redirects", ErrSSRF)
			}
			return d.validateURL(req.URL.String())
		},
	}
	return d
}

// Download fetches the PDF at url. It returns ErrHostNotAllowed or
// ErrSSRF when the URL fails validation, ErrNotPDF on a wrong
// Content-Type, ErrTooLarge past the size cap, and ErrDownloadFailed
// for transport errors and non-2xx statuses.
func (d *Downloader) Download(ctx context.Context, url string) (*DownloadResult, error) {
	if err := d.validateURL(url); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %w", ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/pdf, */*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrDownloadFailed, resp.StatusCode)
	}

	// A charset suffix on the Content-Type is fine.
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return nil, fmt.Errorf("%w: Content-Type is %q", ErrNotPDF, contentType)
	}

	// Read one byte past the cap so an oversized body is detected
	// without buffering all of it.
	content, err := io.ReadAll(io.LimitReader(resp.Body, d.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrDownloadFailed, err)
	}
	if int64(len(content)) > d.maxSize {
		return nil, fmt.Errorf("%w: exceeded %d bytes", ErrTooLarge, d.maxSize)
	}

	digest := sha256.Sum256(content)
	return &DownloadResult{
		Content:     content,
		ContentHash: hex.EncodeToString(digest[:]),
		SizeBytes:   int64(len(content)),
		ContentType: contentType,
	}, nil
}

// validateURL checks the scheme, the host allow-list, and where the
// host's addresses point.
func (d *Downloader) validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSSRF, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: scheme %q is not allowed", ErrSSRF, parsed.Scheme)
	}

	host := parsed.Hostname()
	if !d.allowAnyHost && !hostAllowed(host, d.allowedHosts) {
		return fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
	}
	if d.allowPrivateNetworks {
		return nil
	}

	addrs, err := net.LookupHost(host)
	if err != nil {
		return fmt.Errorf("%w: DNS lookup failed for %s: %w", ErrDownloadFailed, host, err)
	}
	for _, addr := range addrs {
		if ip := net.ParseIP(addr); ip != nil && nonRoutable(ip) {
			return fmt.Errorf("%w: %s resolves to private address %s", ErrSSRF, host, addr)
		}
	}
	return nil
}

// nonRoutable reports whether ip belongs to a loopback, link-local,
// private, or unspecified range, for IPv4 and IPv6 alike.
func nonRoutable(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}

// hostAllowed accepts exact matches against the allow-list and their
// subdomains, case-insensitively.
func hostAllowed(host string, allowed []string) bool {
	host = strings.ToLower(host)
	for _, entry := range allowed {
		entry = strings.ToLower(entry)
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}
