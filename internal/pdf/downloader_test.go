package pdf

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// samplePDFContent simulates minimal PDF-like bytes for testing.
var samplePDFContent = []byte("%PDF-1.4 sample content for testing")

// newTestDownloader builds a downloader that accepts the loopback
// addresses httptest servers listen on.
func newTestDownloader(cfg Config) *Downloader {
	cfg.AllowAnyHost = true
	cfg.AllowPrivateNetworks = true
	return NewDownloader(cfg)
}

func writeContent(w http.ResponseWriter, content []byte) {
	_, _ = w.Write(content)
}

func TestNewDownloader_Defaults(t *testing.T) {
	t.Run("applies default values", func(t *testing.T) {
		d := NewDownloader(Config{})

		require.NotNil(t, d)
		assert.Equal(t, int64(100*1024*1024), d.maxSize)
		assert.Equal(t, "LitXplore/1.0", d.userAgent)
		assert.Equal(t, DefaultAllowedHosts, d.allowedHosts)
		assert.Equal(t, 60*time.Second, d.client.Timeout)
	})

	t.Run("uses custom config values", func(t *testing.T) {
		cfg := Config{
			Timeout:      30 * time.Second,
			MaxSize:      50 * 1024 * 1024,
			UserAgent:    "CustomAgent/2.0",
			AllowedHosts: []string{"example.org"},
		}

		d := NewDownloader(cfg)

		require.NotNil(t, d)
		assert.Equal(t, int64(50*1024*1024), d.maxSize)
		assert.Equal(t, "CustomAgent/2.0", d.userAgent)
		assert.Equal(t, []string{"example.org"}, d.allowedHosts)
		assert.Equal(t, 30*time.Second, d.client.Timeout)
	})
}

func TestHostAllowed(t *testing.T) {
	allowed := []string{"arxiv.org", "export.arxiv.org"}

	assert.True(t, hostAllowed("arxiv.org", allowed))
	assert.True(t, hostAllowed("export.arxiv.org", allowed))
	assert.True(t, hostAllowed("www.arxiv.org", allowed))
	assert.True(t, hostAllowed("ArXiv.ORG", allowed))

	assert.False(t, hostAllowed("evil-arxiv.org", allowed))
	assert.False(t, hostAllowed("arxiv.org.evil.com", allowed))
	assert.False(t, hostAllowed("example.com", allowed))
	assert.False(t, hostAllowed("127.0.0.1", allowed))
}

func TestDownload_HostNotAllowed(t *testing.T) {
	// Default allow-list, so a loopback URL is rejected before any
	// network activity.
	d := NewDownloader(Config{})

	result, err := d.Download(context.Background(), "http://127.0.0.1:59999/paper.pdf")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrHostNotAllowed)
}

func TestDownload_PrivateAddressRejected(t *testing.T) {
	d := NewDownloader(Config{AllowAnyHost: true})

	result, err := d.Download(context.Background(), "http://127.0.0.1:59999/paper.pdf")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrSSRF)
}

func TestDownload_SchemeRejected(t *testing.T) {
	d := newTestDownloader(Config{})

	result, err := d.Download(context.Background(), "file:///etc/passwd")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrSSRF)
}

func TestDownload_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		writeContent(w, samplePDFContent)
	}))
	defer server.Close()

	d := newTestDownloader(Config{})

	result, err := d.Download(context.Background(), server.URL)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, samplePDFContent, result.Content)
	assert.Equal(t, int64(len(samplePDFContent)), result.SizeBytes)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Len(t, result.ContentHash, 64) // SHA-256 produces 64 hex chars
}

func TestDownload_HashCorrectness(t *testing.T) {
	testContent := []byte("test PDF content for hash verification")
	expectedHash := sha256.Sum256(testContent)
	expectedHashHex := hex.EncodeToString(expectedHash[:])

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		writeContent(w, testContent)
	}))
	defer server.Close()

	d := newTestDownloader(Config{})

	result, err := d.Download(context.Background(), server.URL)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, expectedHashHex, result.ContentHash)
}

func TestDownload_NonPDFContentType(t *testing.T) {
	testCases := []struct {
		name        string
		contentType string
	}{
		{"text/html", "text/html"},
		{"text/plain", "text/plain"},
		{"application/json", "application/json"},
		{"empty", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.contentType != "" {
					w.Header().Set("Content-Type", tc.contentType)
				}
				w.WriteHeader(http.StatusOK)
				writeContent(w, []byte("<html>Not a PDF</html>"))
			}))
			defer server.Close()

			d := newTestDownloader(Config{})

			result, err := d.Download(context.Background(), server.URL)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrNotPDF)
			assert.Contains(t, err.Error(), "Content-Type")
		})
	}
}

func TestDownload_ContentTypeWithCharset(t *testing.T) {
	testCases := []struct {
		name        string
		contentType string
	}{
		{"with charset utf-8", "application/pdf; charset=utf-8"},
		{"uppercase", "Application/PDF"},
		{"mixed case", "Application/Pdf; Charset=UTF-8"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.contentType)
				w.WriteHeader(http.StatusOK)
				writeContent(w, samplePDFContent)
			}))
			defer server.Close()

			d := newTestDownloader(Config{})

			result, err := d.Download(context.Background(), server.URL)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, samplePDFContent, result.Content)
			assert.Equal(t, tc.contentType, result.ContentType)
		})
	}
}

func TestDownload_TooLarge(t *testing.T) {
	largeContent := make([]byte, 1024)
	for i := range largeContent {
		largeContent[i] = byte(i % 256)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		writeContent(w, largeContent)
	}))
	defer server.Close()

	d := newTestDownloader(Config{MaxSize: 512})

	result, err := d.Download(context.Background(), server.URL)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Contains(t, err.Error(), "512")
}

func TestDownload_ExactlyMaxSize(t *testing.T) {
	content := make([]byte, 512)
	for i := range content {
		content[i] = byte(i % 256)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		writeContent(w, content)
	}))
	defer server.Close()

	d := newTestDownloader(Config{MaxSize: 512})

	result, err := d.Download(context.Background(), server.URL)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(512), result.SizeBytes)
}

func TestDownload_HTTPErrorStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			writeContent(w, []byte("error body"))
		}))

		d := newTestDownloader(Config{})

		result, err := d.Download(context.Background(), server.URL)
		server.Close()

		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrDownloadFailed)
	}
}

func TestDownload_Redirect(t *testing.T) {
	finalServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		writeContent(w, samplePDFContent)
	}))
	defer finalServer.Close()

	redirectServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, finalServer.URL, http.StatusMovedPermanently)
	}))
	defer redirectServer.Close()

	d := newTestDownloader(Config{})

	result, err := d.Download(context.Background(), redirectServer.URL)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, samplePDFContent, result.Content)
	assert.Equal(t, "application/pdf", result.ContentType)
}

func TestDownload_RedirectToDisallowedHost(t *testing.T) {
	finalServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		writeContent(w, samplePDFContent)
	}))
	defer finalServer.Close()

	redirectServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, finalServer.URL, http.StatusFound)
	}))
	defer redirectServer.Close()

	// Neither server host is on the allow-list, so the request is
	// refused before the redirect is even followed.
	blocked := NewDownloader(Config{
		AllowedHosts:         []string{"arxiv.org"},
		AllowPrivateNetworks: true,
	})

	result, err := blocked.Download(context.Background(), redirectServer.URL)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrHostNotAllowed)
}

func TestDownload_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		writeContent(w, samplePDFContent)
	}))
	defer server.Close()

	d := newTestDownloader(Config{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	result, err := d.Download(ctx, server.URL)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrDownloadFailed)
}

func TestDownload_InvalidURL(t *testing.T) {
	d := newTestDownloader(Config{})

	for _, u := range []string{"", "not-a-url", "http://"} {
		result, err := d.Download(context.Background(), u)
		require.Error(t, err)
		assert.Nil(t, result)
	}
}

func TestDownload_UserAgent(t *testing.T) {
	var receivedUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		writeContent(w, samplePDFContent)
	}))
	defer server.Close()

	t.Run("default user agent", func(t *testing.T) {
		d := newTestDownloader(Config{})

		_, err := d.Download(context.Background(), server.URL)
		require.NoError(t, err)

		assert.Equal(t, "LitXplore/1.0", receivedUserAgent)
	})

	t.Run("custom user agent", func(t *testing.T) {
		d := newTestDownloader(Config{UserAgent: "CustomBot/3.0"})

		_, err := d.Download(context.Background(), server.URL)
		require.NoError(t, err)

		assert.Equal(t, "CustomBot/3.0", receivedUserAgent)
	})
}

func TestDownload_ConnectionRefused(t *testing.T) {
	d := newTestDownloader(Config{Timeout: 1 * time.Second})

	result, err := d.Download(context.Background(), "http://127.0.0.1:59999/pdf")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrDownloadFailed)
}
