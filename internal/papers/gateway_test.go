package papers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litxplore/litxplore/internal/domain"
	"github.com/litxplore/litxplore/internal/llm"
	"github.com/litxplore/litxplore/internal/pdf"
	"github.com/litxplore/litxplore/internal/uploads"
)

// buildPDF assembles an uncompressed one-page PDF showing the given
// text, tracking object offsets so the xref table stays consistent.
func buildPDF(t *testing.T, text string) []byte {
	t.Helper()

	var buf bytes.Buffer
	offsets := make([]int, 0, 6)

	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")

	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)

	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	writeObj("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
		"/Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>\nendobj\n")
	writeObj(fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
		len(content), content))
	writeObj("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica " +
		"/Encoding /WinAnsiEncoding >>\nendobj\n")

	xrefOffset := buf.Len()
	buf.WriteString(fmt.Sprintf("xref\n0 %d\n", len(offsets)+1))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}
	buf.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefOffset))

	return buf.Bytes()
}

type fakeArXiv struct {
	searchResult []domain.Paper
	searchErr    error
	fetchResult  []domain.Paper
	fetchErr     error
	lastQuery    string
	lastIDs      []string
}

func (f *fakeArXiv) Search(ctx context.Context, query string, maxResults int) ([]domain.Paper, error) {
	f.lastQuery = query
	return f.searchResult, f.searchErr
}

func (f *fakeArXiv) FetchByIDs(ctx context.Context, ids []string) ([]domain.Paper, error) {
	f.lastIDs = ids
	return f.fetchResult, f.fetchErr
}

type fakeDownloader struct {
	result  *pdf.DownloadResult
	err     error
	lastURL string
}

func (f *fakeDownloader) Download(ctx context.Context, url string) (*pdf.DownloadResult, error) {
	f.lastURL = url
	return f.result, f.err
}

type fakeLLM struct {
	response string
	err      error
	lastReq  llm.Request
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.lastReq = req
	return f.response, f.err
}

func (f *fakeLLM) Provider() string { return "fake" }
func (f *fakeLLM) Model() string    { return "fake-model" }

func newTestGateway(t *testing.T, arxiv *fakeArXiv, dl *fakeDownloader, client llm.Client) (*Gateway, *uploads.Store) {
	t.Helper()
	store, err := uploads.NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return NewGateway(arxiv, store, dl, client, zerolog.Nop()), store
}

func TestGateway_Search(t *testing.T) {
	arxiv := &fakeArXiv{searchResult: []domain.Paper{{ID: "2301.12345", Title: "A Paper"}}}
	g, _ := newTestGateway(t, arxiv, nil, nil)

	papers, err := g.Search(context.Background(), "transformers", 10)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, "transformers", arxiv.lastQuery)
}

func TestGateway_FetchByIDs_Partitioning(t *testing.T) {
	arxiv := &fakeArXiv{fetchResult: []domain.Paper{{ID: "2301.12345", Title: "ArXiv Paper", Source: domain.PaperSourceArXiv}}}
	g, store := newTestGateway(t, arxiv, nil, nil)

	doc := buildPDF(t, "Uploaded document body text for the summary")
	hash, err := store.Save(doc)
	require.NoError(t, err)

	ids, err := domain.ParsePaperIDs([]string{"2301.12345v2", "upload_" + hash})
	require.NoError(t, err)

	papers, err := g.FetchByIDs(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, papers, 2)

	// Version suffix is stripped before the id_list call.
	assert.Equal(t, []string{"2301.12345"}, arxiv.lastIDs)

	assert.Equal(t, "ArXiv Paper", papers[0].Title)
	assert.Equal(t, "upload_"+hash, papers[1].ID)
	assert.Equal(t, domain.PaperSourceUpload, papers[1].Source)
	assert.Contains(t, papers[1].Summary, "Uploaded document")
}

func TestGateway_FetchByIDs_MissingUploadSkipped(t *testing.T) {
	arxiv := &fakeArXiv{}
	g, _ := newTestGateway(t, arxiv, nil, nil)

	ids, err := domain.ParsePaperIDs([]string{"upload_deadbeef00"})
	require.NoError(t, err)

	papers, err := g.FetchByIDs(context.Background(), ids)
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestGateway_FetchByIDs_ArXivErrorPropagates(t *testing.T) {
	arxiv := &fakeArXiv{fetchErr: errors.New("api down")}
	g, _ := newTestGateway(t, arxiv, nil, nil)

	ids, err := domain.ParsePaperIDs([]string{"2301.12345"})
	require.NoError(t, err)

	_, err = g.FetchByIDs(context.Background(), ids)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api down")
}

func TestGateway_FetchByID_NotFound(t *testing.T) {
	arxiv := &fakeArXiv{}
	g, _ := newTestGateway(t, arxiv, nil, nil)

	id, err := domain.ParsePaperID("2301.99999")
	require.NoError(t, err)

	_, err = g.FetchByID(context.Background(), id)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGateway_Content_Upload(t *testing.T) {
	g, store := newTestGateway(t, &fakeArXiv{}, nil, nil)

	doc := buildPDF(t, "content bytes")
	hash, err := store.Save(doc)
	require.NoError(t, err)

	id, err := domain.ParsePaperID("upload_" + hash)
	require.NoError(t, err)

	content, err := g.Content(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, doc, content)
}

func TestGateway_Content_ArXivDownload(t *testing.T) {
	doc := buildPDF(t, "remote")
	dl := &fakeDownloader{result: &pdf.DownloadResult{Content: doc}}
	g, _ := newTestGateway(t, &fakeArXiv{}, dl, nil)

	id, err := domain.ParsePaperID("2301.12345v3")
	require.NoError(t, err)

	content, err := g.Content(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, doc, content)
	assert.Equal(t, "https://arxiv.org/pdf/2301.12345", dl.lastURL)
}

func TestGateway_Content_MissingUpload(t *testing.T) {
	g, _ := newTestGateway(t, &fakeArXiv{}, nil, nil)

	id, err := domain.ParsePaperID("upload_deadbeef00")
	require.NoError(t, err)

	_, err = g.Content(context.Background(), id)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
