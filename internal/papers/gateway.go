// Package papers resolves paper identifiers to normalized metadata and
// document content, covering both arXiv papers and uploaded PDFs.
package papers

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/litxplore/litxplore/internal/domain"
	"github.com/litxplore/litxplore/internal/llm"
	"github.com/litxplore/litxplore/internal/pdf"
)

// uploadSummaryChars is how much extracted text serves as the summary
// for an uploaded paper resolved without stored metadata.
const uploadSummaryChars = 500

// ArXivClient is the arXiv lookup surface the gateway needs.
type ArXivClient interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.Paper, error)
	FetchByIDs(ctx context.Context, ids []string) ([]domain.Paper, error)
}

// UploadStore is the stored-document surface the gateway needs.
type UploadStore interface {
	Save(content []byte) (string, error)
	Read(hash string) ([]byte, error)
	Exists(hash string) bool
}

// Downloader fetches PDFs from remote URLs.
type Downloader interface {
	Download(ctx context.Context, url string) (*pdf.DownloadResult, error)
}

// Gateway is the single entry point for paper search, lookup, upload
// processing and document retrieval.
type Gateway struct {
	arxiv      ArXivClient
	store      UploadStore
	downloader Downloader
	llmClient  llm.Client
	logger     zerolog.Logger
}

// NewGateway creates a paper gateway.
func NewGateway(arxiv ArXivClient, store UploadStore, downloader Downloader, llmClient llm.Client, logger zerolog.Logger) *Gateway {
	return &Gateway{
		arxiv:      arxiv,
		store:      store,
		downloader: downloader,
		llmClient:  llmClient,
		logger:     logger.With().Str("component", "papers").Logger(),
	}
}

// Search runs an arXiv search for the query.
func (g *Gateway) Search(ctx context.Context, query string, maxResults int) ([]domain.Paper, error) {
	return g.arxiv.Search(ctx, query, maxResults)
}

// FetchByIDs resolves a batch of validated paper IDs to metadata. arXiv
// IDs go out as one id_list request with version suffixes stripped;
// upload IDs resolve against the local store. IDs that resolve to
// nothing are silently absent from the result.
func (g *Gateway) FetchByIDs(ctx context.Context, ids []domain.PaperID) ([]domain.Paper, error) {
	var arxivIDs []string
	var uploadHashes []string
	for _, id := range ids {
		switch id.Kind {
		case domain.PaperIDArXiv:
			arxivIDs = append(arxivIDs, id.BareArXivID())
		case domain.PaperIDUpload:
			uploadHashes = append(uploadHashes, id.UploadHash)
		}
	}

	papers := make([]domain.Paper, 0, len(ids))

	if len(arxivIDs) > 0 {
		fetched, err := g.arxiv.FetchByIDs(ctx, arxivIDs)
		if err != nil {
			return nil, fmt.Errorf("fetching arXiv papers: %w", err)
		}
		papers = append(papers, fetched...)
	}

	for _, hash := range uploadHashes {
		paper, err := g.uploadedPaper(hash)
		if err != nil {
			g.logger.Warn().Err(err).Str("hash", hash).Msg("skipping unresolvable upload")
			continue
		}
		papers = append(papers, paper)
	}

	return papers, nil
}

// FetchByID resolves a single paper ID.
// Returns domain.ErrNotFound when it resolves to nothing.
func (g *Gateway) FetchByID(ctx context.Context, id domain.PaperID) (*domain.Paper, error) {
	papers, err := g.FetchByIDs(ctx, []domain.PaperID{id})
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, domain.NewNotFoundError("paper", id.String())
	}
	return &papers[0], nil
}

// Content returns the PDF bytes behind a paper ID: the stored file for
// uploads, a download from arXiv otherwise.
func (g *Gateway) Content(ctx context.Context, id domain.PaperID) ([]byte, error) {
	switch id.Kind {
	case domain.PaperIDUpload:
		return g.store.Read(id.UploadHash)
	case domain.PaperIDArXiv:
		result, err := g.downloader.Download(ctx, "https://arxiv.org/pdf/"+id.BareArXivID())
		if err != nil {
			return nil, fmt.Errorf("downloading arXiv PDF: %w", err)
		}
		return result.Content, nil
	default:
		return nil, domain.NewValidationError("paper_id", "unknown identifier kind")
	}
}

// uploadedPaper rebuilds a Paper for a stored document. The metadata is
// minimal; the extracted text opening doubles as the summary.
func (g *Gateway) uploadedPaper(hash string) (domain.Paper, error) {
	content, err := g.store.Read(hash)
	if err != nil {
		return domain.Paper{}, err
	}

	summary := "No summary available."
	if text, err := pdf.ExtractPlainText(content); err == nil {
		if len(text) > uploadSummaryChars {
			text = text[:uploadSummaryChars] + "..."
		}
		summary = text
	}

	return domain.Paper{
		ID:        "upload_" + hash,
		Title:     "Uploaded Paper",
		Authors:   []string{"Unknown Author"},
		Summary:   summary,
		Published: time.Now().UTC(),
		URL:       "/uploads/" + hash + ".pdf",
		Source:    domain.PaperSourceUpload,
	}, nil
}
