// Package domain provides domain models and business logic for the LitXplore service.
package domain

import (
	"regexp"
	"strings"
	"time"
)

// PaperSource represents where a paper's content and metadata come from.
type PaperSource string

const (
	PaperSourceArXiv  PaperSource = "arxiv"
	PaperSourceUpload PaperSource = "upload"
)

// Paper is the normalized metadata shape shared by arXiv results and
// uploaded documents.
type Paper struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Authors   []string    `json:"authors"`
	Summary   string      `json:"summary"`
	Published time.Time   `json:"published"`
	URL       string      `json:"url"`
	Source    PaperSource `json:"source"`
}

// PaperIDKind discriminates the two accepted paper identifier families.
type PaperIDKind string

const (
	PaperIDArXiv  PaperIDKind = "arxiv"
	PaperIDUpload PaperIDKind = "upload"
)

// PaperID is a validated paper identifier. Kind selects which value
// field is meaningful: ArXivID for arXiv papers, UploadHash for
// uploaded documents. Construct one only through ParsePaperID so that
// no raw identifier reaches filesystem paths or outbound URLs.
type PaperID struct {
	Kind       PaperIDKind
	ArXivID    string
	UploadHash string
}

var (
	// Uploaded documents are addressed by the first 10 hex digits of
	// their content hash, prefixed with "upload_".
	uploadIDPattern = regexp.MustCompile(`^upload_([0-9a-fA-F]{10})$`)

	// arXiv identifiers: legacy "archive/NNNNNNN" or modern
	// "YYMM.NNNNN" with an optional version suffix.
	arxivIDPattern = regexp.MustCompile(`^(?:[a-z\-]+(?:\.[A-Z]{2})?/\d{7}|\d{4}\.\d{4,5}(?:v\d+)?)$`)
)

// ParsePaperID validates a raw identifier and returns its tagged form.
// Anything that matches neither grammar is rejected before any I/O
// happens on its behalf.
func ParsePaperID(raw string) (PaperID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PaperID{}, NewValidationError("paper_id", "identifier is empty")
	}

	if m := uploadIDPattern.FindStringSubmatch(trimmed); m != nil {
		return PaperID{Kind: PaperIDUpload, UploadHash: strings.ToLower(m[1])}, nil
	}

	if arxivIDPattern.MatchString(trimmed) {
		return PaperID{Kind: PaperIDArXiv, ArXivID: trimmed}, nil
	}

	return PaperID{}, NewValidationError("paper_id", "not a recognized arXiv or upload identifier")
}

// ParsePaperIDs validates a batch of raw identifiers, failing on the
// first invalid entry.
func ParsePaperIDs(raw []string) ([]PaperID, error) {
	ids := make([]PaperID, 0, len(raw))
	for _, r := range raw {
		id, err := ParsePaperID(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// String returns the canonical external form of the identifier.
func (id PaperID) String() string {
	switch id.Kind {
	case PaperIDUpload:
		return "upload_" + id.UploadHash
	case PaperIDArXiv:
		return id.ArXivID
	default:
		return ""
	}
}

// BareArXivID returns the arXiv identifier with any version suffix
// stripped, as expected by the arXiv id_list API.
func (id PaperID) BareArXivID() string {
	if id.Kind != PaperIDArXiv {
		return ""
	}
	if i := strings.LastIndex(id.ArXivID, "v"); i > 0 {
		if _, err := parseVersion(id.ArXivID[i+1:]); err == nil {
			return id.ArXivID[:i]
		}
	}
	return id.ArXivID
}

func parseVersion(s string) (int, error) {
	if s == "" {
		return 0, ErrInvalidInput
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, ErrInvalidInput
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}
