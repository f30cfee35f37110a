package chat

import "strings"

// defaultSeparators are tried in order; the splitter prefers breaking
// on paragraph boundaries, then lines, then words, then anywhere.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter breaks text into overlapping chunks, recursively descending
// through separators so chunks end on the most natural boundary that
// still fits the size limit.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter creates a splitter. overlap must be smaller than size.
func NewSplitter(size, overlap int) *Splitter {
	return &Splitter{size: size, overlap: overlap}
}

// Split breaks text into chunks of at most the configured size, with
// consecutive chunks sharing up to the configured overlap.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.split(text, defaultSeparators)
}

func (s *Splitter) split(text string, separators []string) []string {
	if len(text) <= s.size {
		return []string{text}
	}

	sep := ""
	rest := separators
	for i, candidate := range separators {
		if candidate == "" {
			sep = ""
			rest = nil
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return s.hardSplit(text)
	}

	splits := strings.Split(text, sep)

	var chunks []string
	var pending []string
	for _, piece := range splits {
		if len(piece) <= s.size {
			pending = append(pending, piece)
			continue
		}
		chunks = append(chunks, s.merge(pending, sep)...)
		pending = nil
		chunks = append(chunks, s.split(piece, rest)...)
	}
	chunks = append(chunks, s.merge(pending, sep)...)
	return chunks
}

// merge joins consecutive small splits back together up to the size
// limit, carrying over a tail of splits within the overlap budget so
// adjacent chunks share context.
func (s *Splitter) merge(splits []string, sep string) []string {
	var chunks []string
	var window []string
	total := 0

	flush := func() {
		if len(window) == 0 {
			return
		}
		chunk := strings.TrimSpace(strings.Join(window, sep))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range splits {
		pieceLen := len(piece)
		if len(window) > 0 {
			pieceLen += len(sep)
		}
		if total+pieceLen > s.size && len(window) > 0 {
			flush()
			// Drop from the front until the retained tail fits the
			// overlap budget.
			for total > s.overlap && len(window) > 0 {
				total -= len(window[0])
				if len(window) > 1 {
					total -= len(sep)
				}
				window = window[1:]
			}
			pieceLen = len(piece)
			if len(window) > 0 {
				pieceLen += len(sep)
			}
		}
		window = append(window, piece)
		total += pieceLen
	}
	flush()
	return chunks
}

// hardSplit cuts text with no usable separator into fixed windows
// stepping by size minus overlap.
func (s *Splitter) hardSplit(text string) []string {
	step := s.size - s.overlap
	if step <= 0 {
		step = s.size
	}
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}
