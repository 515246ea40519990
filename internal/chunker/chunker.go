package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "github.com/chengAMS/hyperdoc/internal/pkg/errors"
)

// Separators are tried coarsest first; a segment that still exceeds
// the chunk size is re-split with the next finer separator, down to
// individual characters.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Chunks whose trimmed length is at or below this are noise
// (stray headings, page numbers) and are dropped after splitting.
const minChunkLen = 10

type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk_size must be > 0, got %d", apperrors.ErrConfig, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d", apperrors.ErrConfig, overlap)
	}
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}, nil
}

func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

func (s *Splitter) Overlap() int {
	return s.overlap
}

// Split breaks text into chunks of at most chunkSize characters where
// consecutive chunks share the trailing overlap characters of the
// previous one, subject to segment boundaries.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pieces := s.splitText(text, s.separators)
	chunks := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if utf8.RuneCountInString(strings.TrimSpace(piece)) > minChunkLen {
			chunks = append(chunks, piece)
		}
	}
	return chunks
}

func (s *Splitter) splitText(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	for _, cand := range separators {
		if cand == "" || strings.Contains(text, cand) {
			sep = cand
			break
		}
	}

	var splits []string
	if sep == "" {
		splits = strings.Split(text, "")
	} else {
		splits = strings.Split(text, sep)
	}

	var final []string
	var good []string
	for _, piece := range splits {
		if length(piece) < s.chunkSize || (sep == "" && length(piece) <= 1) {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good, sep)...)
			good = nil
		}
		// Oversized segment: the chosen separator no longer occurs
		// inside it, so re-splitting restarts at the next finer one.
		final = append(final, s.splitText(piece, separators)...)
	}
	if len(good) > 0 {
		final = append(final, s.merge(good, sep)...)
	}
	return final
}

// merge greedily packs adjacent segments up to chunkSize, then pops
// leading segments until at most overlap characters remain so the
// next chunk starts with the shared context.
func (s *Splitter) merge(splits []string, sep string) []string {
	sepLen := length(sep)
	var docs []string
	var current []string
	total := 0
	for _, piece := range splits {
		pieceLen := length(piece)
		extra := 0
		if len(current) > 0 {
			extra = sepLen
		}
		if total+pieceLen+extra > s.chunkSize && len(current) > 0 {
			if doc := joinSegments(current, sep); doc != "" {
				docs = append(docs, doc)
			}
			for total > s.overlap || (total+pieceLen+currentExtra(current, sepLen) > s.chunkSize && total > 0) {
				drop := length(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += pieceLen
		if len(current) > 1 {
			total += sepLen
		}
	}
	if doc := joinSegments(current, sep); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func currentExtra(current []string, sepLen int) int {
	if len(current) > 0 {
		return sepLen
	}
	return 0
}

func joinSegments(segments []string, sep string) string {
	return strings.TrimSpace(strings.Join(segments, sep))
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
