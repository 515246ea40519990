package model

// Chunk is one stored segment of a source document. Chunks are
// immutable after insert; the only deletion granularity is the tag.
type Chunk struct {
	ID        int64     `json:"id"`
	Point     []float64 `json:"point"`
	Text      string    `json:"text"`
	Tag       string    `json:"tag"`
	CreatedAt int64     `json:"created_at"`
}

type SearchResult struct {
	ID       int64   `json:"id"`
	Text     string  `json:"text"`
	Tag      string  `json:"tag"`
	Distance float64 `json:"distance"`
}

type StoreStats struct {
	TotalChunks int64    `json:"total_chunks"`
	Tags        []string `json:"tags"`
}
