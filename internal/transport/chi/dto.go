package chi

import (
	"fmt"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Request body bounds, counted in characters.
const (
	maxTitleChars         = 200
	maxURLChars           = 2048
	maxSourceChars        = 200
	maxPublishedDateChars = 30
	minTextChars          = 1
	maxTextChars          = 30000
	minMessageChars       = 2
	maxMessageChars       = 2000
	minMemoryQueryChars   = 2
	maxMemoryQueryChars   = 5000
	maxMemoryTopK         = 25
)

type ingestRequest struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Source        string   `json:"source"`
	PublishedDate string   `json:"published_date"`
	Text          string   `json:"text"`
	Tags          []string `json:"tags"`
}

func (r *ingestRequest) validate() error {
	if n := len([]rune(r.Text)); n < minTextChars || n > maxTextChars {
		return fmt.Errorf("text must be between %d and %d characters", minTextChars, maxTextChars)
	}
	if len([]rune(r.Title)) > maxTitleChars {
		return fmt.Errorf("title must be at most %d characters", maxTitleChars)
	}
	if len([]rune(r.URL)) > maxURLChars {
		return fmt.Errorf("url must be at most %d characters", maxURLChars)
	}
	if len([]rune(r.Source)) > maxSourceChars {
		return fmt.Errorf("source must be at most %d characters", maxSourceChars)
	}
	if len([]rune(r.PublishedDate)) > maxPublishedDateChars {
		return fmt.Errorf("published_date must be at most %d characters", maxPublishedDateChars)
	}
	return nil
}

func (r *ingestRequest) toDocument() domain.Document {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Document{
		Text:          r.Text,
		Title:         r.Title,
		URL:           r.URL,
		Source:        r.Source,
		PublishedDate: r.PublishedDate,
		Tags:          tags,
	}
}

type chatRequest struct {
	Message string `json:"message"`
	// Empty means auto-classification by question content.
	DetailLevel string `json:"detail_level"`
}

func (r *chatRequest) validate() error {
	if n := len([]rune(r.Message)); n < minMessageChars || n > maxMessageChars {
		return fmt.Errorf("message must be between %d and %d characters", minMessageChars, maxMessageChars)
	}
	if r.DetailLevel != "" && !domain.DetailLevel(r.DetailLevel).Valid() {
		return fmt.Errorf("detail_level must be one of basic, standard, advanced")
	}
	return nil
}

type memoryQueryRequest struct {
	Query string   `json:"query"`
	Tags  []string `json:"tags"`
	TopK  int      `json:"top_k"`
}

func (r *memoryQueryRequest) validate() error {
	if n := len([]rune(r.Query)); n < minMemoryQueryChars || n > maxMemoryQueryChars {
		return fmt.Errorf("query must be between %d and %d characters", minMemoryQueryChars, maxMemoryQueryChars)
	}
	if r.TopK < 0 || r.TopK > maxMemoryTopK {
		return fmt.Errorf("top_k must be between 1 and %d", maxMemoryTopK)
	}
	return nil
}

type memoryChunkIn struct {
	Text       string   `json:"text"`
	Title      string   `json:"title"`
	Source     string   `json:"source"`
	Tags       []string `json:"tags"`
	ChunkIndex int64    `json:"chunk_index"`
	DocPath    string   `json:"doc_path"`
}

type memoryIngestRequest struct {
	Chunks []memoryChunkIn `json:"chunks"`
}

func (r *memoryIngestRequest) validate() error {
	if len(r.Chunks) == 0 {
		return fmt.Errorf("chunks must not be empty")
	}
	for i, ch := range r.Chunks {
		if n := len([]rune(ch.Text)); n < minTextChars || n > maxTextChars {
			return fmt.Errorf("chunk %d: text must be between %d and %d characters", i, minTextChars, maxTextChars)
		}
	}
	return nil
}

func (r *memoryIngestRequest) toChunks() []domain.MemoryChunk {
	chunks := make([]domain.MemoryChunk, len(r.Chunks))
	for i, ch := range r.Chunks {
		tags := ch.Tags
		if tags == nil {
			tags = []string{}
		}
		chunks[i] = domain.MemoryChunk{
			Text:       ch.Text,
			Title:      ch.Title,
			Source:     ch.Source,
			Tags:       tags,
			ChunkIndex: ch.ChunkIndex,
			DocPath:    ch.DocPath,
		}
	}
	return chunks
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
