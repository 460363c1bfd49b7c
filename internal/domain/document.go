package domain

// Document is one ingestable article: the text that gets embedded plus the
// scalar metadata stored alongside the vector.
type Document struct {
	Text          string
	Title         string
	URL           string
	Source        string
	PublishedDate string
	Tags          []string
}

// SearchHit is a raw nearest-neighbour hit as the store returns it. Tags stay
// a JSON string here; normalization happens in the retrieval usecase.
type SearchHit struct {
	Text          string
	Title         string
	URL           string
	Source        string
	PublishedDate string
	TagsJSON      string
	Score         float32
}

// SourceRecord is a normalized retrieval hit ready for prompt assembly and
// API responses.
type SourceRecord struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Source        string   `json:"source"`
	PublishedDate string   `json:"published_date"`
	Tags          []string `json:"tags"`
	Distance      float32  `json:"distance"`
	Snippet       string   `json:"snippet"`
}

// MemoryHit is a raw hit from the security-memory corpus.
type MemoryHit struct {
	Text       string
	Title      string
	Source     string
	DocPath    string
	ChunkIndex int64
	TagsJSON   string
	Score      float32
}

// MemoryChunk is a normalized security-memory hit.
type MemoryChunk struct {
	Score      float32  `json:"score"`
	Title      string   `json:"title"`
	Source     string   `json:"source"`
	Tags       []string `json:"tags"`
	Text       string   `json:"text"`
	ChunkIndex int64    `json:"chunk_index"`
	DocPath    string   `json:"doc_path"`
}

// DetailLevel is the answer verbosity tier chosen for a question.
type DetailLevel string

const (
	DetailBasic    DetailLevel = "basic"
	DetailStandard DetailLevel = "standard"
	DetailAdvanced DetailLevel = "advanced"
)

// Valid reports whether l is one of the three known tiers.
func (l DetailLevel) Valid() bool {
	switch l {
	case DetailBasic, DetailStandard, DetailAdvanced:
		return true
	}
	return false
}
