package models

// FaqEntry is one knowledge-base row. Embedding is nil when the stored
// vector is absent or unparsable; such entries are excluded from matching
// but remain visible to the embedding backfill job.
type FaqEntry struct {
	ID        string    `bson:"id" json:"id"`
	Question  string    `bson:"question" json:"question"`
	Answer    string    `bson:"answer" json:"answer"`
	Embedding []float64 `bson:"-" json:"-"`
}

// SearchResult is the best knowledge-base match for a user question.
type SearchResult struct {
	Question   string
	Answer     string
	Similarity float64
}
