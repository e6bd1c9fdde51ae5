// Package tfidx implements the sharded, cluster-aware TF-IDF inverted
// index: ingest, CRUD, and scored query with configurable
// BM25 / small-document-penalty / coordination-boost adjustments.
// Create takes the whole document text as one string; there is no
// stream-reading ingest path.
package tfidx

import "time"

// WordPosting is the per-term record: the set of local docids containing
// the term and their raw occurrence counts. Insertion order is
// irrelevant; docs has set semantics over its keys.
type WordPosting struct {
	Word string         `json:"word"`
	Docs map[string]int `json:"docs"`
}

// TfIdfDocument is the local record for one ingested document.
type TfIdfDocument struct {
	Metadata     map[string]string `json:"metadata"`
	Length       int               `json:"length"`
	DateCreated  time.Time         `json:"date_created"`
	DateModified time.Time         `json:"date_modified"`
}

// ScoredDoc is one result record from Query.
type ScoredDoc struct {
	Metadata           map[string]string `json:"metadata"`
	Score              float64           `json:"score"`
	CoordScore         float64           `json:"coord_score"`
	TFScore            float64           `json:"tf_score"`
	TFIDFScore         float64           `json:"tfidf_score"`
	QueryTokensFound   int               `json:"query_tokens_found"`
	TotalQueryTokens   int               `json:"total_query_tokens"`
	CutoffScaledScore  float64           `json:"cutoff_scaled_score"`
	HighestQueryScore  float64           `json:"highest_query_score"`
}

// LengthAdjustment selects the TF length-normalization strategy used by
// Query's scoring step.
type LengthAdjustment int

const (
	// AdjustmentNone applies no length normalization (adjustment = 1).
	AdjustmentNone LengthAdjustment = iota
	// AdjustmentBM25 scales by avgLocalLen / length(d).
	AdjustmentBM25
	// AdjustmentSmallDocPenalty applies 1 - (1 - min(len/avg, 1))^2.
	AdjustmentSmallDocPenalty
)

// QueryOptions configures one Query call.
type QueryOptions struct {
	TopK          int
	FilterFn      func(metadata map[string]string) bool
	FilterLast    bool // apply FilterFn after scoring rather than before
	CutoffScore   float64
	Adjustment    LengthAdjustment
	NoIDF         bool
	IgnoreCoord   bool
	MaxCoordBoost float64 // defaults to 0.10 when zero and !IgnoreCoord
	Lang          string
	Autocorrect   bool
}

const defaultMaxCoordBoost = 0.10
