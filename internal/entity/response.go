package entity

import "time"

// CacheType tells how a response-cache hit was matched.
type CacheType string

const (
	CacheTypeExact    CacheType = "exact"
	CacheTypeSemantic CacheType = "semantic"
)

// Stage labels stored in semantic cache metadata.
const (
	StageSingle = "single_stage"
	StageTwo    = "two_stage"
)

// Semantic cache metadata keys.
const (
	MetaQuestion  = "question"
	MetaTimestamp = "timestamp"
	MetaDocCount  = "doc_count"
	MetaStage     = "stage"
)

// CachedResponse is the generated answer persisted in the response cache.
// Reasoning is nil unless the reasoning model emitted an explicit think span.
type CachedResponse struct {
	Answer          string    `json:"answer"`
	Reasoning       *string   `json:"reasoning"`
	RawResponse     string    `json:"raw_response"`
	UsedSecondStage bool      `json:"used_second_stage"`
	CachedAt        time.Time `json:"cached_at"`
}

// Stage returns the metadata stage label for the response.
func (r CachedResponse) Stage() string {
	if r.UsedSecondStage {
		return StageTwo
	}
	return StageSingle
}

// CacheHit is a response-cache lookup result.
type CacheHit struct {
	Payload         CachedResponse
	Type            CacheType
	Distance        float64
	MatchedQuestion string
}

// CacheEntrySummary is the read-only view of a semantic cache entry.
type CacheEntrySummary struct {
	Question      string `json:"question"`
	Timestamp     string `json:"timestamp"`
	Stage         string `json:"stage"`
	DocCount      string `json:"doc_count,omitempty"`
	AnswerPreview string `json:"answer_preview"`
}

// ErrorType classifies failures surfaced in the error envelope.
type ErrorType string

const (
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeConnection ErrorType = "connection"
	ErrorTypeGeneric    ErrorType = "generic"
	ErrorTypeValidation ErrorType = "validation"
)

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResponse is the uniform envelope returned for every query.
// The answer fields are always present; cache fields are set only on
// response-cache hits and error fields only on failure.
type QueryResponse struct {
	Answer          string  `json:"answer"`
	Reasoning       *string `json:"reasoning"`
	RawResponse     string  `json:"raw_response"`
	UsedSecondStage bool    `json:"used_second_stage"`
	CacheHit        bool    `json:"cache_hit"`

	CacheType       CacheType `json:"cache_type,omitempty"`
	SimilarityScore *float64  `json:"similarity_score,omitempty"`
	MatchedQuestion string    `json:"matched_question,omitempty"`

	Error          string    `json:"error,omitempty"`
	ErrorType      ErrorType `json:"error_type,omitempty"`
	Message        string    `json:"message,omitempty"`
	TechnicalError string    `json:"technical_error,omitempty"`
}

// Failed reports whether the envelope carries an error.
func (r *QueryResponse) Failed() bool {
	return r.Error != ""
}

// CacheInspectResponse is the body of GET /cache-inspect.
type CacheInspectResponse struct {
	Entries []CacheEntrySummary `json:"entries"`
	Count   int                 `json:"count"`
}
