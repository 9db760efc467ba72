package query

import (
	"context"
	"errors"

	"github.com/futig/askdocs/internal/entity"
)

const noInformationAnswer = "Sorry, I couldn't find any relevant documentation for that. " +
	"Please ask something related to ArcGIS Enterprise."

type remediation struct {
	title   string
	message string
}

var remediations = map[entity.ErrorType]remediation{
	entity.ErrorTypeTimeout: {
		title: "The language model took too long to respond",
		message: "The model server is busy or the question needs a long answer. " +
			"Try again in a moment or ask a narrower question.",
	},
	entity.ErrorTypeConnection: {
		title: "Could not connect to the model server",
		message: "Make sure the model server is running at the configured address " +
			"and that the reasoning, formatting and embedding models are loaded.",
	},
	entity.ErrorTypeGeneric: {
		title:   "Server error",
		message: "Something went wrong while answering the question. Check the server logs and try again.",
	},
	entity.ErrorTypeValidation: {
		title:   "No question provided",
		message: "Send a JSON body with a non-empty \"question\" field.",
	},
}

// classify maps a pipeline error onto the envelope error type.
func classify(err error) entity.ErrorType {
	switch {
	case errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidParameter),
		errors.Is(err, entity.ErrInvalidFormat):
		return entity.ErrorTypeValidation
	case errors.Is(err, entity.ErrUpstreamTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return entity.ErrorTypeTimeout
	case errors.Is(err, entity.ErrUpstreamUnreachable),
		errors.Is(err, entity.ErrEmbeddingUnavailable):
		return entity.ErrorTypeConnection
	default:
		return entity.ErrorTypeGeneric
	}
}

func errorEnvelope(err error) *entity.QueryResponse {
	errType := classify(err)
	r := remediations[errType]

	title := r.title
	if errType == entity.ErrorTypeValidation && !errors.Is(err, entity.ErrMissingField) {
		title = "Invalid question"
	}

	return &entity.QueryResponse{
		Error:          title,
		ErrorType:      errType,
		Message:        r.message,
		TechnicalError: err.Error(),
	}
}

func noInformationEnvelope() *entity.QueryResponse {
	return &entity.QueryResponse{
		Answer: noInformationAnswer,
	}
}

func answerEnvelope(resp entity.CachedResponse) *entity.QueryResponse {
	return &entity.QueryResponse{
		Answer:          resp.Answer,
		Reasoning:       resp.Reasoning,
		RawResponse:     resp.RawResponse,
		UsedSecondStage: resp.UsedSecondStage,
	}
}

func cacheHitEnvelope(hit *entity.CacheHit) *entity.QueryResponse {
	env := answerEnvelope(hit.Payload)
	distance := hit.Distance
	env.CacheHit = true
	env.CacheType = hit.Type
	env.SimilarityScore = &distance
	env.MatchedQuestion = hit.MatchedQuestion
	return env
}
