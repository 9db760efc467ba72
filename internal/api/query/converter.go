package query

import (
	"net/http"

	"github.com/futig/askdocs/internal/entity"
)

// statusFor maps an envelope to its HTTP status.
func statusFor(resp *entity.QueryResponse) int {
	if !resp.Failed() {
		return http.StatusOK
	}

	switch resp.ErrorType {
	case entity.ErrorTypeValidation:
		return http.StatusBadRequest
	case entity.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case entity.ErrorTypeConnection:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func invalidBodyEnvelope(err error) *entity.QueryResponse {
	return &entity.QueryResponse{
		Error:          "Invalid request body",
		ErrorType:      entity.ErrorTypeValidation,
		Message:        "Send a JSON body like {\"question\": \"How do I back up Portal for ArcGIS?\"}.",
		TechnicalError: err.Error(),
	}
}

func toAnswerDocument(q string, resp *entity.QueryResponse) entity.AnswerDocument {
	return entity.AnswerDocument{
		Question:  q,
		Answer:    resp.Answer,
		Reasoning: resp.Reasoning,
	}
}
