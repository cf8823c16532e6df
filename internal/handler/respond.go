package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// Timestamps are fixed-width UTC so they sort lexicographically inside
// composite keys.
const timeLayout = "2006-01-02T15:04:05.000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Error types of the response envelope.
const (
	errBadRequest   = "Bad Request"
	errInvalidJSON  = "Invalid JSON"
	errUnauthorized = "Unauthorized"
	errForbidden    = "Forbidden"
	errNotFound     = "Not Found"
	errInternal     = "Internal Server Error"
)

func corsHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": "GET,POST,PUT,DELETE,OPTIONS",
	}
}

func respond(status int, body any) events.APIGatewayProxyResponse {
	data, err := json.Marshal(body)
	if err != nil {
		// The bodies are our own structs; this is unreachable in practice
		// but must still produce a well-formed envelope.
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    corsHeaders(),
			Body:       `{"error":"Internal Server Error","message":"failed to encode response"}`,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    corsHeaders(),
		Body:       string(data),
	}
}

type errorBody struct {
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Timestamp string            `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

func respondError(status int, errType, message string, now time.Time) events.APIGatewayProxyResponse {
	return respond(status, errorBody{
		Error:     errType,
		Message:   message,
		Timestamp: formatTime(now),
	})
}
