// Package agent exposes the conversation assistant over HTTP and WebSocket.
package agent

import (
	"errors"

	"github.com/ashureev/chorechat/internal/domain"
)

var (
	// ErrFamilyNotFound means the store has no family with the requested id.
	ErrFamilyNotFound = errors.New("family not found")
	// ErrInvalidRequest wraps every problem with caller-supplied fields.
	ErrInvalidRequest = errors.New("invalid request")
)

// ChatRequest is one parent message.
type ChatRequest struct {
	Message       string `json:"message"`
	SessionID     string `json:"session_id,omitempty"`
	TargetDate    string `json:"target_date,omitempty"`
	DefaultPoints int    `json:"default_points,omitempty"`

	// Set by the transport from the request identity.
	FamilyID string `json:"-"`
	MemberID string `json:"-"`
}

// ChatResponse is the assistant reply plus the session it belongs to.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	domain.ConversationResponse
}

// wsMessage is the envelope of websocket frames in both directions.
type wsMessage struct {
	Type          string        `json:"type"`
	Message       string        `json:"message,omitempty"`
	TargetDate    string        `json:"target_date,omitempty"`
	DefaultPoints int           `json:"default_points,omitempty"`
	Error         string        `json:"error,omitempty"`
	Response      *ChatResponse `json:"response,omitempty"`
}
