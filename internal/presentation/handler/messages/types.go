package messages

import "github.com/2vw/equinox/internal/domain"

type createMessageRequest struct {
	Content     string `json:"content"`
	ReferenceID *int64 `json:"reference_id,omitempty"`
	// Nonce is an opaque client token echoed back for optimistic-UI
	// reconciliation. Never stored.
	Nonce string `json:"nonce,omitempty"`
}

type createMessageResponse struct {
	domain.Message
	Nonce string `json:"nonce,omitempty"`
}

type listMessagesResponse struct {
	Messages []domain.Message `json:"messages"`
}
