package models

// OutboundMessageRequest represents requests to send a message manually via the API.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}

// InsertRecordResponse is returned after a document is written through the API.
type InsertRecordResponse struct {
	ID         string `json:"id"`
	Collection string `json:"collection"`
}

// RefreshResponse tells the caller whether a fetch cycle actually ran.
type RefreshResponse struct {
	Refreshed bool   `json:"refreshed"`
	CycleID   string `json:"cycleId,omitempty"`
}
