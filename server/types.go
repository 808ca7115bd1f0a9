package server

import (
	"github.com/teranos/epicdash/alloc"
	"github.com/teranos/epicdash/catalog"
	"github.com/teranos/epicdash/propagate"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// SelectRequest is the body of POST /api/widgets/{index}/select.
type SelectRequest struct {
	VariableID *int64 `json:"variable_id"`
}

// TransitionResponse reports an allocation transition and what it redrew.
type TransitionResponse struct {
	Result alloc.Result     `json:"result"`
	Update propagate.Update `json:"update"`
}

func newTransitionResponse(r alloc.Result) TransitionResponse {
	return TransitionResponse{Result: r, Update: r.Update}
}

// CatalogResponse is the body of GET /api/catalog.
type CatalogResponse struct {
	Count     int                `json:"count"`
	Fallback  bool               `json:"fallback"`
	Variables []catalog.Variable `json:"variables"`
}

// Client message types.
const (
	MsgSelect   = "select"
	MsgDeselect = "deselect"
	MsgClear    = "clear"
	MsgPing     = "ping"
)

// ClientMessage is a command sent over the WebSocket.
type ClientMessage struct {
	Type       string `json:"type"`
	Widget     int    `json:"widget,omitempty"`
	VariableID *int64 `json:"variable_id,omitempty"`
	Slot       string `json:"slot,omitempty"`
}

// Server reply types beyond the session events.
const (
	MsgResult = "result"
	MsgError  = "error"
	MsgPong   = "pong"
)

// ReplyMessage answers one ClientMessage.
type ReplyMessage struct {
	Type    string        `json:"type"`
	Request string        `json:"request,omitempty"`
	Result  *alloc.Result `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`
}
