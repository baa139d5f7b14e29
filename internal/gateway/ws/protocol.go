package ws

import "encoding/json"

// FrameType represents the type of WebSocket frame.
type FrameType string

const (
	FrameTypeRequest  FrameType = "req"
	FrameTypeResponse FrameType = "res"
	FrameTypeEvent    FrameType = "event"
)

// Method represents a WebSocket request method.
type Method string

const (
	MethodAddTodo         Method = "add_todo"
	MethodToggleTodo      Method = "toggle_todo"
	MethodToggleImportant Method = "toggle_important"
	MethodEditTodo        Method = "edit_todo"
	MethodDeleteTodo      Method = "delete_todo"
	MethodListTodos       Method = "list_todos"
	MethodCounts          Method = "counts"
)

// Codes carried by failed responses.
const (
	CodeNotReady   = "not_ready"
	CodeUnreadable = "unreadable"
	CodeNotFound   = "not_found"
	CodeInvalid    = "invalid"
	CodeBadRequest = "bad_request"
	CodeInternal   = "internal"
)

// Frame is the WebSocket protocol envelope.
type Frame struct {
	Type    FrameType       `json:"type"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	OK      *bool           `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
	Event   string          `json:"event,omitempty"`
}

// Params shapes accepted by the request methods.
type (
	AddParams struct {
		Text string `json:"text"`
	}
	IDParams struct {
		ID int64 `json:"id"`
	}
	EditParams struct {
		ID   int64  `json:"id"`
		Text string `json:"text"`
	}
	ListParams struct {
		Filter string `json:"filter,omitempty"`
		Search string `json:"search,omitempty"`
	}
)

// MarshalFrame serializes a Frame to JSON bytes.
func MarshalFrame(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

// UnmarshalFrame deserializes JSON bytes into a Frame.
func UnmarshalFrame(data []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(data, &f)
	return f, err
}

// NewRequestFrame creates a request Frame with marshalled params.
func NewRequestFrame(id string, method Method, params any) (Frame, error) {
	f := Frame{Type: FrameTypeRequest, ID: id, Method: string(method)}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return Frame{}, err
		}
		f.Params = data
	}
	return f, nil
}

// NewEventFrame creates a Frame for broadcasting an event.
func NewEventFrame(event string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:    FrameTypeEvent,
		Event:   event,
		Payload: data,
	}, nil
}

// NewResponseFrame creates a response Frame.
func NewResponseFrame(id string, ok bool, payload any, errMsg string) (Frame, error) {
	f := Frame{
		Type:  FrameTypeResponse,
		ID:    id,
		OK:    &ok,
		Error: errMsg,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Frame{}, err
		}
		f.Payload = data
	}
	return f, nil
}
