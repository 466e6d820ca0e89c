// Package chatapi defines the wire contract of the chat endpoint and the HTTP
// client the chat controller uses to reach it.
package chatapi

// Path is the route the backend serves the chat endpoint on.
const Path = "/api/chat"

// Request is the body of POST /api/chat.
type Request struct {
	Message string `json:"message"`
}

// Response is the body of a successful POST /api/chat. Either, both, or
// neither of Answer and Check may be present; an empty string counts as
// absent.
type Response struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Check    string `json:"check,omitempty"`
}

// HasAnswer reports whether the answerer produced content.
func (r *Response) HasAnswer() bool { return r != nil && r.Answer != "" }

// HasCheck reports whether the checker produced content.
func (r *Response) HasCheck() bool { return r != nil && r.Check != "" }

// ErrorBody is the JSON body the backend returns for non-2xx responses.
type ErrorBody struct {
	Detail string `json:"detail"`
}
