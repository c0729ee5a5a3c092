/*
Package server implements msgpack IPC for resegmentation services.

The server reads a stream of msgpack messages from stdin and writes one
response per message to stdout. Messages are processed synchronously and
responses carry the time taken in microseconds.

# IPC

Every message has an "id" echoed in its response. A message with text is a
resegmentation request; "d" optionally overrides the default edit budget:

	{"id": "req_001", "text": "the climatechange debate", "d": 0}

The response carries the rewritten text and the number of split tokens:

	{"id": "req_001", "text": "the climate change debate", "n": 1, "t": 145}

Messages with an action manage the running engine:

	{"id": "info_001", "action": "get_info"}
	{"id": "dist_001", "action": "set_distance", "d": 1}

Failures are reported with an error message and an HTTP-like code:

	{"id": "req_002", "e": "text exceeds 1048576 bytes", "c": 413}

Once started, the server first writes {"status": "ready"}.
*/
package server

// Request is any incoming message. Action is empty for resegmentation requests.
type Request struct {
	ID       string `msgpack:"id"`
	Text     string `msgpack:"text,omitempty"`
	Distance *int   `msgpack:"d,omitempty"`
	Action   string `msgpack:"action,omitempty"`
}

// ResegmentResponse is the result of a resegmentation request.
type ResegmentResponse struct {
	ID        string `msgpack:"id"`
	Text      string `msgpack:"text"`
	Segmented int    `msgpack:"n"`
	Skipped   int    `msgpack:"s,omitempty"`
	TimeTaken int64  `msgpack:"t"`
}

// InfoResponse answers "get_info".
type InfoResponse struct {
	ID             string `msgpack:"id"`
	Status         string `msgpack:"status"`
	Words          int    `msgpack:"words"`
	MaxFrequency   uint64 `msgpack:"max_frequency"`
	MaxWordLength  int    `msgpack:"max_word_length"`
	Distance       int    `msgpack:"d"`
	DistanceLimit  int    `msgpack:"d_limit"`
	MaxTokenLength int    `msgpack:"max_token_length"`
	CacheEntries   int    `msgpack:"cache_entries"`
}

// ActionResponse answers state-changing actions.
type ActionResponse struct {
	ID       string `msgpack:"id"`
	Status   string `msgpack:"status"`
	Distance int    `msgpack:"d"`
}

// ErrorResponse holds basic error information for any request
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

// StatusResponse is sent once when the server is ready.
type StatusResponse struct {
	Status string `msgpack:"status"`
}

const (
	CodeBadRequest    = 400
	CodeTooLarge      = 413
	CodeUnprocessable = 422
	CodeInternal      = 500
)
