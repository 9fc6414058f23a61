package eventloop

import (
	"encoding/json"

	"sniprun/errors"
)

// Event names accepted by the server
const (
	EventRun       = "run"
	EventClean     = "clean"
	EventClearRepl = "clearrepl"
	EventInfo      = "info"
	EventPing      = "ping"
	EventUnknown   = "unknown"
)

// Request is one line of input
type Request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Event  string          `json:"event"`
	Params RunParams       `json:"params"`
}

// RunParams is the editor state of a run. Unset fields keep the
// configured values.
type RunParams struct {
	Filetype    string  `json:"filetype"`
	CurrentLine string  `json:"current_line"`
	CurrentBloc string  `json:"current_bloc"`
	Filepath    string  `json:"filepath"`
	RootDir     string  `json:"root_dir"`
	Range       *[2]int `json:"range,omitempty"`

	SelectedInterpreters []string `json:"selected_interpreters,omitempty"`
	ReplEnable           []string `json:"repl_enable,omitempty"`
	ReplDisable          []string `json:"repl_disable,omitempty"`
}

// Response is one line of output
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Event  string          `json:"event"`
	OK     bool            `json:"ok"`
	Output string          `json:"output,omitempty"`
	Error  *ResponseError  `json:"error,omitempty"`
}

// ResponseError carries the kind of a failed run and its user-facing line
type ResponseError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func newResponseError(err error) *ResponseError {
	if execErr, ok := errors.AsExecutionError(err); ok {
		return &ResponseError{Kind: string(execErr.Kind), Message: execErr.Summary()}
	}
	return &ResponseError{Kind: string(errors.KindInterpreter), Message: err.Error()}
}
