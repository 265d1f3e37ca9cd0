package api

import (
	"errors"
	"fmt"
)

// TransportError reports a request that never produced a usable response:
// connection refused, timeout, cancelled context or an undecodable body.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError reports a response that arrived fine but carried status false
type ServerError struct {
	Op  string
	Msg string
}

func (e *ServerError) Error() string {
	if e.Msg == "" {
		return e.Op + ": rejected by server"
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// StatusError reports a non-2xx HTTP status
type StatusError struct {
	Op   string
	Code int
	Msg  string
}

func (e *StatusError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: http %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.Code, e.Msg)
}

// UserMessage extracts the text worth showing to a user from err
func UserMessage(err error) string {
	var se *ServerError
	if errors.As(err, &se) && se.Msg != "" {
		return se.Msg
	}
	var ste *StatusError
	if errors.As(err, &ste) && ste.Msg != "" {
		return ste.Msg
	}
	var te *TransportError
	if errors.As(err, &te) {
		return "Unable to reach the server. Please try again later."
	}
	return "Something went wrong. Please try again."
}
