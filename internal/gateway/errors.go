package gateway

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyToken         = errors.New("empty notification code")
	ErrMissingCredentials = errors.New("pagseguro email and token are required")
)

type ErrorItem struct {
	Code    string `xml:"code"`
	Message string `xml:"message"`
}

// RejectedError is returned when the gateway refuses the notification code or
// cannot be reached. StatusCode is 0 for transport failures and timeouts.
type RejectedError struct {
	StatusCode int
	Message    string
	Errors     []ErrorItem
	Err        error
}

func (e *RejectedError) Error() string {
	var b strings.Builder
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, "pagseguro rejected notification (http %d)", e.StatusCode)
	} else {
		b.WriteString("pagseguro request failed")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	for _, item := range e.Errors {
		fmt.Fprintf(&b, " %s-%s", item.Code, item.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}
