package errors

import (
	"errors"
	"fmt"
)

// ErrorDump is the loggable form of an error chain.
type ErrorDump struct {
	Code      Code     `json:"code,omitempty"`
	Retryable bool     `json:"retryable"`
	Fatal     bool     `json:"fatal"`
	Chain     []string `json:"chain,omitempty"`
	Details   any      `json:"details,omitempty"`
}

// Dump flattens err into its classification and the messages of every
// wrapped layer, outermost first. Untyped chains carry no code.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	var d ErrorDump
	if te := As(err); te != nil {
		meta := MetadataFor(te.Code())
		d.Code = te.Code()
		d.Retryable = meta.Retryable
		d.Fatal = meta.Fatal
		d.Details = te.Details()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	return d
}
