package errcode

import (
	"fmt"
	"io"
	"os"
)

// Code is a stable error identifier for sensor driver and platform results.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes. The first block mirrors the vendor driver's status
// enumeration; the second covers platform glue failures.
const (
	OK            Code = "ok"
	NullPtr       Code = "null_ptr"
	ComFail       Code = "com_fail"
	DevNotFound   Code = "dev_not_found"
	InvalidLength Code = "invalid_length"
	SelfTest      Code = "self_test"

	// Warnings: execution may continue, results may be stale or partial.
	DefineOpMode      Code = "define_op_mode"
	NoNewData         Code = "no_new_data"
	DefineShdHeatrDur Code = "define_shd_heatr_dur"

	BoardNotFound Code = "board_not_found"
	UnknownBus    Code = "unknown_bus"
	UnknownPin    Code = "unknown_pin"

	Error Code = "error" // generic fallback
)

// Num returns the signed status value a code maps to. Errors are negative,
// warnings positive, OK is zero. Codes outside the driver enumeration
// collapse to the generic error value.
func Num(c Code) int8 {
	switch c {
	case OK:
		return 0
	case NullPtr:
		return -1
	case ComFail:
		return -2
	case DevNotFound:
		return -3
	case InvalidLength:
		return -4
	case SelfTest:
		return -5
	case DefineOpMode:
		return 1
	case NoNewData:
		return 2
	case DefineShdHeatrDur:
		return 3
	default:
		return -6
	}
}

// Label returns the human-readable description printed by Report.
func Label(c Code) string {
	switch c {
	case OK:
		return "Success"
	case NullPtr:
		return "Null pointer"
	case ComFail:
		return "Communication failure"
	case DevNotFound:
		return "Device not found"
	case InvalidLength:
		return "Incorrect length parameter"
	case SelfTest:
		return "Self test error"
	case DefineOpMode:
		return "Define the operating mode"
	case NoNewData:
		return "No new data found"
	case DefineShdHeatrDur:
		return "Define the shared heating duration"
	default:
		return "Unknown error code"
	}
}

// IsWarning reports whether c signals a non-fatal condition.
func IsWarning(c Code) bool { return Num(c) > 0 }

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// Freport writes one line describing the outcome of an API call.
// Nothing is written for a nil error. The demos have no recovery path
// beyond logging; callers carry on regardless.
func Freport(w io.Writer, api string, err error) {
	if err == nil {
		return
	}
	c := Of(err)
	if c == OK {
		return
	}
	kind := "Error"
	if IsWarning(c) {
		kind = "Warning"
	}
	fmt.Fprintf(w, "API name [%s]  %s [%d] : %s\r\n", api, kind, Num(c), Label(c))
}

// Report is Freport to stdout.
func Report(api string, err error) { Freport(os.Stdout, api, err) }
