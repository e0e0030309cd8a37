package cascade

import (
	"fmt"
	"strings"
)

type Code string

const (
	CodeNotReady          Code = "NOT_READY"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeNoRegion          Code = "NO_REGION"
	CodeRegionNotFound    Code = "REGION_NOT_FOUND"
	CodeAmbiguousRegion   Code = "AMBIGUOUS_REGION"
	CodeAmbiguousTarget   Code = "AMBIGUOUS_TARGET"
	CodeDuplicateBinding  Code = "DUPLICATE_BINDING"
	CodeAlreadyRegistered Code = "ALREADY_REGISTERED"
	CodeBlacklisted       Code = "BLACKLISTED"
	CodeInvalidFormat     Code = "INVALID_FORMAT"
	CodeVetoed            Code = "VETOED"
)

// Details qualifying a code.
const (
	DetailSameWorld  = "sameWorld"
	DetailOtherWorld = "otherWorld"
	DetailDuration   = "duration"
	DetailPrice      = "price"
)

// Error aborts a cascade. Key and Args are the actor-facing message.
type Error struct {
	Code   Code
	Detail string
	Key    string
	Args   []any
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(string(e.Code)))
	if e.Detail != "" {
		fmt.Fprintf(&b, "(%s)", e.Detail)
	}
	if len(e.Args) > 0 {
		fmt.Fprintf(&b, ": %v", e.Args)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code, and on Detail when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Detail == "" || t.Detail == e.Detail)
}

var (
	ErrNotReady          = &Error{Code: CodeNotReady}
	ErrUnauthorized      = &Error{Code: CodeUnauthorized}
	ErrNoRegion          = &Error{Code: CodeNoRegion}
	ErrRegionNotFound    = &Error{Code: CodeRegionNotFound}
	ErrAmbiguousRegion   = &Error{Code: CodeAmbiguousRegion}
	ErrAmbiguousTarget   = &Error{Code: CodeAmbiguousTarget}
	ErrDuplicateBinding  = &Error{Code: CodeDuplicateBinding}
	ErrAlreadyRegistered = &Error{Code: CodeAlreadyRegistered}
	ErrBlacklisted       = &Error{Code: CodeBlacklisted}
	ErrInvalidFormat     = &Error{Code: CodeInvalidFormat}
	ErrVetoed            = &Error{Code: CodeVetoed}
)

func fail(code Code, detail, key string, args ...any) *Error {
	return &Error{Code: code, Detail: detail, Key: key, Args: args}
}
