package errors

import stdErrors "errors"

// DumpInfo flattens an error chain for structured logging.
type DumpInfo struct {
	TopMessage string
	Code       Code
	Chain      []string
}

// Dump walks the chain so log lines keep the full causal context.
func Dump(err error) DumpInfo {
	info := DumpInfo{Code: CodeInternal}
	if err == nil {
		return info
	}
	info.TopMessage = err.Error()
	if typed := As(err); typed != nil {
		info.Code = typed.Code()
	}
	for current := err; current != nil; current = stdErrors.Unwrap(current) {
		info.Chain = append(info.Chain, current.Error())
	}
	return info
}
