package agent

import (
	"github.com/scentguard/scentguard/internal/canonical"
	"github.com/scentguard/scentguard/internal/errcodes"
	"github.com/scentguard/scentguard/internal/quarantine"
)

// Status is the closed set of InterceptResult variants.
type Status string

const (
	StatusClean           Status = "clean"
	StatusRateLimited     Status = "rate_limited"
	StatusPayloadTooLarge Status = "payload_too_large"
	StatusIgnored         Status = "ignored"
	StatusQuarantined     Status = "quarantined"
	StatusError           Status = "error"
)

// ErrorDetail is the payload of the error variant.
type ErrorDetail struct {
	State       string
	Code        errcodes.Code
	Message     string
	Recoverable bool
}

// InterceptResult is the tagged union Agent.Intercept returns. Exactly one
// of the field groups below is meaningful, selected by Status.
type InterceptResult struct {
	Status Status

	RetryAfter int64                      // rate_limited
	Limit      int                        // payload_too_large
	Signature  canonical.Signature        // ignored, quarantined
	Handle     *quarantine.EvidenceHandle // quarantined
	Error      *ErrorDetail               // error
}

func clean() InterceptResult {
	return InterceptResult{Status: StatusClean}
}

func rateLimited(retryAfter int64) InterceptResult {
	return InterceptResult{Status: StatusRateLimited, RetryAfter: retryAfter}
}

func payloadTooLarge(limit int) InterceptResult {
	return InterceptResult{Status: StatusPayloadTooLarge, Limit: limit}
}

func ignored(sig canonical.Signature) InterceptResult {
	return InterceptResult{Status: StatusIgnored, Signature: sig}
}

func quarantined(sig canonical.Signature, handle *quarantine.EvidenceHandle) InterceptResult {
	return InterceptResult{Status: StatusQuarantined, Signature: sig, Handle: handle}
}

func errorResult(state string, code errcodes.Code, message string, recoverable bool) InterceptResult {
	return InterceptResult{Status: StatusError, Error: &ErrorDetail{
		State:       state,
		Code:        code,
		Message:     message,
		Recoverable: recoverable,
	}}
}
