// Package httpface is a thin external adapter consuming only the Agent's
// public surface (Intercept, Stats, Quarantine().Stats()/Get()/
// Signatures(), AuditChain().Len()) — no privileged access to Evidence
// internals, matching the
// spec's description of HTTP middleware as an out-of-core collaborator.
package httpface

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/scentguard/scentguard/internal/agent"
	"github.com/scentguard/scentguard/internal/errcodes"
	"github.com/scentguard/scentguard/internal/scent"
)

// ScentFromRequest builds a Scent from an inbound request; callers that
// want custom extraction should build the Scent themselves and call
// agent.Intercept directly instead of using Middleware.
type ScentFromRequest func(r *http.Request) scent.Scent

// Middleware wraps next, running every request's derived Scent through
// a.Intercept before allowing the request through. Non-clean results are
// mapped to HTTP status per the spec's InterceptResult -> status table.
func Middleware(a *agent.Agent, derive ScentFromRequest, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc := derive(r)
		result := a.Intercept(sc)

		switch result.Status {
		case agent.StatusClean:
			next.ServeHTTP(w, r)
		case agent.StatusRateLimited:
			w.Header().Set("Retry-After", strconv.FormatInt(result.RetryAfter/1000, 10))
			writeError(w, http.StatusTooManyRequests, errcodes.RateLimitExceeded, "rate limited")
		case agent.StatusPayloadTooLarge:
			writeError(w, http.StatusRequestEntityTooLarge, errcodes.PayloadTooLarge, "payload too large")
		case agent.StatusIgnored:
			writeError(w, http.StatusForbidden, errcodes.Internal, "duplicate or rejected submission")
		case agent.StatusQuarantined:
			writeError(w, http.StatusForbidden, errcodes.Internal, "submission quarantined")
		case agent.StatusError:
			writeError(w, http.StatusInternalServerError, result.Error.Code, result.Error.Message)
		}
	})
}

type errorBody struct {
	Code    errcodes.Code `json:"code"`
	Message string        `json:"message"`
	Time    string        `json:"time"`
}

func writeError(w http.ResponseWriter, status int, code errcodes.Code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Code: code, Message: message, Time: time.Now().UTC().Format(time.RFC3339)})
}
