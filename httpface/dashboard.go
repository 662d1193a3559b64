package httpface

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/scentguard/scentguard/internal/agent"
	"github.com/scentguard/scentguard/internal/canonical"
)

// snapshot is the read-only view the dashboard and the CLI's watch command
// both render; it mirrors only exported Agent/Quarantine/AuditChain data.
type snapshot struct {
	Agent      agent.Stats         `json:"agent"`
	Quarantine quarantineStatsView `json:"quarantine"`
	AuditLen   int                 `json:"audit_len"`
}

type quarantineStatsView struct {
	Count        int   `json:"count"`
	Bytes        int64 `json:"bytes"`
	Critical     int   `json:"critical"`
	High         int   `json:"high"`
	Medium       int   `json:"medium"`
	Low          int   `json:"low"`
	Evictions    int   `json:"evictions"`
	Deduplicated int   `json:"deduplicated"`
}

func takeSnapshot(a *agent.Agent) snapshot {
	qs := a.Quarantine().Stats()
	return snapshot{
		Agent: a.Stats(),
		Quarantine: quarantineStatsView{
			Count:        qs.Count,
			Bytes:        qs.Bytes,
			Critical:     qs.BySeverity.Critical,
			High:         qs.BySeverity.High,
			Medium:       qs.BySeverity.Medium,
			Low:          qs.BySeverity.Low,
			Evictions:    qs.Evictions,
			Deduplicated: qs.Deduplicated,
		},
		AuditLen: a.AuditChain().Len(),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Dashboard builds a router serving /status, /inspect, and a /watch
// websocket feed that periodically pushes Agent snapshots — the same data
// the CLI's own status/inspect/watch subcommands read.
func Dashboard(a *agent.Agent) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/status", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, takeSnapshot(a))
	}).Methods(http.MethodGet)

	r.HandleFunc("/inspect", func(w http.ResponseWriter, req *http.Request) {
		sigParam := req.URL.Query().Get("signature")
		if sigParam == "" {
			limit := 0
			if l := req.URL.Query().Get("limit"); l != "" {
				if n, err := strconv.Atoi(l); err == nil {
					limit = n
				}
			}
			writeJSON(w, listView(a, limit))
			return
		}
		handle, ok := a.Quarantine().Get(canonical.Signature(sigParam))
		if !ok {
			http.NotFound(w, req)
			return
		}
		writeJSON(w, handleView{
			Signature: string(handle.Signature()),
			Severity:  handle.Severity().String(),
			Captured:  handle.Captured(),
			Size:      handle.Size(),
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/watch", func(w http.ResponseWriter, req *http.Request) {
		watchSocket(a, w, req)
	})

	return r
}

type handleView struct {
	Signature string `json:"signature"`
	Severity  string `json:"severity"`
	Captured  int64  `json:"captured"`
	Size      int    `json:"size"`
}

func listView(a *agent.Agent, limit int) []handleView {
	sigs := a.Quarantine().Signatures(limit)
	out := make([]handleView, 0, len(sigs))
	for _, sig := range sigs {
		handle, ok := a.Quarantine().Get(sig)
		if !ok {
			continue
		}
		out = append(out, handleView{
			Signature: string(handle.Signature()),
			Severity:  handle.Severity().String(),
			Captured:  handle.Captured(),
			Size:      handle.Size(),
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func watchSocket(a *agent.Agent, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		if err := conn.WriteJSON(takeSnapshot(a)); err != nil {
			return
		}
	}
}
