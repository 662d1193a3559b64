// Command scentinel is the operator CLI: status, inspect, and watch read an
// Agent's published state over the same HTTP/websocket surface httpface
// exposes. It never touches Evidence directly, only the dashboard's
// read-only views.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/scentguard/scentguard/httpface"
	"github.com/scentguard/scentguard/internal/agent"
	"github.com/scentguard/scentguard/internal/config"
	"github.com/scentguard/scentguard/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "status":
		err = runStatus(os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	case "watch":
		err = runWatch(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "scentinel:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: scentinel <command> [flags]

commands:
  serve                      build an Agent from config and host its dashboard
  status                     print Agent/Quarantine/AuditChain counters
  inspect [--signature S]    inspect one signature, or list up to --limit
  watch                      stream snapshots over the dashboard websocket

status/inspect/watch accept -addr (default $SCENTINEL_ADDR or http://localhost:8080)`)
}

func addrFlag(fs *flag.FlagSet) *string {
	def := os.Getenv("SCENTINEL_ADDR")
	if def == "" {
		def = "http://localhost:8080"
	}
	return fs.String("addr", def, "dashboard base address")
}

// runServe builds an Agent from the resolved config and serves its
// dashboard until SIGINT/SIGTERM, then drains in-flight requests before
// exiting.
func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("listen", ":8080", "address to serve the dashboard on")
	configPath := fs.String("config", os.Getenv("SCENTINEL_CONFIG"), "path to a YAML config file")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "grace period for in-flight requests on shutdown")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := logging.New(os.Stdout, logging.Options{Service: "scentinel", Level: logging.LevelInfo})
	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a := agent.New(agent.Config{
		MaxPayloadSize: cfg.Agent.MaxPayloadSize,
		RateLimit:      cfg.RateLimitConfig(),
		Quarantine:     cfg.QuarantineConfig(),
		Logger:         log,
	})
	defer a.Close()

	srv := &http.Server{
		Addr:    *listen,
		Handler: httpface.Dashboard(a),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "scentinel: dashboard listening", map[string]any{"addr": *listen})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info(ctx, "scentinel: shutting down", map[string]any{"signal": sig.String()})
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, *shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info(ctx, "scentinel: stopped", nil)
	return nil
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	addr := addrFlag(fs)
	jsonOut := fs.Bool("json", false, "print raw JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var snap dashboardSnapshot
	if err := getJSON(*addr+"/status", &snap); err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(snap)
	}

	fmt.Printf("intercepted   %d\n", snap.Agent.Total)
	fmt.Printf("  clean       %d\n", snap.Agent.Clean)
	fmt.Printf("  rate_limited %d\n", snap.Agent.RateLimited)
	fmt.Printf("  too_large   %d\n", snap.Agent.PayloadTooLarge)
	fmt.Printf("  ignored     %d\n", snap.Agent.Ignored)
	fmt.Printf("  quarantined %d\n", snap.Agent.Quarantined)
	fmt.Printf("  error       %d\n", snap.Agent.Error)
	fmt.Println()
	fmt.Printf("quarantine    count=%d bytes=%d evictions=%d deduplicated=%d\n",
		snap.Quarantine.Count, snap.Quarantine.Bytes, snap.Quarantine.Evictions, snap.Quarantine.Deduplicated)
	fmt.Printf("  by severity critical=%d high=%d medium=%d low=%d\n",
		snap.Quarantine.Critical, snap.Quarantine.High, snap.Quarantine.Medium, snap.Quarantine.Low)
	fmt.Printf("audit chain   records=%d\n", snap.AuditLen)
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	addr := addrFlag(fs)
	signature := fs.String("signature", "", "inspect this signature")
	limit := fs.Int("limit", 20, "when no signature given, list at most this many entries")
	jsonOut := fs.Bool("json", false, "print raw JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	u, err := url.Parse(*addr + "/inspect")
	if err != nil {
		return err
	}
	q := u.Query()
	if *signature != "" {
		q.Set("signature", *signature)
	} else {
		q.Set("limit", strconv.Itoa(*limit))
	}
	u.RawQuery = q.Encode()

	resp, err := http.Get(u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("no such signature: %s", *signature)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dashboard returned %s", resp.Status)
	}

	if *signature != "" {
		var v handleView
		if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
			return err
		}
		if *jsonOut {
			return printJSON(v)
		}
		printHandle(v)
		return nil
	}

	var list []handleView
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(list)
	}
	for _, v := range list {
		printHandle(v)
	}
	return nil
}

func printHandle(v handleView) {
	fmt.Printf("%s  severity=%-8s size=%-6d captured=%s\n",
		v.Signature, v.Severity, v.Size, time.UnixMilli(v.Captured).UTC().Format(time.RFC3339))
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	addr := addrFlag(fs)
	refreshMs := fs.Int("refresh", 1000, "minimum interval between printed snapshots, in ms")
	jsonOut := fs.Bool("json", false, "print raw JSON lines instead of a formatted summary")
	if err := fs.Parse(args); err != nil {
		return err
	}

	wsURL, err := toWebsocketURL(*addr + "/watch")
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", wsURL, err)
	}
	defer conn.Close()

	minInterval := time.Duration(*refreshMs) * time.Millisecond
	var last time.Time
	for {
		var snap dashboardSnapshot
		if err := conn.ReadJSON(&snap); err != nil {
			return err
		}
		if time.Since(last) < minInterval {
			continue
		}
		last = time.Now()
		if *jsonOut {
			_ = printJSON(snap)
			continue
		}
		fmt.Printf("total=%d clean=%d rate_limited=%d quarantined=%d  |  quarantine count=%d bytes=%d  |  audit=%d\n",
			snap.Agent.Total, snap.Agent.Clean, snap.Agent.RateLimited, snap.Agent.Quarantined,
			snap.Quarantine.Count, snap.Quarantine.Bytes, snap.AuditLen)
	}
}

func toWebsocketURL(httpURL string) (string, error) {
	u, err := url.Parse(httpURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}

func getJSON(url string, v any) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// agentStatsView, quarantineStatsView, dashboardSnapshot, and handleView
// mirror httpface's JSON wire shapes; the CLI is an independent client and
// does not import the internal agent/quarantine packages directly.
type agentStatsView struct {
	Total           int64 `json:"Total"`
	Clean           int64 `json:"Clean"`
	RateLimited     int64 `json:"RateLimited"`
	PayloadTooLarge int64 `json:"PayloadTooLarge"`
	Ignored         int64 `json:"Ignored"`
	Quarantined     int64 `json:"Quarantined"`
	Error           int64 `json:"Error"`
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

type dashboardSnapshot struct {
	Agent      agentStatsView      `json:"agent"`
	Quarantine quarantineStatsView `json:"quarantine"`
	AuditLen   int                 `json:"audit_len"`
}

type handleView struct {
	Signature string `json:"signature"`
	Severity  string `json:"severity"`
	Captured  int64  `json:"captured"`
	Size      int    `json:"size"`
}
