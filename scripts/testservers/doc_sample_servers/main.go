// Command doc_sample_servers runs a throwaway HTTP target for trying volley
// locally. It exposes endpoints with controllable latency and failure rates
// so pacing, draining and error grouping can be observed end to end.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

func main() {
	port := flag.Int("port", 0, "Listening port")
	flag.Parse()

	if *port <= 0 {
		log.Fatalf("port must be > 0")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", handleOK)
	mux.HandleFunc("/slow", handleSlow)
	mux.HandleFunc("/flaky", handleFlaky)
	mux.HandleFunc("/status/", handleStatus)
	mux.HandleFunc("/echo", handleEcho)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"ok": true, "path": r.URL.Path})
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("sample target server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func handleOK(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleSlow sleeps for the requested delay before answering, e.g.
// /slow?delay=250ms. Useful for exercising request timeouts and drain.
func handleSlow(w http.ResponseWriter, r *http.Request) {
	delay := 100 * time.Millisecond
	if raw := r.URL.Query().Get("delay"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]any{"error": "bad delay"})
			return
		}
		delay = parsed
	}
	time.Sleep(delay)
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "delay": delay.String()})
}

// handleFlaky fails a fraction of requests, e.g. /flaky?rate=0.2 fails about
// one in five with a 500.
func handleFlaky(w http.ResponseWriter, r *http.Request) {
	failRate := 0.1
	if raw := r.URL.Query().Get("rate"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			respondJSON(w, http.StatusBadRequest, map[string]any{"error": "bad rate"})
			return
		}
		failRate = parsed
	}
	if rand.Float64() < failRate {
		respondJSON(w, http.StatusInternalServerError, map[string]any{"error": "simulated failure"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleStatus answers with the status code in the path, e.g. /status/503.
func handleStatus(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/status/")
	code, err := strconv.Atoi(raw)
	if err != nil || code < 100 || code > 599 {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "bad status code"})
		return
	}
	respondJSON(w, code, map[string]any{"status": code})
}

func handleEcho(w http.ResponseWriter, r *http.Request) {
	body := ""
	if r.Body != nil {
		bodyBytes, _ := io.ReadAll(r.Body)
		body = string(bodyBytes)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"method":       r.Method,
		"path":         r.URL.Path,
		"query":        r.URL.RawQuery,
		"headers":      r.Header,
		"body":         body,
		"content_type": r.Header.Get("Content-Type"),
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
