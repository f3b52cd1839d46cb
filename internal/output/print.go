// Package output renders the finished report: a human-readable terminal
// summary, the JSON results file, an optional standalone HTML report, and
// the live progress line shown while a run is in flight.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/volleyproj/volley/internal/report"
)

// PrintReport writes a human-readable summary of the run.
func PrintReport(w io.Writer, rep report.Report, elapsed time.Duration) {
	fmt.Fprintln(w, "\n--- Load Test Results ---")
	fmt.Fprintf(w, "Total Requests:    %d\n", rep.TotalRequests)
	fmt.Fprintf(w, "Successful:        %d\n", rep.SuccessfulRequests)
	fmt.Fprintf(w, "Failed:            %d\n", rep.FailedRequests)
	fmt.Fprintf(w, "Duration:          %s\n", elapsed.Round(time.Millisecond))
	if elapsed > 0 && rep.TotalRequests > 0 {
		fmt.Fprintf(w, "Requests/sec:      %.2f\n", float64(rep.TotalRequests)/elapsed.Seconds())
	}

	fmt.Fprintln(w, "\nLatency (successful requests, seconds):")
	fmt.Fprintf(w, "  Min:             %.4f\n", rep.MinLatency)
	fmt.Fprintf(w, "  Max:             %.4f\n", rep.MaxLatency)
	fmt.Fprintf(w, "  Mean:            %.4f\n", rep.MeanLatency)
	fmt.Fprintf(w, "  Median:          %.4f\n", rep.MedianLatency)
	fmt.Fprintf(w, "  Stddev:          %.4f\n", rep.StddevLatency)
	fmt.Fprintf(w, "  P90:             %.4f\n", rep.P90Latency)

	if len(rep.DetailedErrors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		keys := make([]string, 0, len(rep.DetailedErrors))
		for key := range rep.DetailedErrors {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			messages := rep.DetailedErrors[key]
			fmt.Fprintf(w, "  %s: %d\n", key, len(messages))
			if len(messages) > 0 {
				fmt.Fprintf(w, "    e.g. %s\n", messages[0])
			}
		}
	}
}

// PrintJSONReport writes the report as indented JSON.
func PrintJSONReport(w io.Writer, rep report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(rep)
}
