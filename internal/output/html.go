package output

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/volleyproj/volley/internal/report"
	"github.com/volleyproj/volley/internal/threshold"
)

// HTMLReportData carries everything the HTML template renders.
type HTMLReportData struct {
	GeneratedAt      string
	RunID            string
	Metadata         ReportMetadata
	Report           report.Report
	Elapsed          time.Duration
	RequestsPerSec   float64
	ErrorGroups      []ErrorGroup
	ThresholdResults []threshold.Result
	ThresholdsPassed int
	ThresholdsFailed int
}

// ReportMetadata describes the configuration the run was executed with.
type ReportMetadata struct {
	TargetURL   string
	Method      string
	Rate        float64
	Duration    time.Duration
	Concurrency int
}

// ErrorGroup is one detailed-error bucket, ordered for stable rendering.
type ErrorGroup struct {
	Key      string
	Count    int
	Messages []string
}

// GenerateHTMLReport writes a standalone HTML report page.
func GenerateHTMLReport(w io.Writer, rep report.Report, runID string, metadata ReportMetadata, elapsed time.Duration, thresholdResults []threshold.Result) error {
	groups := make([]ErrorGroup, 0, len(rep.DetailedErrors))
	for key, messages := range rep.DetailedErrors {
		samples := messages
		if len(samples) > 5 {
			samples = samples[:5]
		}
		groups = append(groups, ErrorGroup{Key: key, Count: len(messages), Messages: samples})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })

	data := HTMLReportData{
		GeneratedAt:      time.Now().Format(time.RFC3339),
		RunID:            runID,
		Metadata:         metadata,
		Report:           rep,
		Elapsed:          elapsed.Round(time.Millisecond),
		ErrorGroups:      groups,
		ThresholdResults: thresholdResults,
	}
	if elapsed > 0 {
		data.RequestsPerSec = float64(rep.TotalRequests) / elapsed.Seconds()
	}
	for _, tr := range thresholdResults {
		if tr.Pass {
			data.ThresholdsPassed++
		} else {
			data.ThresholdsFailed++
		}
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatSeconds": func(f float64) string {
			return fmt.Sprintf("%.4f", f)
		},
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatPercent": func(part, total int64) string {
			if total == 0 {
				return "0.0"
			}
			return fmt.Sprintf("%.1f", (float64(part)/float64(total))*100)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("parse report template: %w", err)
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render report template: %w", err)
	}
	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Volley Load Test Report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1100px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 { font-size: 2rem; margin-bottom: 10px; }
        header .meta { opacity: 0.9; font-size: 0.9rem; }
        .content { padding: 40px; }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            border-left: 4px solid #667eea;
        }
        .card h3 {
            font-size: 0.9rem;
            color: #6c757d;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 10px;
        }
        .card .value { font-size: 2rem; font-weight: bold; color: #2c3e50; }
        .card .subvalue { font-size: 0.85rem; color: #6c757d; margin-top: 5px; }
        .card.success { border-left-color: #10b981; }
        .card.error { border-left-color: #ef4444; }
        .section { margin-bottom: 40px; }
        .section h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e5e7eb;
        }
        table { width: 100%; border-collapse: collapse; background: white; }
        th, td {
            text-align: left;
            padding: 10px 14px;
            border-bottom: 1px solid #e5e7eb;
            font-size: 0.9rem;
        }
        th { background: #f8f9fa; color: #6c757d; text-transform: uppercase; font-size: 0.8rem; }
        .pass { color: #10b981; font-weight: bold; }
        .fail { color: #ef4444; font-weight: bold; }
        .sample { color: #6c757d; font-size: 0.85rem; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>Volley Load Test Report</h1>
            <div class="meta">
                Run {{.RunID}} &middot; Generated {{.GeneratedAt}}<br>
                {{.Metadata.Method}} {{.Metadata.TargetURL}} &middot;
                {{formatFloat .Metadata.Rate}} req/s &middot;
                {{.Metadata.Concurrency}} concurrent &middot;
                {{.Metadata.Duration}} planned &middot; {{.Elapsed}} elapsed
            </div>
        </header>
        <div class="content">
            <div class="grid">
                <div class="card">
                    <h3>Total Requests</h3>
                    <div class="value">{{.Report.TotalRequests}}</div>
                    <div class="subvalue">{{formatFloat .RequestsPerSec}} req/s achieved</div>
                </div>
                <div class="card success">
                    <h3>Successful</h3>
                    <div class="value">{{.Report.SuccessfulRequests}}</div>
                    <div class="subvalue">{{formatPercent .Report.SuccessfulRequests .Report.TotalRequests}}%</div>
                </div>
                <div class="card error">
                    <h3>Failed</h3>
                    <div class="value">{{.Report.FailedRequests}}</div>
                    <div class="subvalue">{{formatPercent .Report.FailedRequests .Report.TotalRequests}}%</div>
                </div>
                <div class="card">
                    <h3>P90 Latency</h3>
                    <div class="value">{{formatSeconds .Report.P90Latency}}s</div>
                    <div class="subvalue">median {{formatSeconds .Report.MedianLatency}}s</div>
                </div>
            </div>

            <div class="section">
                <h2>Latency (successful requests, seconds)</h2>
                <table>
                    <tr><th>Min</th><th>Mean</th><th>Median</th><th>P90</th><th>Max</th><th>Stddev</th></tr>
                    <tr>
                        <td>{{formatSeconds .Report.MinLatency}}</td>
                        <td>{{formatSeconds .Report.MeanLatency}}</td>
                        <td>{{formatSeconds .Report.MedianLatency}}</td>
                        <td>{{formatSeconds .Report.P90Latency}}</td>
                        <td>{{formatSeconds .Report.MaxLatency}}</td>
                        <td>{{formatSeconds .Report.StddevLatency}}</td>
                    </tr>
                </table>
            </div>

            {{if .ThresholdResults}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdsPassed}} passed, {{.ThresholdsFailed}} failed)</h2>
                <table>
                    <tr><th>Threshold</th><th>Actual</th><th>Result</th></tr>
                    {{range .ThresholdResults}}
                    <tr>
                        <td>{{.Threshold.Raw}}</td>
                        <td>{{formatSeconds .Actual}}</td>
                        <td>{{if .Pass}}<span class="pass">PASS</span>{{else}}<span class="fail">FAIL</span>{{end}}</td>
                    </tr>
                    {{end}}
                </table>
            </div>
            {{end}}

            {{if .ErrorGroups}}
            <div class="section">
                <h2>Errors</h2>
                <table>
                    <tr><th>Group</th><th>Count</th><th>Samples</th></tr>
                    {{range .ErrorGroups}}
                    <tr>
                        <td>{{.Key}}</td>
                        <td>{{.Count}}</td>
                        <td class="sample">{{range .Messages}}{{.}}<br>{{end}}</td>
                    </tr>
                    {{end}}
                </table>
            </div>
            {{end}}
        </div>
    </div>
</body>
</html>
`
