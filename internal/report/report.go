package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/anyroot/anyroot/internal/logging"
)

type Summary struct {
	Total        int            `json:"total"`
	OK           int            `json:"ok"`
	Redirects    int            `json:"redirects"`
	ClientErrors int            `json:"client_errors"`
	ServerErrors int            `json:"server_errors"`
	Rewrites     int            `json:"rewrites"`
	Sessions     int            `json:"sessions"`
	Start        time.Time      `json:"start"`
	End          time.Time      `json:"end"`
	TopPaths     []CountItem    `json:"top_paths"`
	TopMounts    []CountItem    `json:"top_mounts"`
	Latency      LatencySummary `json:"latency"`
}

type CountItem struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type LatencySummary struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type Reader struct {
	Since time.Time
}

func (r *Reader) Read(path string) ([]logging.Access, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []logging.Access
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry logging.Access
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		if !r.Since.IsZero() && entry.Timestamp.Before(r.Since) {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func Summarize(entries []logging.Access) Summary {
	var summary Summary
	if len(entries) == 0 {
		return summary
	}

	summary.Start = entries[0].Timestamp
	summary.End = entries[0].Timestamp

	pathCounts := map[string]int{}
	mountCounts := map[string]int{}
	sessions := map[string]struct{}{}
	latencies := make([]int64, 0, len(entries))

	for _, entry := range entries {
		summary.Total++
		if entry.Timestamp.Before(summary.Start) {
			summary.Start = entry.Timestamp
		}
		if entry.Timestamp.After(summary.End) {
			summary.End = entry.Timestamp
		}

		switch {
		case entry.StatusCode >= 500:
			summary.ServerErrors++
		case entry.StatusCode >= 400:
			summary.ClientErrors++
		case entry.StatusCode >= 300:
			summary.Redirects++
		case entry.StatusCode >= 200:
			summary.OK++
		}

		summary.Rewrites += entry.Rewrites
		if entry.SessionID != "" {
			sessions[entry.SessionID] = struct{}{}
		}

		pathCounts[entry.Path]++
		if entry.Mount != "" {
			mountCounts[entry.Mount]++
		}

		latencies = append(latencies, entry.DurationMS)
	}

	summary.Sessions = len(sessions)
	summary.TopPaths = topCounts(pathCounts, 5)
	summary.TopMounts = topCounts(mountCounts, 5)
	summary.Latency = latencySummary(latencies)

	return summary
}

func topCounts(counts map[string]int, n int) []CountItem {
	items := make([]CountItem, 0, len(counts))
	for key, count := range counts {
		items = append(items, CountItem{Key: key, Count: count})
	}
	if len(items) == 0 {
		return nil
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Key < items[j].Key
		}
		return items[i].Count > items[j].Count
	})

	if len(items) > n {
		items = items[:n]
	}
	return items
}

func latencySummary(values []int64) LatencySummary {
	if len(values) == 0 {
		return LatencySummary{}
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return LatencySummary{
		P50: percentile(sorted, 0.50),
		P95: percentile(sorted, 0.95),
		P99: percentile(sorted, 0.99),
	}
}

func percentile(values []int64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	idx := int(float64(len(values)-1) * p)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return float64(values[idx])
}

func RenderText(summary Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total: %d\n", summary.Total)
	fmt.Fprintf(&b, "OK: %d\n", summary.OK)
	fmt.Fprintf(&b, "Redirects: %d\n", summary.Redirects)
	fmt.Fprintf(&b, "Client errors: %d\n", summary.ClientErrors)
	fmt.Fprintf(&b, "Server errors: %d\n", summary.ServerErrors)
	fmt.Fprintf(&b, "Links rewritten: %d\n", summary.Rewrites)
	fmt.Fprintf(&b, "Sessions: %d\n", summary.Sessions)
	fmt.Fprintf(&b, "Latency p50/p95/p99 (ms): %.0f/%.0f/%.0f\n", summary.Latency.P50, summary.Latency.P95, summary.Latency.P99)

	writeCounts(&b, "Top paths", summary.TopPaths)
	writeCounts(&b, "Top mounts", summary.TopMounts)

	return b.String()
}

func RenderMarkdown(summary Summary) string {
	var b strings.Builder
	b.WriteString("# Anyroot Report\n\n")
	b.WriteString("## Totals\n\n")
	fmt.Fprintf(&b, "- Total: %d\n", summary.Total)
	fmt.Fprintf(&b, "- OK: %d\n", summary.OK)
	fmt.Fprintf(&b, "- Redirects: %d\n", summary.Redirects)
	fmt.Fprintf(&b, "- Client errors: %d\n", summary.ClientErrors)
	fmt.Fprintf(&b, "- Server errors: %d\n", summary.ServerErrors)
	fmt.Fprintf(&b, "- Links rewritten: %d\n", summary.Rewrites)
	fmt.Fprintf(&b, "- Sessions: %d\n", summary.Sessions)
	fmt.Fprintf(&b, "- Latency p50/p95/p99 (ms): %.0f/%.0f/%.0f\n\n", summary.Latency.P50, summary.Latency.P95, summary.Latency.P99)

	writeCountsMarkdown(&b, "Top paths", summary.TopPaths)
	writeCountsMarkdown(&b, "Top mounts", summary.TopMounts)

	return b.String()
}

func RenderJSON(summary Summary) ([]byte, error) {
	return json.MarshalIndent(summary, "", "  ")
}

func writeCounts(b *strings.Builder, title string, items []CountItem) {
	if len(items) == 0 {
		fmt.Fprintf(b, "%s: none\n", title)
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s: %d\n", item.Key, item.Count)
	}
}

func writeCountsMarkdown(b *strings.Builder, title string, items []CountItem) {
	b.WriteString("## ")
	b.WriteString(title)
	b.WriteString("\n\n")
	if len(items) == 0 {
		b.WriteString("- none\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s: %d\n", item.Key, item.Count)
	}
	b.WriteString("\n")
}

func WriteOutput(path string, content []byte) error {
	if path == "" {
		_, err := io.Copy(os.Stdout, bytes.NewReader(content))
		return err
	}
	return os.WriteFile(path, content, 0o600)
}
