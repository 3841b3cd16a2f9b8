// Package report renders a checker.Report for humans or machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"statuscheck/config"
	"statuscheck/internal/checker"
)

const rule = "============================================================"

// Write renders r to w in the given format.
func Write(w io.Writer, r *checker.Report, format string) error {
	switch format {
	case config.FormatText, "":
		return WriteText(w, r)
	case config.FormatJSON:
		return WriteJSON(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteText prints one line per check followed by an overall verdict.
func WriteText(w io.Writer, r *checker.Report) error {
	var b strings.Builder

	b.WriteString(rule + "\n")
	b.WriteString("📊 Test Results Summary\n")
	fmt.Fprintf(&b, "Target: %s\n", r.BaseURL)
	b.WriteString(rule + "\n")

	for _, res := range r.Results {
		status := "✅ PASS"
		if !res.Passed {
			status = "❌ FAIL"
		}
		fmt.Fprintf(&b, "%s: %s", TitleCase(res.Name), status)
		if !res.Passed && res.Detail != "" {
			fmt.Fprintf(&b, " (%s: %s)", res.Kind, res.Detail)
		}
		b.WriteByte('\n')
	}

	b.WriteString("\n" + rule + "\n")
	if r.AllPassed() {
		b.WriteString("🎉 All backend tests PASSED!\n")
	} else {
		fmt.Fprintf(&b, "⚠️  Some backend tests FAILED! (%d of %d)\n", len(r.Failed()), len(r.Results))
	}
	b.WriteString(rule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

type jsonCheck struct {
	Name       string `json:"name"`
	Passed     bool   `json:"passed"`
	Kind       string `json:"kind,omitempty"`
	Detail     string `json:"detail,omitempty"`
	ID         string `json:"id,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type jsonReport struct {
	BaseURL    string      `json:"base_url"`
	Passed     bool        `json:"passed"`
	StartedAt  time.Time   `json:"started_at"`
	DurationMS int64       `json:"duration_ms"`
	Checks     []jsonCheck `json:"checks"`
}

// WriteJSON emits the report as one indented JSON document.
func WriteJSON(w io.Writer, r *checker.Report) error {
	out := jsonReport{
		BaseURL:    r.BaseURL,
		Passed:     r.AllPassed(),
		StartedAt:  r.StartedAt.UTC(),
		DurationMS: r.Duration.Milliseconds(),
		Checks:     make([]jsonCheck, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		out.Checks = append(out.Checks, jsonCheck{
			Name:       res.Name,
			Passed:     res.Passed,
			Kind:       string(res.Kind),
			Detail:     res.Detail,
			ID:         res.ID,
			DurationMS: res.Duration.Milliseconds(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// TitleCase turns "root_endpoint" into "Root Endpoint".
func TitleCase(name string) string {
	words := strings.Split(name, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
