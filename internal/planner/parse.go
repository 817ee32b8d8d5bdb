package planner

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"daily-planner/internal/model"
)

// Candidate is a block proposed by plan text, before it is fitted into the
// focus window.
type Candidate struct {
	Title string
	Start Clock
	End   Clock
}

// Block is a concrete schedule entry on a specific date.
type Block struct {
	Title    string
	Start    time.Time
	End      time.Time
	Position int
	Task     *model.Task
}

type planItem struct {
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type planDoc struct {
	Items []json.RawMessage `json:"items"`
	Notes string            `json:"notes"`
}

// ParseStructured reads a JSON plan of the form
// {"items":[{"title":..,"start":"HH:MM","end":"HH:MM"}],"notes":..}
// or a bare array of items. Items with a missing field or a bad time are
// skipped.
func ParseStructured(text string) []Candidate {
	raw, ok := decodeItems(text)
	if !ok {
		return nil
	}
	var out []Candidate
	for _, r := range raw {
		var it planItem
		if err := json.Unmarshal(r, &it); err != nil {
			continue
		}
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		start, okStart := ParseClock(it.Start)
		end, okEnd := ParseClock(it.End)
		if !okStart || !okEnd {
			continue
		}
		out = append(out, Candidate{Title: title, Start: start, End: end})
	}
	return out
}

func decodeItems(text string) ([]json.RawMessage, bool) {
	body := stripFences(text)
	if items, ok := decodeDoc(body); ok {
		return items, true
	}
	// Generators sometimes wrap the object in prose.
	if i, j := strings.Index(body, "{"), strings.LastIndex(body, "}"); i >= 0 && j > i {
		return decodeDoc(body[i : j+1])
	}
	return nil, false
}

func decodeDoc(body string) ([]json.RawMessage, bool) {
	body = strings.TrimSpace(body)
	if strings.HasPrefix(body, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(body), &items); err != nil {
			return nil, false
		}
		return items, true
	}
	var doc planDoc
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, false
	}
	return doc.Items, doc.Items != nil
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var lineBlock = regexp.MustCompile(`^\s*(?:[-*•]\s+|\d+[.)]\s+)?(\d{1,2}:\d{2})\s*[-–—]\s*(\d{1,2}:\d{2})\s*[|:-]?\s*(.+?)\s*$`)

// ParseText scans free-form text for lines like "09:00-10:00 Deep work".
// Hyphen, en dash and em dash are accepted between the times, and a pipe,
// colon or hyphen may separate the title.
func ParseText(text string) []Candidate {
	var out []Candidate
	for _, line := range strings.Split(text, "\n") {
		m := lineBlock.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start, okStart := ParseClock(m[1])
		end, okEnd := ParseClock(m[2])
		title := strings.TrimSpace(m[3])
		if !okStart || !okEnd || title == "" {
			continue
		}
		out = append(out, Candidate{Title: title, Start: start, End: end})
	}
	return out
}

// Place clamps candidates into the window on day and numbers the survivors
// densely from zero. Candidates are taken in order; one that starts before
// the previous survivor ends is dropped, so blocks never overlap.
func Place(cands []Candidate, day time.Time, w Window) []Block {
	var out []Block
	for _, c := range cands {
		start, end, ok := w.Clamp(day, c.Start, c.End)
		if !ok {
			continue
		}
		if n := len(out); n > 0 && start.Before(out[n-1].End) {
			continue
		}
		out = append(out, Block{Title: c.Title, Start: start, End: end, Position: len(out)})
	}
	return out
}
