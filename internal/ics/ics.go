// Package ics reads and writes the small subset of iCalendar the planner
// exchanges with other calendars: VEVENT blocks with a summary and a
// start and end instant.
package ics

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	utcLayout      = "20060102T150405Z"
	floatingLayout = "20060102T150405"
	defaultTitle   = "Event"
	prodID         = "-//Daily Planner//Schedule Export//EN"
)

// Event is one VEVENT.
type Event struct {
	UID   string
	Title string
	Start time.Time
	End   time.Time
}

// Parse extracts events from an iCalendar stream. Times without a Z suffix
// or TZID are read in loc. Events missing a start or an end are dropped,
// events without a summary are titled "Event".
func Parse(r io.Reader, loc *time.Location) ([]Event, error) {
	if loc == nil {
		loc = time.Local
	}
	lines, err := unfold(r)
	if err != nil {
		return nil, fmt.Errorf("read ics: %w", err)
	}

	var (
		events []Event
		cur    *Event
	)
	for _, line := range lines {
		name, params, value, ok := splitProperty(line)
		if !ok {
			continue
		}
		switch {
		case name == "BEGIN" && strings.EqualFold(value, "VEVENT"):
			cur = &Event{}
		case name == "END" && strings.EqualFold(value, "VEVENT"):
			if cur != nil && !cur.Start.IsZero() && !cur.End.IsZero() {
				if strings.TrimSpace(cur.Title) == "" {
					cur.Title = defaultTitle
				}
				events = append(events, *cur)
			}
			cur = nil
		case cur == nil:
		case name == "SUMMARY":
			cur.Title = unescapeText(value)
		case name == "UID":
			cur.UID = value
		case name == "DTSTART":
			cur.Start = parseTime(value, params, loc)
		case name == "DTEND":
			cur.End = parseTime(value, params, loc)
		}
	}
	return events, nil
}

// unfold joins continuation lines, which start with a space or a tab.
func unfold(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && len(lines) > 0 {
			lines[len(lines)-1] += line[1:]
			continue
		}
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

// splitProperty splits "NAME;P=V:value" into its parts.
func splitProperty(line string) (name string, params map[string]string, value string, ok bool) {
	colon := strings.Index(line, ":")
	if colon < 0 {
		return "", nil, "", false
	}
	head := strings.Split(line[:colon], ";")
	name = strings.ToUpper(strings.TrimSpace(head[0]))
	params = make(map[string]string, len(head)-1)
	for _, p := range head[1:] {
		if k, v, found := strings.Cut(p, "="); found {
			params[strings.ToUpper(k)] = strings.Trim(v, `"`)
		}
	}
	return name, params, strings.TrimSpace(line[colon+1:]), true
}

func parseTime(value string, params map[string]string, loc *time.Location) time.Time {
	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse(utcLayout, value)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	if tzid := params["TZID"]; tzid != "" {
		if tz, err := time.LoadLocation(tzid); err == nil {
			loc = tz
		}
	}
	t, err := time.ParseInLocation(floatingLayout, value, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Write renders events as a VCALENDAR with CRLF line endings and UTC times.
func Write(w io.Writer, events []Event, now time.Time) error {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + prodID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}
	for _, ev := range events {
		uid := ev.UID
		if uid == "" {
			uid = UID(ev.Title, ev.Start.UTC().Format(utcLayout))
		}
		lines = append(lines,
			"BEGIN:VEVENT",
			"UID:"+escapeText(uid),
			"DTSTAMP:"+now.UTC().Format(utcLayout),
			"SUMMARY:"+escapeText(ev.Title),
			"DTSTART:"+ev.Start.UTC().Format(utcLayout),
			"DTEND:"+ev.End.UTC().Format(utcLayout),
			"END:VEVENT",
		)
	}
	lines = append(lines, "END:VCALENDAR", "")

	if _, err := io.WriteString(w, strings.Join(lines, "\r\n")); err != nil {
		return fmt.Errorf("write ics: %w", err)
	}
	return nil
}

// UID derives a stable event identifier from parts.
func UID(parts ...string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("daily-planner:"+strings.Join(parts, "/")))
	return id.String() + "@daily-planner"
}

func escapeText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}

func unescapeText(s string) string {
	repl := strings.NewReplacer(
		"\\\\", "\\",
		"\\;", ";",
		"\\,", ",",
		"\\n", "\n",
		"\\N", "\n",
	)
	return repl.Replace(s)
}
