package ai

import (
	"fmt"
	"strings"
	"time"
)

const systemPrompt = "You are a scheduling assistant for a personal day planner."

func formatTask(t TaskSummary) string {
	line := fmt.Sprintf("- %s | priority=%s, planned=%dm, energy=%s", t.Title, t.Priority, t.Minutes, t.Energy)
	if t.Deadline != nil {
		line += ", deadline=" + t.Deadline.Format(time.RFC3339)
	}
	return line
}

// BuildPrompt renders the planning instructions for req.
func BuildPrompt(req PlanRequest) string {
	var b strings.Builder
	b.WriteString("You are an empathetic scheduling assistant.\n")
	b.WriteString("Create an optimized, conflict-free day plan entirely within the timeframe.\n")
	fmt.Fprintf(&b, "Mode: %s. Timeframe: %s to %s.\n", req.Mode, req.DayStart, req.DayEnd)
	b.WriteString("Rules: Respect deadlines, balance energy, cluster deep work, include short breaks, and note assumptions.\n")
	b.WriteString("IMPORTANT OUTPUT FORMAT: Respond ONLY with JSON using this schema:\n")
	b.WriteString("{\n  \"items\": [ { \"title\": \"...\", \"start\": \"HH:MM\", \"end\": \"HH:MM\" }, ... ],\n  \"notes\": \"any brief notes or assumptions\"\n}\n")
	b.WriteString("Ensure all times use 24h format HH:MM, are ordered, non-overlapping, and within the timeframe.\n")
	b.WriteString("Tasks:\n")
	if len(req.Tasks) == 0 {
		b.WriteString("(no tasks provided)")
		return b.String()
	}
	lines := make([]string, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		lines = append(lines, formatTask(t))
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}
