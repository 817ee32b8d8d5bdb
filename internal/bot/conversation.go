package bot

import (
	"strconv"
	"strings"
	"time"

	"daily-planner/internal/model"
	"daily-planner/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stagePriority
	stageMinutes
	stageTimeOfDay
	stageDeadline
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

// reply is what the bot answers to one conversation step.
type reply struct {
	text   string
	markup interface{}
	done   bool
}

// advance consumes one answer of the new-task dialog. When done is set the
// input is complete and ready to be saved.
func (s *conversationState) advance(text string, loc *time.Location) reply {
	text = strings.TrimSpace(text)
	switch s.stage {
	case stageTitle:
		if text == "" {
			return reply{text: "The title can't be empty. What should the task be called?", markup: cancelKeyboard()}
		}
		s.input.Title = text
		s.stage = stagePriority
		return reply{text: "🔥 <b>Step 2:</b> how important is it?", markup: priorityKeyboard()}
	case stagePriority:
		if !isSkipInput(text) {
			priority := stripIcon(text)
			if !isKnownPriority(priority) {
				return reply{text: "Pick High, Medium or Low.", markup: priorityKeyboard()}
			}
			s.input.Priority = priority
		}
		s.stage = stageMinutes
		return reply{text: "⏱ <b>Step 3:</b> how many minutes a day should it get?", markup: minutesKeyboard()}
	case stageMinutes:
		if !isSkipInput(text) {
			minutes, err := strconv.Atoi(text)
			if err != nil || minutes <= 0 || minutes > 24*60 {
				return reply{text: "Send a number of minutes, for example <code>45</code>.", markup: minutesKeyboard()}
			}
			s.input.DurationMinutes = minutes
		}
		s.stage = stageTimeOfDay
		return reply{text: "🌤 <b>Step 4:</b> when do you prefer to work on it?", markup: timeOfDayKeyboard()}
	case stageTimeOfDay:
		if !isSkipInput(text) {
			s.input.TimeOfDay = string(model.ParseTimeOfDay(text))
		}
		s.stage = stageDeadline
		return reply{text: "⏰ <b>Step 5:</b> deadline as <code>2025-11-30</code> or <code>2025-11-30 18:00</code>?", markup: skipKeyboard()}
	case stageDeadline:
		if !isSkipInput(text) {
			deadline, err := service.ParseDeadline(text, loc)
			if err != nil || deadline == nil {
				return reply{text: "I can't read that date. Use <code>2025-11-30</code> or skip.", markup: skipKeyboard()}
			}
			s.input.Deadline = deadline
		}
		s.stage = stageNone
		return reply{done: true}
	default:
		return reply{text: "The dialog was reset. Start again with /newtask."}
	}
}

func isKnownPriority(s string) bool {
	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow} {
		if strings.EqualFold(s, string(p)) {
			return true
		}
	}
	return false
}

// stripIcon drops a leading emoji added by keyboard buttons.
func stripIcon(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 && s[0] >= 0x80 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

func isSkipInput(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	return lower == strings.ToLower(btnSkip) || lower == "skip" || lower == "-"
}

func isCancelDialogInput(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), btnCancelDialog)
}

func isConfirmInput(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	return lower == strings.ToLower(btnConfirm) || lower == "yes" || lower == "y"
}

func isCancelInput(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	return lower == strings.ToLower(btnCancel) || lower == "no" || lower == "n"
}
