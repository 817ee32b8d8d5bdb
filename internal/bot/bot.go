package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-planner/internal/model"
	"daily-planner/internal/repository"
	"daily-planner/internal/service"
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
	cbReplanPrefix   = "replan:"
)

type confirmationAction int

const (
	actionComplete confirmationAction = iota
	actionDelete
)

type confirmationRequest struct {
	taskID uint
	action confirmationAction
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	userRepo      *repository.UserRepository
	taskSvc       *service.TaskService
	scheduleSvc   *service.ScheduleService
	reminderSvc   *service.ReminderService
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(token string, userRepo *repository.UserRepository, taskSvc *service.TaskService, scheduleSvc *service.ScheduleService, reminderSvc *service.ReminderService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		userRepo:      userRepo,
		taskSvc:       taskSvc,
		scheduleSvc:   scheduleSvc,
		reminderSvc:   reminderSvc,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if state := b.getConversation(msg.From.ID); state != nil {
		log.Printf("[info] conversation step %d from %d", state.stage, msg.From.ID)
		return b.handleConversation(ctx, msg, state)
	}

	return b.sendText(msg.Chat.ID, "I didn't get that. Send /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "plan":
		return b.handlePlan(ctx, msg.Chat.ID, msg.CommandArguments(), false)
	case "replan":
		return b.handlePlan(ctx, msg.Chat.ID, msg.CommandArguments(), true)
	case "month":
		return b.handleMonth(ctx, msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "tasks":
		return b.sendTaskList(ctx, msg.Chat.ID)
	case "complete":
		return b.handleTaskCommand(ctx, msg, actionComplete)
	case "delete":
		return b.handleTaskCommand(ctx, msg, actionDelete)
	case "dailyplan":
		return b.handleDailyPlan(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelPlan:
		return true, b.handlePlan(ctx, msg.Chat.ID, "", false)
	case menuLabelNew:
		return true, b.startNewTaskConversation(ctx, msg)
	case menuLabelTasks:
		return true, b.sendTaskList(ctx, msg.Chat.ID)
	case menuLabelHelp:
		return true, b.handleHelp(msg)
	}
	return false, nil
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I turn your task list into a timed plan for the day.</b>\n\n", escape(name)) +
		helpText + "\n\nThe plan for today arrives every morning. Turn it off with /dailyplan off."
	return b.sendText(msg.Chat.ID, text)
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /plan [YYYY-MM-DD] — show the plan of a day\n" +
	"• /replan [YYYY-MM-DD] — build the plan again\n" +
	"• /newtask — add a task step by step\n" +
	"• /tasks — open tasks with complete buttons\n" +
	"• /complete &lt;id&gt; — mark a task done\n" +
	"• /delete &lt;id&gt; — delete a task\n" +
	"• /month [YYYY-MM] — planned minutes per day\n" +
	"• /dailyplan on|off — morning plan message\n" +
	"• /cancel — cancel the current input"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, helpText)
}

func (b *Bot) handlePlan(ctx context.Context, chatID int64, arg string, regenerate bool) error {
	day, err := b.scheduleSvc.ParseDate(arg)
	if err != nil {
		return b.sendText(chatID, "Use a date like <code>2025-11-30</code>.")
	}
	if regenerate {
		if _, err := b.taskSvc.CleanupExpired(ctx); err != nil {
			return err
		}
		if _, err := b.scheduleSvc.Synthesize(ctx, day); err != nil {
			return b.sendText(chatID, fmt.Sprintf("Could not build the plan: %s", escape(err.Error())))
		}
	}
	text, err := b.reminderSvc.DailySummary(ctx, day, time.Now())
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not build the plan: %s", escape(err.Error())))
	}
	return b.sendWithReplyMarkup(chatID, text, planKeyboard(day.Format(model.DateLayout)))
}

func (b *Bot) handleMonth(ctx context.Context, msg *tgbotapi.Message) error {
	year, month, err := parseMonthArg(msg.CommandArguments(), b.scheduleSvc.Today())
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}
	summary, err := b.scheduleSvc.MonthSummary(ctx, year, month)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, formatMonth(summary.Year, summary.Month, summary.MinutesByDay))
}

func (b *Bot) handleDailyPlan(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(msg.CommandArguments())) {
	case "on":
		err = b.userRepo.SetDailyPlan(ctx, user, true)
	case "off":
		err = b.userRepo.SetDailyPlan(ctx, user, false)
	case "":
	default:
		return b.sendText(msg.Chat.ID, "Use /dailyplan on or /dailyplan off.")
	}
	if err != nil {
		return err
	}
	state := "off"
	if user.DailyPlan {
		state = "on"
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Morning plan message is <b>%s</b>.", state))
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	log.Printf("[info] start new task conversation user=%d", msg.From.ID)
	b.clearConfirmation(msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	r := state.advance(msg.Text, b.scheduleSvc.Location())
	if !r.done {
		if r.markup == nil {
			b.clearConversation(msg.From.ID)
			return b.sendText(msg.Chat.ID, r.text)
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, r.text, r.markup)
	}
	b.clearConversation(msg.From.ID)

	task, err := b.taskSvc.CreateTask(ctx, state.input)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not save the task: %s", escape(err.Error())))
	}
	log.Printf("[info] task created id=%d user=%d", task.ID, msg.From.ID)

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(task.Title)))
	summary.WriteString(fmt.Sprintf("• <b>Priority:</b> %s\n", task.Priority))
	summary.WriteString(fmt.Sprintf("• <b>Minutes:</b> %d\n", task.EffectiveMinutes()))
	summary.WriteString(fmt.Sprintf("• <b>Time of day:</b> %s\n", task.TimeOfDay))
	if task.Deadline != nil {
		summary.WriteString(fmt.Sprintf("• <b>Deadline:</b> %s\n", task.Deadline.In(b.scheduleSvc.Location()).Format("2006-01-02 15:04")))
	}
	if err := b.sendText(msg.Chat.ID, strings.TrimSpace(summary.String())); err != nil {
		return err
	}
	return b.sendTaskList(ctx, msg.Chat.ID)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64) error {
	if _, err := b.taskSvc.CleanupExpired(ctx); err != nil {
		return err
	}
	tasks, err := b.taskSvc.ListOpen(ctx)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "No open tasks. Add one with /newtask.")
	}

	now := time.Now().In(b.scheduleSvc.Location())
	var builder strings.Builder
	builder.WriteString("📋 <b>Open tasks</b>\n")
	builder.WriteString("Tap a button to complete or delete a task.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, group := range groupByTimeOfDay(tasks) {
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", group.Name))
		for _, task := range group.Tasks {
			builder.WriteString(formatTask(task, now))
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 20)), fmt.Sprintf("%s%d", cbCompletePrefix, task.ID)),
				tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
			))
		}
		builder.WriteByte('\n')
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleTaskCommand(ctx context.Context, msg *tgbotapi.Message, action confirmationAction) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Give the task ID: /%s 12", msg.Command()))
	}
	taskID, err := parseTaskID(args, "")
	if err != nil {
		return b.sendText(msg.Chat.ID, "The task ID must be a number.")
	}
	if action == actionDelete {
		return b.askConfirmation(ctx, msg.Chat.ID, msg.From, taskID, actionDelete)
	}
	return b.completeTask(ctx, msg.Chat.ID, taskID)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("answer callback: %v", err)
	}
	chatID := cb.Message.Chat.ID

	switch {
	case strings.HasPrefix(cb.Data, cbCompletePrefix):
		taskID, err := parseTaskID(cb.Data, cbCompletePrefix)
		if err != nil {
			return err
		}
		return b.askConfirmation(ctx, chatID, cb.From, taskID, actionComplete)
	case strings.HasPrefix(cb.Data, cbDeletePrefix):
		taskID, err := parseTaskID(cb.Data, cbDeletePrefix)
		if err != nil {
			return err
		}
		return b.askConfirmation(ctx, chatID, cb.From, taskID, actionDelete)
	case strings.HasPrefix(cb.Data, cbReplanPrefix):
		return b.handlePlan(ctx, chatID, strings.TrimPrefix(cb.Data, cbReplanPrefix), true)
	}
	return nil
}

func (b *Bot) askConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint, action confirmationAction) error {
	task, err := b.taskSvc.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, "Task not found.")
		}
		return err
	}
	b.clearConversation(from.ID)
	b.setConfirmation(from.ID, confirmationRequest{taskID: taskID, action: action})

	verb := "Complete"
	if action == actionDelete {
		verb = "Delete"
	}
	text := fmt.Sprintf("%s task <b>#%d</b> «%s»?", verb, task.ID, escape(task.Title))
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	switch text := msg.Text; {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionDelete {
			return b.deleteTask(ctx, msg.Chat.ID, req.taskID)
		}
		return b.completeTask(ctx, msg.Chat.ID, req.taskID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "🔹 Main menu")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or go back.", confirmKeyboard())
	}
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, taskID uint) error {
	task, err := b.taskSvc.CompleteTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, "Task not found.")
		}
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	log.Printf("[info] task completed id=%d", task.ID)
	return b.sendText(chatID, fmt.Sprintf("✅ Task «%s» is done.", escape(task.Title)))
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, taskID uint) error {
	if err := b.taskSvc.DeleteTask(ctx, taskID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, "Task not found.")
		}
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	log.Printf("[info] task deleted id=%d", taskID)
	return b.sendText(chatID, "🗑 Task #"+strconv.FormatUint(uint64(taskID), 10)+" deleted.")
}

// SendDailyPlans sends today's plan to every subscribed user.
func (b *Bot) SendDailyPlans(ctx context.Context) error {
	users, err := b.userRepo.ListPlanSubscribers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}
	now := time.Now()
	text, err := b.reminderSvc.DailySummary(ctx, now, now)
	if err != nil {
		return err
	}
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			log.Printf("send plan to %d: %v", user.TelegramID, err)
		}
	}
	return nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
