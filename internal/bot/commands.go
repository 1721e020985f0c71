package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/grading"
	"github.com/shrimpsizemoose/gradebook/internal/scoring"
)

const (
	studentHelp = `Available commands:
/start - Greeting
/help - Show this message`

	adminHelp = `Available commands:
/scorecard <email> - Current-year scorecard of a student
/attempts <exam_id> - Graded attempts of an exam
/quiztoken <quiz_uuid> <email> - Issue or show a quiz access token
/revoketoken <quiz_uuid> <email> - Drop a quiz access token
/help - Show this message

Examples:
/scorecard ada@school.test
/attempts 12
/quiztoken 5f0c2c1e-8d7b-4a8e-9a53-0c6f1d2b7e11 ada@school.test`
)

type commandHandler func(*tgbotapi.Message) error

func (b *Bot) routeStudentCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start": b.handleStart,
		"help":  b.handleHelp,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) routeAdminCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"scorecard":   b.handleScorecard,
		"attempts":    b.handleAttempts,
		"quiztoken":   b.handleQuizToken,
		"revoketoken": b.handleRevokeToken,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendHelp(msg.Chat.ID)
		return
	}

	cmd := msg.Command()

	if handler, ok := b.routeStudentCommands(cmd); ok {
		if err := handler(msg); err != nil {
			logger.Error.Printf("Command error: %v", err)
			b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
		}
		return
	}

	if b.admins[msg.From.ID] {
		if handler, ok := b.routeAdminCommands(cmd); ok {
			if err := handler(msg); err != nil {
				logger.Error.Printf("Command error: %v", err)
				b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
			}
			return
		}
	}

	b.sendHelp(msg.Chat.ID)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	var text string
	if b.admins[msg.From.ID] {
		text = adminHelp
	} else {
		text = studentHelp
	}

	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) sendHelp(chatID int64) error {
	return b.sendMessage(chatID, "Use commands to talk to the bot. Send /help for the list.")
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	text := "Hi! I report grades from the school gradebook.\n\n"
	if b.admins[msg.From.ID] {
		text += "You are a teacher here. Use /help for the list of commands."
	} else {
		text += "Ask your teacher to add you as an admin to see scorecards."
	}

	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) handleScorecard(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		return fmt.Errorf("usage: /scorecard <email>")
	}
	email := args[0]

	cards, err := b.gradebook.ScorecardForStudent(context.Background(), email)
	if errors.Is(err, grading.ErrStudentNotFound) {
		return b.sendMessage(msg.Chat.ID, fmt.Sprintf("No student with email %s", email))
	}
	if err != nil {
		return fmt.Errorf("failed to build scorecard: %w", err)
	}

	return b.sendMessage(msg.Chat.ID, formatScorecard(email, cards))
}

func formatScorecard(email string, cards []scoring.SemesterCard) string {
	if len(cards) == 0 {
		return fmt.Sprintf("No grades recorded for %s this year", email)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Scorecard of %s:\n", email))
	for _, sem := range cards {
		sb.WriteString(fmt.Sprintf("\n📚 %s: avg %.2f over %d (total %g)\n",
			sem.SemesterName,
			sem.SemesterAverage,
			sem.TotalSemesterAssignments,
			sem.TotalSemesterScore,
		))
		for _, sub := range sem.Subjects {
			sb.WriteString(fmt.Sprintf("  📝 %s: avg %.2f over %d\n", sub.SubjectName, sub.SubjectAverage, sub.TotalAssignments))
			for _, gt := range sub.GradeTypes {
				scores := make([]string, 0, len(gt.Assignments))
				for _, a := range gt.Assignments {
					scores = append(scores, fmt.Sprintf("%g/%g", a.Score, a.MaxScore))
				}
				sb.WriteString(fmt.Sprintf("    %s: %s\n", gt.Type, strings.Join(scores, ", ")))
			}
		}
	}
	return sb.String()
}

func (b *Bot) handleAttempts(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		return fmt.Errorf("usage: /attempts <exam_id>")
	}
	examID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid exam id %q: %v", args[0], err)
	}

	attempts, err := b.gradebook.ListAttempts(context.Background(), examID)
	if errors.Is(err, grading.ErrExamNotFound) {
		return b.sendMessage(msg.Chat.ID, fmt.Sprintf("Exam %d not found", examID))
	}
	if err != nil {
		return fmt.Errorf("failed to list attempts: %w", err)
	}

	if len(attempts) == 0 {
		return b.sendMessage(msg.Chat.ID, fmt.Sprintf("No attempts for exam %d yet", examID))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Attempts for exam %d:\n\n", examID))
	for _, a := range attempts {
		sb.WriteString(fmt.Sprintf("👉🏻 %s: %g (%s UTC)\n", a.Email, a.Score, a.CreatedAt.UTC().Format("2006-Jan-02 15:04")))
	}

	return b.sendMessage(msg.Chat.ID, sb.String())
}

func (b *Bot) handleQuizToken(msg *tgbotapi.Message) error {
	if b.tokens == nil {
		return b.sendMessage(msg.Chat.ID, "Quiz tokens are disabled: no redis configured")
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		return fmt.Errorf("usage: /quiztoken <quiz_uuid> <email>")
	}
	quiz, email := args[0], args[1]

	ctx := context.Background()
	conn := b.store.Conn()

	exam, err := b.store.GetExamByUUID(ctx, conn, quiz)
	if err != nil {
		return fmt.Errorf("failed to look up quiz %s: %w", quiz, err)
	}
	if exam == nil {
		return b.sendMessage(msg.Chat.ID, fmt.Sprintf("Quiz %s not found", quiz))
	}

	student, err := b.store.GetStudentByEmail(ctx, conn, email)
	if err != nil {
		return fmt.Errorf("failed to look up student %s: %w", email, err)
	}
	if student == nil {
		return b.sendMessage(msg.Chat.ID, fmt.Sprintf("No student with email %s", email))
	}

	token, isNew, err := b.tokens.FetchOrCreateQuizToken(ctx, quiz, email)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	action := "issued"
	if !isNew {
		action = "already issued"
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ Token for %s on %q %s:\n%s\n\nSend it in the %s header. Requested %d time(s).",
		email,
		exam.Title,
		action,
		token.Token,
		b.config.Auth.TokenHeader,
		token.RequestCount,
	))
}

func (b *Bot) handleRevokeToken(msg *tgbotapi.Message) error {
	if b.tokens == nil {
		return b.sendMessage(msg.Chat.ID, "Quiz tokens are disabled: no redis configured")
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		return fmt.Errorf("usage: /revoketoken <quiz_uuid> <email>")
	}

	if err := b.tokens.RevokeQuizToken(context.Background(), args[0], args[1]); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("🗑 Token for %s on %s revoked", args[1], args[0]))
}

func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}
