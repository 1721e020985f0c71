package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/gradebook/internal/grading"
	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/scoring"
	"github.com/shrimpsizemoose/gradebook/internal/store/sqlite"
)

const adminID = 42

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type MockGradebook struct {
	mock.Mock
}

func (m *MockGradebook) ScorecardForStudent(ctx context.Context, email string) ([]scoring.SemesterCard, error) {
	args := m.Called(ctx, email)
	cards, _ := args.Get(0).([]scoring.SemesterCard)
	return cards, args.Error(1)
}

func (m *MockGradebook) ListAttempts(ctx context.Context, examID int64) ([]models.AttemptSummary, error) {
	args := m.Called(ctx, examID)
	attempts, _ := args.Get(0).([]models.AttemptSummary)
	return attempts, args.Error(1)
}

type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) FetchOrCreateQuizToken(ctx context.Context, quiz, student string) (*models.QuizToken, bool, error) {
	args := m.Called(ctx, quiz, student)
	token, _ := args.Get(0).(*models.QuizToken)
	return token, args.Bool(1), args.Error(2)
}

func (m *MockTokens) RevokeQuizToken(ctx context.Context, quiz, student string) error {
	args := m.Called(ctx, quiz, student)
	return args.Error(0)
}

func command(from int64, text string) *tgbotapi.Message {
	cmdLen := strings.IndexByte(text, ' ')
	if cmdLen < 0 {
		cmdLen = len(text)
	}
	return &tgbotapi.Message{
		Text:     text,
		From:     &tgbotapi.User{ID: from},
		Chat:     &tgbotapi.Chat{ID: 1},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

type testBot struct {
	bot       *Bot
	sender    *fakeSender
	gradebook *MockGradebook
	tokens    *MockTokens
	quiz      *models.Exam
}

func setupBot(t *testing.T) *testBot {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewSQLiteStore(":memory:", "../../migrations")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	conn := st.Conn()
	require.NoError(t, st.CreateStudent(ctx, conn, &models.Student{Email: "ada@school.test"}))
	subject := &models.Subject{Name: "History"}
	require.NoError(t, st.CreateSubject(ctx, conn, subject))
	quiz := &models.Exam{SubjectID: subject.ID, Title: "Dates quiz", ExamType: models.ExamTypeQuiz}
	require.NoError(t, st.CreateExam(ctx, conn, quiz))

	cfg := &Config{}
	cfg.Bot.AdminIDs = []int64{adminID}
	cfg.Auth.TokenHeader = "X-Quiz-Token"

	tb := &testBot{
		sender:    &fakeSender{},
		gradebook: &MockGradebook{},
		tokens:    &MockTokens{},
		quiz:      quiz,
	}
	tb.bot = newBot(cfg, st, tb.gradebook, tb.tokens, tb.sender)
	return tb
}

func TestHandleMessage_Routing(t *testing.T) {
	tb := setupBot(t)

	tb.bot.handleMessage(command(7, "/help"))
	assert.Equal(t, studentHelp, tb.sender.last())

	tb.bot.handleMessage(command(adminID, "/help"))
	assert.Equal(t, adminHelp, tb.sender.last())

	tb.bot.handleMessage(command(7, "/scorecard ada@school.test"))
	assert.Contains(t, tb.sender.last(), "/help for the list")
	tb.gradebook.AssertNotCalled(t, "ScorecardForStudent", mock.Anything, mock.Anything)

	tb.bot.handleMessage(&tgbotapi.Message{Text: "hello", From: &tgbotapi.User{ID: 7}, Chat: &tgbotapi.Chat{ID: 1}})
	assert.Contains(t, tb.sender.last(), "/help for the list")
}

func TestHandleScorecard(t *testing.T) {
	tb := setupBot(t)

	cards := scoring.BuildScorecard([]models.GradeRow{
		{SemesterID: 1, SemesterName: "Fall", SubjectID: 2, SubjectName: "History", Type: "exam", Grade: 8, MaxScore: 10},
		{SemesterID: 1, SemesterName: "Fall", SubjectID: 2, SubjectName: "History", Type: "quiz", Grade: 3, MaxScore: 5},
	})
	tb.gradebook.On("ScorecardForStudent", mock.Anything, "ada@school.test").Return(cards, nil)
	tb.gradebook.On("ScorecardForStudent", mock.Anything, "ghost@school.test").Return(nil, grading.ErrStudentNotFound)

	tb.bot.handleMessage(command(adminID, "/scorecard ada@school.test"))
	text := tb.sender.last()
	assert.Contains(t, text, "Scorecard of ada@school.test")
	assert.Contains(t, text, "Fall: avg 5.50 over 2 (total 11)")
	assert.Contains(t, text, "exam: 8/10")
	assert.Contains(t, text, "quiz: 3/5")

	tb.bot.handleMessage(command(adminID, "/scorecard ghost@school.test"))
	assert.Equal(t, "No student with email ghost@school.test", tb.sender.last())

	tb.bot.handleMessage(command(adminID, "/scorecard"))
	assert.Contains(t, tb.sender.last(), "usage: /scorecard")
}

func TestFormatScorecard_Empty(t *testing.T) {
	assert.Equal(t, "No grades recorded for ada@school.test this year", formatScorecard("ada@school.test", nil))
}

func TestHandleAttempts(t *testing.T) {
	tb := setupBot(t)

	tb.gradebook.On("ListAttempts", mock.Anything, int64(3)).Return([]models.AttemptSummary{
		{AttemptID: 1, Email: "ada@school.test", Score: 12.5, CreatedAt: time.Date(2024, 10, 1, 9, 30, 0, 0, time.UTC)},
	}, nil)
	tb.gradebook.On("ListAttempts", mock.Anything, int64(4)).Return([]models.AttemptSummary{}, nil)
	tb.gradebook.On("ListAttempts", mock.Anything, int64(5)).Return(nil, grading.ErrExamNotFound)

	tb.bot.handleMessage(command(adminID, "/attempts 3"))
	assert.Contains(t, tb.sender.last(), "ada@school.test: 12.5 (2024-Oct-01 09:30 UTC)")

	tb.bot.handleMessage(command(adminID, "/attempts 4"))
	assert.Equal(t, "No attempts for exam 4 yet", tb.sender.last())

	tb.bot.handleMessage(command(adminID, "/attempts 5"))
	assert.Equal(t, "Exam 5 not found", tb.sender.last())

	tb.bot.handleMessage(command(adminID, "/attempts five"))
	assert.Contains(t, tb.sender.last(), "invalid exam id")
}

func TestHandleQuizToken(t *testing.T) {
	tb := setupBot(t)

	tb.tokens.On("FetchOrCreateQuizToken", mock.Anything, tb.quiz.UUID, "ada@school.test").
		Return(&models.QuizToken{Token: "qz-abc", RequestCount: 1}, true, nil).Once()

	tb.bot.handleMessage(command(adminID, "/quiztoken "+tb.quiz.UUID+" ada@school.test"))
	text := tb.sender.last()
	assert.Contains(t, text, "qz-abc")
	assert.Contains(t, text, `"Dates quiz" issued`)
	assert.Contains(t, text, "X-Quiz-Token")

	tb.bot.handleMessage(command(adminID, "/quiztoken no-such-quiz ada@school.test"))
	assert.Equal(t, "Quiz no-such-quiz not found", tb.sender.last())

	tb.bot.handleMessage(command(adminID, "/quiztoken "+tb.quiz.UUID+" ghost@school.test"))
	assert.Equal(t, "No student with email ghost@school.test", tb.sender.last())

	tb.tokens.AssertNumberOfCalls(t, "FetchOrCreateQuizToken", 1)
}

func TestHandleQuizToken_Disabled(t *testing.T) {
	tb := setupBot(t)
	tb.bot.tokens = nil

	tb.bot.handleMessage(command(adminID, "/quiztoken "+tb.quiz.UUID+" ada@school.test"))
	assert.Contains(t, tb.sender.last(), "disabled")
}

func TestHandleRevokeToken(t *testing.T) {
	tb := setupBot(t)

	tb.tokens.On("RevokeQuizToken", mock.Anything, tb.quiz.UUID, "ada@school.test").Return(nil).Once()

	tb.bot.handleMessage(command(adminID, "/revoketoken "+tb.quiz.UUID+" ada@school.test"))
	assert.Contains(t, tb.sender.last(), "revoked")

	tb.bot.handleMessage(command(adminID, "/revoketoken "+tb.quiz.UUID))
	assert.Contains(t, tb.sender.last(), "usage: /revoketoken")

	tb.tokens.AssertExpectations(t)
}
