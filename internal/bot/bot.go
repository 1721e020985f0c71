package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/scoring"
	"github.com/shrimpsizemoose/gradebook/internal/store"
)

// Gradebook is the read side of the grading service the bot reports from.
type Gradebook interface {
	ScorecardForStudent(ctx context.Context, email string) ([]scoring.SemesterCard, error)
	ListAttempts(ctx context.Context, examID int64) ([]models.AttemptSummary, error)
}

type QuizTokens interface {
	FetchOrCreateQuizToken(ctx context.Context, quiz, student string) (*models.QuizToken, bool, error)
	RevokeQuizToken(ctx context.Context, quiz, student string) error
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	config    *Config
	store     store.GradeStore
	gradebook Gradebook
	tokens    QuizTokens
	api       sender
	updates   func() tgbotapi.UpdatesChannel
	admins    map[int64]bool
}

// New connects to Telegram. tokens may be nil when no redis is configured;
// /quiztoken then reports that tokens are disabled.
func New(config *Config, store store.GradeStore, gradebook Gradebook, tokens QuizTokens) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(config.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	b := newBot(config, store, gradebook, tokens, api)
	b.updates = func() tgbotapi.UpdatesChannel {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		return api.GetUpdatesChan(u)
	}
	return b, nil
}

func newBot(config *Config, store store.GradeStore, gradebook Gradebook, tokens QuizTokens, api sender) *Bot {
	admins := make(map[int64]bool)
	for _, id := range config.Bot.AdminIDs {
		admins[id] = true
	}

	return &Bot{
		config:    config,
		store:     store,
		gradebook: gradebook,
		tokens:    tokens,
		api:       api,
		admins:    admins,
	}
}

func (b *Bot) Start() error {
	updates := b.updates()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			go b.handleMessage(update.Message)

		case <-sigChan:
			logger.Info.Println("Shutting down bot...")
			return nil
		}
	}
}
