package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shrimpsizemoose/gradebook/internal/grading"
	"github.com/shrimpsizemoose/gradebook/internal/scoring"
	"github.com/shrimpsizemoose/gradebook/internal/store"
)

type Service struct {
	Config  *Config
	Store   store.GradeStore
	Auth    *Auth
	Grading *grading.Service
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := NewStore(DBConfigFromDSN(config.Database.DSN, config.Database.MigrationsDir))
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	return NewServiceFromParts(config, store, auth), nil
}

// NewServiceFromParts wires the grading pipeline over an already opened store.
func NewServiceFromParts(config *Config, st store.GradeStore, auth *Auth) *Service {
	return &Service{
		Config:  config,
		Store:   st,
		Auth:    auth,
		Grading: grading.NewService(st, NewGraders(config.Grading.ManualTypes), grading.NewExamAssembly(st), grading.NewArchiveLedger(st)),
	}
}

// NewGraders returns the MCQ registry plus a manual-review grader for each configured type.
func NewGraders(manualTypes []string) *scoring.Registry {
	registry := scoring.NewRegistry()
	for _, t := range manualTypes {
		registry.Register(t, scoring.ManualGrader{})
	}
	return registry
}

// ValidateQuizToken checks the quiz access token header when auth is enabled.
func (s *Service) ValidateQuizToken(r *http.Request, quiz, email string) error {
	if !s.Config.Server.EnableAuth {
		return nil
	}

	token := strings.TrimPrefix(r.Header.Get(s.Config.Auth.TokenHeader), "Bearer ")
	if err := s.Auth.ValidateToken(r.Context(), quiz, email, token); err != nil {
		return fmt.Errorf("%w: %v", grading.ErrInvalidCredentials, err)
	}
	return nil
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

func (s *Service) StudentEmail(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(s.Config.API.StudentEmailHeader))
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if s.Auth != nil {
		if err := s.Auth.Close(); err != nil {
			errs = append(errs, fmt.Errorf("auth: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
