package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/chorechat/internal/analytics"
	"github.com/ashureev/chorechat/internal/assistant"
	"github.com/ashureev/chorechat/internal/domain"
	"github.com/ashureev/chorechat/internal/identity"
	"github.com/ashureev/chorechat/internal/store"
)

// Turner answers one conversation turn. *assistant.Orchestrator implements it.
type Turner interface {
	Handle(ctx context.Context, utterance string, fc *domain.FamilyContext, history []domain.ConversationMessage, opts ...assistant.TurnOption) domain.ConversationResponse
}

var _ Turner = (*assistant.Orchestrator)(nil)

// ServiceConfig tunes how much context a turn loads.
type ServiceConfig struct {
	HistoryWindow    int
	CompletionWindow time.Duration
	Location         *time.Location
	Clock            func() time.Time
}

// Service loads family context and history, runs the turn and records it.
type Service struct {
	assistant Turner
	repo      store.Repository
	cfg       ServiceConfig
	logger    *slog.Logger
}

// NewService creates a service around an assistant and a repository.
func NewService(t Turner, repo store.Repository, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 6
	}
	if cfg.CompletionWindow <= 0 {
		cfg.CompletionWindow = 90 * 24 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		assistant: t,
		repo:      repo,
		cfg:       cfg,
		logger:    logger.With("component", "agent_service"),
	}
}

func (s *Service) loadFamily(ctx context.Context, familyID string) (*domain.FamilyContext, error) {
	since := s.cfg.Clock().Add(-s.cfg.CompletionWindow)
	fc, err := s.repo.LoadFamilyContext(ctx, familyID, since)
	if err != nil {
		return nil, fmt.Errorf("load family %s: %w", familyID, err)
	}
	if fc == nil {
		return nil, fmt.Errorf("%w: %s", ErrFamilyNotFound, familyID)
	}
	return fc, nil
}

func (s *Service) turnOptions(req ChatRequest) ([]assistant.TurnOption, error) {
	var opts []assistant.TurnOption
	if req.TargetDate != "" {
		t, err := time.ParseInLocation(domain.DateLayout, req.TargetDate, s.cfg.Location)
		if err != nil {
			return nil, fmt.Errorf("%w: target_date must be YYYY-MM-DD", ErrInvalidRequest)
		}
		opts = append(opts, assistant.WithTargetDate(t))
	}
	if req.DefaultPoints < 0 {
		return nil, fmt.Errorf("%w: default_points must not be negative", ErrInvalidRequest)
	}
	if req.DefaultPoints > 0 {
		opts = append(opts, assistant.WithDefaultPoints(req.DefaultPoints))
	}
	return opts, nil
}

// Chat runs one turn for req. The user message and the reply are appended to
// the session history; failing to store them is logged, not returned.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req.Message = strings.TrimSpace(req.Message)
	if req.SessionID == "" {
		req.SessionID = identity.DefaultSessionIDValue
	}
	opts, err := s.turnOptions(req)
	if err != nil {
		return nil, err
	}

	fc, err := s.loadFamily(ctx, req.FamilyID)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.RecentMessages(ctx, req.FamilyID, req.SessionID, s.cfg.HistoryWindow)
	if err != nil {
		s.logger.Warn("continuing without history", "family_id", req.FamilyID, "session_id", req.SessionID, "error", err)
		history = nil
	}

	started := s.cfg.Clock()
	resp := s.assistant.Handle(ctx, req.Message, fc, history, opts...)

	s.record(ctx, req, domain.ConversationMessage{
		Role:      domain.RoleUser,
		Content:   req.Message,
		Timestamp: started,
		Metadata:  memberMetadata(req.MemberID),
	})
	s.record(ctx, req, domain.ConversationMessage{
		Role:    domain.RoleAssistant,
		Content: resp.Message,
		// Strictly after the user message so history keeps its order.
		Timestamp: maxTime(s.cfg.Clock(), started.Add(time.Millisecond)),
		Metadata: map[string]any{
			"intent":     string(resp.Intent),
			"language":   string(resp.Language),
			"confidence": resp.Confidence,
		},
	})

	return &ChatResponse{SessionID: req.SessionID, ConversationResponse: resp}, nil
}

func (s *Service) record(ctx context.Context, req ChatRequest, msg domain.ConversationMessage) {
	if err := s.repo.AppendMessage(context.WithoutCancel(ctx), req.FamilyID, req.SessionID, msg); err != nil {
		s.logger.Warn("failed to store chat message",
			"family_id", req.FamilyID,
			"session_id", req.SessionID,
			"role", msg.Role,
			"error", err,
		)
	}
}

// QuickStats returns the headline numbers of a family.
func (s *Service) QuickStats(ctx context.Context, familyID string) (domain.QuickStats, error) {
	fc, err := s.loadFamily(ctx, familyID)
	if err != nil {
		return domain.QuickStats{}, err
	}
	return analytics.QuickStats(fc, s.cfg.Clock()), nil
}

// History returns the stored messages of a session, oldest first.
func (s *Service) History(ctx context.Context, familyID, sessionID string, limit int) ([]domain.ConversationMessage, error) {
	msgs, err := s.repo.RecentMessages(ctx, familyID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return msgs, nil
}

func memberMetadata(memberID string) map[string]any {
	if memberID == "" {
		return nil
	}
	return map[string]any{"member_id": memberID}
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
