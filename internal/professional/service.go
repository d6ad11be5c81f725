package professional

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/audit"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/logging"
)

type EventRecorder interface {
	Record(ctx context.Context, caseID uuid.UUID, actor, eventType string, payload map[string]any)
}

type CreateRequest struct {
	Username             string
	FullName             string
	Email                string
	Role                 Role
	Color                string
	AcceptsPublicBooking bool
}

// CreateResult is the administrative response shape.
type CreateResult struct {
	Status       string        `json:"status"`
	Message      string        `json:"message"`
	Professional *Professional `json:"professional,omitempty"`
}

type Service struct {
	repo   Repository
	events EventRecorder
	logger *logging.Logger
}

func NewService(repo Repository, events EventRecorder, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{repo: repo, events: events, logger: logger}
}

// UsernameAvailable normalises the candidate and checks it is unused.
func (s *Service) UsernameAvailable(ctx context.Context, raw string) (bool, error) {
	username := NormalizeUsername(raw)
	if username == "" {
		return false, cases.Invalid("username", "required")
	}
	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *Service) Create(ctx context.Context, actor string, req CreateRequest) (CreateResult, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return CreateResult{}, cases.Invalid("fullName", "required")
	}
	if !req.Role.Valid() {
		return CreateResult{}, cases.Invalid("role", "unknown role")
	}
	raw := req.Username
	if strings.TrimSpace(raw) == "" {
		raw = req.FullName
	}
	username := NormalizeUsername(raw)
	available, err := s.UsernameAvailable(ctx, username)
	if err != nil {
		return CreateResult{}, err
	}
	if !available {
		return CreateResult{}, ErrUsernameTaken
	}

	color := req.Color
	if color == "" {
		color = DefaultColor(username)
	}
	created, err := s.repo.Create(ctx, Professional{
		ID:                   uuid.New(),
		Username:             username,
		FullName:             strings.TrimSpace(req.FullName),
		Email:                strings.ToLower(strings.TrimSpace(req.Email)),
		Role:                 req.Role,
		Color:                color,
		AcceptsPublicBooking: req.AcceptsPublicBooking,
		Active:               true,
	})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return CreateResult{}, err
		}
		return CreateResult{}, fmt.Errorf("create professional: %w", err)
	}

	if s.events != nil {
		s.events.Record(ctx, uuid.Nil, actor, audit.EventProfessionalCreated, map[string]any{
			"professional_id": created.ID.String(),
			"username":        created.Username,
		})
	}
	s.logger.Info("professional created", "professional_id", created.ID.String(), "username", created.Username)

	return CreateResult{
		Status:       "success",
		Message:      fmt.Sprintf("professional %s created", created.Username),
		Professional: created,
	}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Professional, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProfessionalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load professional: %w", err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]Professional, error) {
	return s.repo.List(ctx, activeOnly)
}
