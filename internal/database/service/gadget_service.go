package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/database/models"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/database/repository"
)

// CoverNames is the pool codenames are drawn from
var CoverNames = []string{
	"The Nightingale",
	"The Kraken",
	"The Falcon",
	"The Shadow",
}

// GadgetService defines the gadget lifecycle operations.
//
// Update is a freeform patch and accepts any status from any status.
// Decommission and SelfDestruct are the guarded terminal transitions;
// neither of them can bring a gadget back to Available or Deployed.
type GadgetService interface {
	ListGadgets(ctx context.Context, status *models.GadgetStatus) ([]GadgetReport, error)
	CreateGadget(ctx context.Context, name string, status *models.GadgetStatus) (*models.Gadget, error)
	UpdateGadget(ctx context.Context, id uuid.UUID, changes GadgetChanges) (*models.Gadget, error)
	DecommissionGadget(ctx context.Context, id uuid.UUID) (*models.Gadget, error)
	SelfDestructGadget(ctx context.Context, id uuid.UUID) (*SelfDestructResult, error)
}

// GadgetReport is a gadget annotated for a single list response.
// MissionSuccessProbability is generated per element per call and never stored.
type GadgetReport struct {
	models.Gadget
	MissionSuccessProbability string `json:"missionSuccessProbability"`
}

// GadgetChanges holds the fields a patch may set. Nil fields are left untouched.
type GadgetChanges struct {
	Name   *string
	Status *models.GadgetStatus
}

// SelfDestructResult carries the destroyed gadget and a display-only
// confirmation code that is neither stored nor verifiable later.
type SelfDestructResult struct {
	Gadget           *models.Gadget
	ConfirmationCode string
}

// GadgetOption customizes a GadgetService
type GadgetOption func(*gadgetService)

// WithGadgetClock replaces the wall clock used for decommission timestamps
func WithGadgetClock(now func() time.Time) GadgetOption {
	return func(s *gadgetService) {
		s.now = now
	}
}

type gadgetService struct {
	gadgetRepo repository.GadgetRepository
	now        func() time.Time
	logger     *slog.Logger
}

// NewGadgetService creates a new gadget service instance
func NewGadgetService(gadgetRepo repository.GadgetRepository, logger *slog.Logger, opts ...GadgetOption) GadgetService {
	s := &gadgetService{
		gadgetRepo: gadgetRepo,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *gadgetService) ListGadgets(ctx context.Context, status *models.GadgetStatus) ([]GadgetReport, error) {
	if status != nil && !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	gadgets, err := s.gadgetRepo.List(ctx, repository.GadgetFilter{Status: status})
	if err != nil {
		s.logger.Error("❌ [GadgetService] Failed to list gadgets", "error", err)
		return nil, err
	}

	reports := make([]GadgetReport, 0, len(gadgets))
	for _, gadget := range gadgets {
		reports = append(reports, GadgetReport{
			Gadget:                    gadget,
			MissionSuccessProbability: SuccessProbability(),
		})
	}

	s.logger.Debug("📋 [GadgetService] Listed gadgets", "count", len(reports), "status", status)
	return reports, nil
}

func (s *gadgetService) CreateGadget(ctx context.Context, name string, status *models.GadgetStatus) (*models.Gadget, error) {
	initial := models.GadgetStatusAvailable
	if status != nil {
		if !status.IsValid() {
			return nil, ErrInvalidStatus
		}
		initial = *status
	}

	gadget := &models.Gadget{
		Name:     name,
		Codename: GenerateCodename(),
		Status:   initial,
	}

	if err := s.gadgetRepo.Create(ctx, gadget); err != nil {
		s.logger.Error("❌ [GadgetService] Failed to create gadget", "error", err)
		return nil, err
	}

	s.logger.Info("✅ [GadgetService] Gadget created",
		"gadget_id", gadget.ID,
		"codename", gadget.Codename,
		"status", gadget.Status,
	)
	return gadget, nil
}

func (s *gadgetService) UpdateGadget(ctx context.Context, id uuid.UUID, changes GadgetChanges) (*models.Gadget, error) {
	if changes.Status != nil && !changes.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	gadget, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if changes.Name != nil {
		gadget.Name = *changes.Name
	}
	if changes.Status != nil {
		gadget.Status = *changes.Status
	}

	if err := s.save(ctx, gadget); err != nil {
		return nil, err
	}

	s.logger.Info("✏️ [GadgetService] Gadget updated", "gadget_id", gadget.ID, "status", gadget.Status)
	return gadget, nil
}

// DecommissionGadget stamps a fresh decommission time on every call,
// including for gadgets that are already decommissioned or destroyed.
func (s *gadgetService) DecommissionGadget(ctx context.Context, id uuid.UUID) (*models.Gadget, error) {
	gadget, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	decommissionedAt := s.now().UTC()
	gadget.Status = models.GadgetStatusDecommissioned
	gadget.DecommissionedAt = &decommissionedAt

	if err := s.save(ctx, gadget); err != nil {
		return nil, err
	}

	s.logger.Info("🪦 [GadgetService] Gadget decommissioned", "gadget_id", gadget.ID, "decommissioned_at", decommissionedAt)
	return gadget, nil
}

func (s *gadgetService) SelfDestructGadget(ctx context.Context, id uuid.UUID) (*SelfDestructResult, error) {
	gadget, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	code := ConfirmationCode()
	gadget.Status = models.GadgetStatusDestroyed

	if err := s.save(ctx, gadget); err != nil {
		return nil, err
	}

	s.logger.Info("💥 [GadgetService] Self-destruct sequence initiated", "gadget_id", gadget.ID)
	return &SelfDestructResult{Gadget: gadget, ConfirmationCode: code}, nil
}

func (s *gadgetService) find(ctx context.Context, id uuid.UUID) (*models.Gadget, error) {
	gadget, err := s.gadgetRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrGadgetNotFound) {
			s.logger.Warn("⚠️ [GadgetService] Gadget not found", "gadget_id", id)
			return nil, ErrGadgetNotFound
		}
		s.logger.Error("❌ [GadgetService] Database error", "gadget_id", id, "error", err)
		return nil, err
	}
	return gadget, nil
}

// save writes gadget back. A gadget that vanished between find and save
// is reported as not found; nothing is rolled back.
func (s *gadgetService) save(ctx context.Context, gadget *models.Gadget) error {
	if err := s.gadgetRepo.Save(ctx, gadget); err != nil {
		if errors.Is(err, repository.ErrGadgetNotFound) {
			return ErrGadgetNotFound
		}
		s.logger.Error("❌ [GadgetService] Failed to save gadget", "gadget_id", gadget.ID, "error", err)
		return err
	}
	return nil
}

// GenerateCodename picks a cover name and appends an 8 character
// uppercase hex suffix taken from a fresh UUID. Uniqueness is likely, not enforced.
func GenerateCodename() string {
	cover := CoverNames[rand.IntN(len(CoverNames))]
	return fmt.Sprintf("%s-  %s", cover, randomSuffix())
}

// ConfirmationCode returns an 8 character uppercase hex code.
func ConfirmationCode() string {
	return randomSuffix()
}

// SuccessProbability returns a uniformly random percentage in [0,100], e.g. "42%".
func SuccessProbability() string {
	return fmt.Sprintf("%d%%", rand.IntN(101))
}

func randomSuffix() string {
	return strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
}

// Service errors
var (
	ErrGadgetNotFound = errors.New("gadget not found")
	ErrInvalidStatus  = errors.New("invalid gadget status")
)
