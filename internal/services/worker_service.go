package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"brigade_tracker/internal/apperr"
	"brigade_tracker/internal/events"
	"brigade_tracker/internal/models"
	"brigade_tracker/internal/notify"
)

const inviteTokenBytes = 24

type WorkerService struct {
	base
	notifier    notify.Notifier
	notified    func(error)
	inviteTTL   time.Duration
	registerURL string
}

type RegisterInput struct {
	InviteToken string
	NationalID  string
	Name        string
	Email       string
	Phone       *string
	RegionID    uuid.UUID
	Credentials []string
	Experience  []string
}

// WorkerUpdate is a partial profile update. Identity fields are refused
// when they differ from the stored row.
type WorkerUpdate struct {
	ID          *uuid.UUID `json:"id"`
	NationalID  *string    `json:"national_id"`
	Email       *string    `json:"email"`
	CreatedAt   *time.Time `json:"created_at"`
	Name        *string    `json:"name"`
	Phone       *string    `json:"phone"`
	RegionID    *uuid.UUID `json:"region_id"`
	Credentials *[]string  `json:"credentials"`
	Experience  *[]string  `json:"experience"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// InviteRegistration issues a registration token for email and sends it out.
// The plain token is returned once; only its hash is stored.
func (s *WorkerService) InviteRegistration(ctx context.Context, email, invitedBy string) (*models.RegistrationInvite, string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, "", apperr.New(apperr.ErrInvalidArgument, "email is required")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Worker{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, "", apperr.FromStore(err, "worker")
	}
	if existing > 0 {
		return nil, "", apperr.New(apperr.ErrConflict, "a worker with email %s already exists", email)
	}

	raw := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", err
	}
	token := hex.EncodeToString(raw)
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	invite := models.RegistrationInvite{
		Email:     email,
		TokenHash: string(hash),
		InvitedBy: invitedBy,
		ExpiresAt: s.now().Add(s.inviteTTL),
	}
	if err := s.db.WithContext(ctx).Create(&invite).Error; err != nil {
		return nil, "", apperr.FromStore(err, "invitation")
	}

	data := map[string]interface{}{
		"type":       notify.TypeWorkerRegistration,
		"token":      token,
		"expires_at": invite.ExpiresAt,
	}
	if s.registerURL != "" {
		q := url.Values{"email": {email}, "token": {token}}
		data["register_url"] = s.registerURL + "?" + q.Encode()
	}
	notify.Dispatch(s.notifier, email, data, s.notified)
	return &invite, token, nil
}

// Register creates an active worker from a valid invitation and consumes it.
func (s *WorkerService) Register(ctx context.Context, in RegisterInput) (*models.Worker, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.InviteToken == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "email and invitation token are required")
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.NationalID) == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "name and national id are required")
	}

	worker := models.Worker{
		NationalID:  strings.TrimSpace(in.NationalID),
		Name:        strings.TrimSpace(in.Name),
		Email:       email,
		Phone:       in.Phone,
		RegionID:    in.RegionID,
		Credentials: in.Credentials,
		Experience:  in.Experience,
		State:       models.WorkerActive,
	}

	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invites []models.RegistrationInvite
		err := tx.Where("email = ? AND accepted_at IS NULL AND expires_at > ?", email, now).
			Order("created_at DESC").
			Find(&invites).Error
		if err != nil {
			return err
		}
		if len(invites) == 0 {
			return apperr.New(apperr.ErrNotFound, "no open invitation for %s", email)
		}

		var invite *models.RegistrationInvite
		for i := range invites {
			if bcrypt.CompareHashAndPassword([]byte(invites[i].TokenHash), []byte(in.InviteToken)) == nil {
				invite = &invites[i]
				break
			}
		}
		if invite == nil {
			return apperr.New(apperr.ErrInvalidArgument, "invalid invitation token")
		}

		if err := tx.First(&models.Region{}, "id = ?", in.RegionID).Error; err != nil {
			return apperr.FromStore(err, "region")
		}
		if err := tx.Create(&worker).Error; err != nil {
			return err
		}
		return tx.Model(invite).Update("accepted_at", now).Error
	})
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, s.duplicateWorker(ctx, worker, err)
		}
		return nil, apperr.FromStore(err, "worker")
	}

	s.publish(events.TopicWorkers, "registered", worker.ID, string(worker.State))
	return &worker, nil
}

// duplicateWorker names the unique field a failed insert collided on.
func (s *WorkerService) duplicateWorker(ctx context.Context, w models.Worker, cause error) error {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Worker{}).Where("national_id = ?", w.NationalID).Count(&n).Error
	if err == nil && n > 0 {
		return apperr.Wrap(apperr.ErrConflict, cause, "national id %s is already registered", w.NationalID)
	}
	return apperr.Wrap(apperr.ErrConflict, cause, "email %s is already registered", w.Email)
}

func (s *WorkerService) Suspend(ctx context.Context, id uuid.UUID) (*models.Worker, error) {
	return s.setState(ctx, id, models.WorkerSuspended, "suspended")
}

func (s *WorkerService) Activate(ctx context.Context, id uuid.UUID) (*models.Worker, error) {
	return s.setState(ctx, id, models.WorkerActive, "activated")
}

func (s *WorkerService) setState(ctx context.Context, id uuid.UUID, state models.WorkerState, event string) (*models.Worker, error) {
	res := s.db.WithContext(ctx).Model(&models.Worker{}).
		Where("id = ? AND state <> ?", id, state).
		Update("state", state)
	if res.Error != nil {
		return nil, apperr.FromStore(res.Error, "worker")
	}

	worker, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, apperr.New(apperr.ErrInvalidState, "worker is already %s", state)
	}

	s.publish(events.TopicWorkers, event, id, string(state))
	return worker, nil
}

// Delete removes a suspended worker together with the worker's assignments.
func (s *WorkerService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var worker models.Worker
		if err := tx.Select("id", "state").First(&worker, "id = ?", id).Error; err != nil {
			return err
		}
		if worker.State != models.WorkerSuspended {
			return apperr.New(apperr.ErrInvalidState, "only suspended workers can be deleted")
		}

		if err := tx.Where("worker_id = ?", id).Delete(&models.Assignment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND state = ?", id, models.WorkerSuspended).Delete(&models.Worker{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.ErrInvalidState, "worker state changed concurrently")
		}
		return nil
	})
	if err != nil {
		return apperr.FromStore(err, "worker")
	}

	s.publish(events.TopicWorkers, "deleted", id, "")
	return nil
}

func (s *WorkerService) Update(ctx context.Context, id uuid.UUID, in WorkerUpdate) (*models.Worker, error) {
	worker, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case in.ID != nil && *in.ID != worker.ID:
		return nil, apperr.New(apperr.ErrInvalidArgument, "id cannot be changed")
	case in.NationalID != nil && strings.TrimSpace(*in.NationalID) != worker.NationalID:
		return nil, apperr.New(apperr.ErrInvalidArgument, "national_id cannot be changed")
	case in.Email != nil && normalizeEmail(*in.Email) != worker.Email:
		return nil, apperr.New(apperr.ErrInvalidArgument, "email cannot be changed")
	case in.CreatedAt != nil && !in.CreatedAt.Equal(worker.CreatedAt):
		return nil, apperr.New(apperr.ErrInvalidArgument, "created_at cannot be changed")
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.New(apperr.ErrInvalidArgument, "name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Phone != nil {
		updates["phone"] = *in.Phone
	}
	if in.RegionID != nil {
		if err := s.db.WithContext(ctx).First(&models.Region{}, "id = ?", *in.RegionID).Error; err != nil {
			return nil, apperr.FromStore(err, "region")
		}
		updates["region_id"] = *in.RegionID
	}
	if in.Credentials != nil {
		worker.Credentials = *in.Credentials
	}
	if in.Experience != nil {
		worker.Experience = *in.Experience
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Worker{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if in.Credentials != nil || in.Experience != nil {
			// serializer fields go through the struct so the json serializer applies
			return tx.Model(worker).Select("Credentials", "Experience").Updates(worker).Error
		}
		return nil
	})
	if err != nil {
		return nil, apperr.FromStore(err, "worker")
	}
	return s.Get(ctx, id)
}

func (s *WorkerService) Get(ctx context.Context, id uuid.UUID) (*models.Worker, error) {
	var worker models.Worker
	if err := s.db.WithContext(ctx).Preload("Region").First(&worker, "id = ?", id).Error; err != nil {
		return nil, apperr.FromStore(err, "worker")
	}
	return &worker, nil
}

// GetByEmail is used to match an authenticated principal to a worker.
func (s *WorkerService) GetByEmail(ctx context.Context, email string) (*models.Worker, error) {
	var worker models.Worker
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&worker).Error
	if err != nil {
		return nil, apperr.FromStore(err, "worker")
	}
	return &worker, nil
}

// List returns active workers.
func (s *WorkerService) List(ctx context.Context) ([]models.Worker, error) {
	return s.ListAvailable(ctx, nil)
}

// ListByRegion returns the active workers of a region ordered by name.
func (s *WorkerService) ListByRegion(ctx context.Context, regionID uuid.UUID) ([]models.Worker, error) {
	return s.ListAvailable(ctx, &regionID)
}

// ListAvailable returns active workers, optionally limited to one region.
func (s *WorkerService) ListAvailable(ctx context.Context, regionID *uuid.UUID) ([]models.Worker, error) {
	q := s.db.WithContext(ctx).Preload("Region").Where("state = ?", models.WorkerActive)
	if regionID != nil {
		q = q.Where("region_id = ?", *regionID)
	}
	var workers []models.Worker
	if err := q.Order("name ASC").Find(&workers).Error; err != nil {
		return nil, apperr.FromStore(err, "workers")
	}
	return workers, nil
}

// ExpireInvites removes open invitations past their expiry and reports how
// many went.
func (s *WorkerService) ExpireInvites(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("accepted_at IS NULL AND expires_at <= ?", s.now()).
		Delete(&models.RegistrationInvite{})
	if res.Error != nil {
		return 0, apperr.FromStore(res.Error, "invitations")
	}
	if res.RowsAffected > 0 {
		logrus.WithField("count", res.RowsAffected).Info("ExpireInvites: removed expired registration invitations")
	}
	return res.RowsAffected, nil
}
