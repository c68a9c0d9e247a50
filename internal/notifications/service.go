package notifications

import (
	"context"
	"fmt"

	"github.com/angelmondragon/farmconnect-backend/internal/users"
	"github.com/angelmondragon/farmconnect-backend/pkg/db/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/google/uuid"
)

// Message is a best-effort notice addressed to one account.
type Message struct {
	UserID uuid.UUID
	Type   enums.NotificationType
	Title  string
	Body   string
	Link   *string
}

// Notifier records in-app notifications and optionally emails them.
// Failures are logged and never returned to the caller.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

type contactFinder interface {
	FindContact(ctx context.Context, id uuid.UUID) (users.Contact, bool, error)
}

// ServiceParams wires the notifier.
type ServiceParams struct {
	Logger     *logger.Logger
	Repository Repository
	Contacts   contactFinder
	// Mailer is optional; without it only in-app rows are written.
	Mailer Mailer
}

type service struct {
	logg     *logger.Logger
	repo     Repository
	contacts contactFinder
	mailer   Mailer
}

// NewService wires notifications dependencies.
func NewService(params ServiceParams) (Notifier, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	svc := &service{
		logg: params.Logger,
		repo: params.Repository,
	}
	if params.Mailer != nil && params.Contacts != nil {
		svc.mailer = params.Mailer
		svc.contacts = params.Contacts
	}
	return svc, nil
}

func (s *service) Notify(ctx context.Context, msg Message) {
	if msg.UserID == uuid.Nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"notify_user_id":    msg.UserID.String(),
		"notification_type": string(msg.Type),
	})

	row := &models.Notification{
		UserID:  msg.UserID,
		Type:    msg.Type,
		Title:   msg.Title,
		Message: msg.Body,
		Link:    msg.Link,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logg.Error(ctx, "persist notification failed", err)
	}

	if s.mailer == nil {
		return
	}
	contact, ok, err := s.contacts.FindContact(ctx, msg.UserID)
	if err != nil {
		s.logg.Error(ctx, "resolve notification recipient failed", err)
		return
	}
	if !ok || contact.Email == "" {
		s.logg.Warn(ctx, "notification recipient has no email")
		return
	}
	if err := s.mailer.Send(ctx, contact.Email, msg.Title, msg.Body); err != nil {
		s.logg.Error(ctx, "send notification email failed", err)
	}
}
