package service

import (
	"errors"
	"fmt"

	"github.com/sharemycard/sharemycard-backend/internal/config"
	"github.com/sharemycard/sharemycard-backend/internal/email"
	"github.com/sharemycard/sharemycard-backend/internal/notification"
	"github.com/sharemycard/sharemycard-backend/internal/repository"
	"github.com/sharemycard/sharemycard-backend/internal/socket"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidInput       = errors.New("invalid input")
	ErrSourceNotFound     = errors.New("lead source not found")
	ErrAlreadyConverted   = errors.New("lead already converted to contact")
	ErrLeadConverted      = errors.New("lead has been converted to contact")
	ErrNoUpdatableFields  = errors.New("no valid fields to update")
)

// ValidationError reports a rejected client field. It matches ErrInvalidInput
// under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth         AuthService
	Lead         LeadService
	Contact      ContactService
	Notification NotificationService
	Broadcaster  *socket.Broadcaster
}

// ServiceDeps contains all dependencies needed to create services.
// EmailSender may be nil, which disables confirmation emails.
type ServiceDeps struct {
	Config      *config.Config
	Repos       *repository.Repositories
	NotifSvc    *notification.Service
	EmailSender email.Sender
	Broadcaster *socket.Broadcaster
}

func NewServices(deps *ServiceDeps) *Services {
	return &Services{
		Auth: NewAuthService(deps.Config, deps.Repos.UserRepo),
		Lead: NewLeadService(
			deps.Repos.LeadRepo,
			deps.Repos.SourceRepo,
			deps.NotifSvc,
			deps.EmailSender,
			deps.Broadcaster,
			LeadServiceOptions{
				PublicBaseURL:    deps.Config.PublicBaseURL,
				DemoAccountEmail: deps.Config.DemoAccountEmail,
			},
		),
		Contact:      NewContactService(deps.Repos.ContactRepo, deps.NotifSvc, deps.Broadcaster),
		Notification: NewNotificationService(deps.Repos.NotificationRepo, deps.Broadcaster),
		Broadcaster:  deps.Broadcaster,
	}
}
