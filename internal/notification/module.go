// Package notification wires the email delivery consumer for two-factor
// challenges.
package notification

import (
	"context"

	"github.com/toolvault/toolvault/internal/notification/inbound"
	"github.com/toolvault/toolvault/internal/notification/outbound/email"
	"github.com/toolvault/toolvault/internal/notification/usecase"
	"github.com/toolvault/toolvault/internal/pkg/clock"
	"github.com/toolvault/toolvault/internal/pkg/config"
	"github.com/toolvault/toolvault/internal/pkg/goroutine"
	"github.com/toolvault/toolvault/internal/pkg/instrument"
	"github.com/toolvault/toolvault/internal/pkg/mail"
	"github.com/toolvault/toolvault/internal/pkg/messaging"
	"github.com/toolvault/toolvault/internal/pkg/uid"
	"github.com/toolvault/toolvault/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context
	Messaging  messaging.Messaging
	Config     config.Config
	Instrument instrument.Instrumentation
	UUID       uid.StringID
	Clock      clock.Clocker
	Goroutine  *goroutine.Manager
	Validator  validator.Validator
	Mail       mail.Mail
}

func New(dep Dependency) error {
	repoMail := email.New(dep.Mail, dep.Instrument)

	uc := usecase.NewNotification(usecase.Dependency{
		RepoMail:   repoMail,
		Config:     dep.Config,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
