// Package twofactor wires the two-factor challenge subsystem: TOTP
// enrollment, email challenges, recovery codes, and verification lockout.
package twofactor

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/toolvault/toolvault/internal/pkg/clock"
	"github.com/toolvault/toolvault/internal/pkg/config"
	"github.com/toolvault/toolvault/internal/pkg/hash"
	"github.com/toolvault/toolvault/internal/pkg/idempotency"
	"github.com/toolvault/toolvault/internal/pkg/instrument"
	"github.com/toolvault/toolvault/internal/pkg/jwt"
	"github.com/toolvault/toolvault/internal/pkg/messaging"
	"github.com/toolvault/toolvault/internal/pkg/otp"
	"github.com/toolvault/toolvault/internal/pkg/recovery"
	"github.com/toolvault/toolvault/internal/pkg/router"
	"github.com/toolvault/toolvault/internal/pkg/secretbox"
	"github.com/toolvault/toolvault/internal/pkg/uid"
	"github.com/toolvault/toolvault/internal/pkg/validator"
	"github.com/toolvault/toolvault/internal/twofactor/inbound"
	"github.com/toolvault/toolvault/internal/twofactor/outbound/db"
	"github.com/toolvault/toolvault/internal/twofactor/outbound/mq"
	"github.com/toolvault/toolvault/internal/twofactor/usecase"
)

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	Argon2id    hash.Hash                  `validate:"required"`
	Secrets     secretbox.Codec            `validate:"required"`
	Recovery    recovery.Generator         `validate:"required"`
	Totp        otp.Engine                 `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	JWT         jwt.JWT                    `validate:"required"`
}

// New builds the module and registers its HTTP endpoints. The returned
// Usecase is exposed so the app can schedule background sweeps.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	dbTwoFactor := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbTwoFactor,
		RepoMessaging: repoMsg,
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Argon2id:      dep.Argon2id,
		Secrets:       dep.Secrets,
		Recovery:      dep.Recovery,
		Totp:          dep.Totp,
		UID:           dep.UID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return uc, nil
}
