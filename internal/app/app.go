// Package app wires configuration, resources, and modules into a runnable
// service.
package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/toolvault/toolvault/internal/pkg/clock"
	"github.com/toolvault/toolvault/internal/pkg/config"
	"github.com/toolvault/toolvault/internal/pkg/goroutine"
	"github.com/toolvault/toolvault/internal/pkg/hash"
	"github.com/toolvault/toolvault/internal/pkg/idempotency"
	"github.com/toolvault/toolvault/internal/pkg/instrument"
	"github.com/toolvault/toolvault/internal/pkg/jwt"
	"github.com/toolvault/toolvault/internal/pkg/mail"
	"github.com/toolvault/toolvault/internal/pkg/messaging"
	"github.com/toolvault/toolvault/internal/pkg/otp"
	"github.com/toolvault/toolvault/internal/pkg/recovery"
	"github.com/toolvault/toolvault/internal/pkg/router"
	"github.com/toolvault/toolvault/internal/pkg/secretbox"
	"github.com/toolvault/toolvault/internal/pkg/uid"
	"github.com/toolvault/toolvault/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	argon2id  hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	oid       uid.StringID
	totp      otp.Engine
	jwt       jwt.JWT
	secrets   secretbox.Codec
	recovery  recovery.Generator

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
