package app

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gouthamseattle/dance-registration-portal/internal/api"
	"github.com/gouthamseattle/dance-registration-portal/internal/config"
	"github.com/gouthamseattle/dance-registration-portal/internal/db"
	"github.com/gouthamseattle/dance-registration-portal/internal/logger"
	"github.com/gouthamseattle/dance-registration-portal/internal/mailer"
)

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	var m mailer.Mailer
	if conf.Mail.SendGridKey != "" {
		m = mailer.NewSendGridMailer(conf.Mail)
	} else {
		// No key configured (local dev); messages are logged, not sent.
		m = mailer.NewLogMailer()
	}

	s := api.NewServer(conf, postgresDB, m)

	conf.WatchRegistration(func(rc config.RegistrationConfig) {
		zap.L().Info("registration policy reloaded",
			zap.String("drop_in_cutoff_date", rc.DropInCutoffDate))
	})

	addr := ":" + s.Config.API.Port
	zap.L().Info(fmt.Sprintf("starting server at %v", addr))
	if err = s.Router.Run(addr); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	return nil
}
