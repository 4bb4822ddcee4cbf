package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/taskvault/taskvault"
	"github.com/taskvault/taskvault/config"
	"github.com/taskvault/taskvault/mail"
	"github.com/taskvault/taskvault/server"
)

func main() {
	logger := taskvault.NewDefaultLogger()

	if err := run(logger); err != nil {
		logger.Error("fatal: %v", err)
		os.Exit(1)
	}
}

func run(logger taskvault.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		return err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx := context.Background()

	if err := taskvault.CreateSchema(ctx, db); err != nil {
		return err
	}

	mailer, err := mail.NewClient(mail.Opts{
		Host:       cfg.SMTPHost,
		User:       cfg.SMTPUser,
		Password:   cfg.SMTPPassword,
		Address:    cfg.MailAddress,
		CertPath:   cfg.MailCertPath,
		SkipVerify: cfg.MailSkipTLS,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	repo := taskvault.NewRepositoryManager(db)

	provider := taskvault.NewUserProvider(
		taskvault.NewIdentityStore(repo.Users()),
	).WithLogger(logger)

	auth := taskvault.NewAuthenticator(provider, cfg).
		WithLogger(logger).
		WithMailer(mailer)

	sweeper := taskvault.NewSweeper(repo.PendingRegistrations()).WithLogger(logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	srv := server.New(server.Options{
		ClientOrigin:   cfg.ClientOrigin,
		CookieName:     cfg.CookieName,
		CookieTTLHours: cfg.TokenExpiration,
		Repo:           repo,
		Auth:           auth,
		Mailer:         mailer,
		Logger:         logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on :%s", cfg.Port)
		errCh <- srv.Listen(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("received %s, shutting down", sig)
		return srv.Shutdown()
	}
}
