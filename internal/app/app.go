package app

import (
	"context"
	"net/http"

	"family-tree-go/internal/config"
	"family-tree-go/internal/db"
	invitedomain "family-tree-go/internal/domain/invite"
	memberdomain "family-tree-go/internal/domain/member"
	requestdomain "family-tree-go/internal/domain/request"
	userdomain "family-tree-go/internal/domain/user"
	"family-tree-go/internal/mail"
	invitepg "family-tree-go/internal/repository/postgres/invite"
	memberpg "family-tree-go/internal/repository/postgres/member"
	requestpg "family-tree-go/internal/repository/postgres/request"
	userpg "family-tree-go/internal/repository/postgres/user"
	"family-tree-go/internal/transport/httpserver"
	"family-tree-go/internal/transport/httpserver/handler"
	"family-tree-go/pkg/logger"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
}

func New(ctx context.Context, log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(dbConn, log); err != nil {
		return nil, err
	}

	memberRepo := memberpg.NewPostgres(dbConn)
	requestRepo := requestpg.NewPostgres(dbConn)
	inviteRepo := invitepg.NewPostgres(dbConn)
	userRepo := userpg.NewPostgres(dbConn)

	mailer, err := mail.NewSESSender(ctx, cfg.Mail, log)
	if err != nil {
		return nil, err
	}

	members := memberdomain.NewService(memberRepo)
	requests := requestdomain.NewService(requestRepo, memberRepo)
	users := userdomain.NewService(userRepo, userdomain.Config{
		SessionTTL: cfg.Auth.SessionTTL,
		SecretKey:  cfg.Auth.TOTPKey,
	})
	invites := invitedomain.NewService(inviteRepo, memberRepo, users, mailer, invitedomain.Config{
		BaseURL:   cfg.BaseURL,
		TTL:       cfg.Invites.TTL,
		SecretKey: cfg.Auth.TOTPKey,
	})

	log.Info("app: initializing router")
	handlers := handler.New(members, requests, invites, users, cfg.Auth, log)
	router := httpserver.NewRouter(cfg, handlers, users, log)

	log.Info("app: initializing http server")
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		httpServer: srv,
		db:         dbConn,
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
