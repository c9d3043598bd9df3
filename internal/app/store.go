package app

import (
	"context"

	config "github.com/NordCoder/SiteStatus/internal/config/sitestatus"
	"github.com/NordCoder/SiteStatus/internal/domain/status"
	"github.com/NordCoder/SiteStatus/internal/repository/mongodb"
	pg "github.com/NordCoder/SiteStatus/internal/repository/postgres"
	"github.com/NordCoder/SiteStatus/internal/repository/sqlite"
	checker "github.com/NordCoder/SiteStatus/internal/services/status-checker"
	"go.uber.org/zap"
)

type store struct {
	repo   status.Repo
	tx     checker.Transactor
	health func(context.Context) error
	close  func()
	pg     *pg.DB
}

func openStore(ctx context.Context, cfg *config.Config, l *zap.Logger) (*store, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLite.Path, cfg.Store.Table)
		if err != nil {
			return nil, wrap("sqlite", err)
		}
		return &store{
			repo:   sqlite.NewStatusRepo(db, cfg.Store.Table),
			health: db.PingContext,
			close:  func() { _ = db.Close() },
		}, nil

	case "mongo":
		client, err := mongodb.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, wrap("mongo", err)
		}
		return &store{
			repo:   mongodb.NewStatusRepo(client.Database(cfg.Mongo.Database), cfg.Store.Table),
			health: func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:  func() { _ = client.Disconnect(context.Background()) },
		}, nil

	default:
		db, err := pg.NewDB(ctx, cfg.DB)
		if err != nil {
			return nil, wrap("postgres", err)
		}
		return &store{
			repo:   pg.NewStatusRepo(db, cfg.Store.Table),
			tx:     pg.NewTransactor(db, l),
			health: db.Ping,
			close:  db.Close,
			pg:     db,
		}, nil
	}
}
