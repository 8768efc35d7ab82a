package main

import (
	"context"
	"time"

	"github.com/Himanshu718-creater/blog-platform/config"
	"github.com/Himanshu718-creater/blog-platform/models"
	"github.com/Himanshu718-creater/blog-platform/routes"
	"github.com/Himanshu718-creater/blog-platform/services"
	"github.com/Himanshu718-creater/blog-platform/store"
	"github.com/Himanshu718-creater/blog-platform/utils"
)

func main() {
	cfg, err := config.Load("config/config.json")
	if err != nil {
		panic(err)
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	posts, err := openStore(cfg)
	if err != nil {
		utils.Sugar.Fatalf("open post store (%s): %v", cfg.DBDriver, err)
	}

	r := routes.SetupRouter(cfg, posts)

	sweeper := services.NewUploadSweeper(cfg.UploadDir, cfg.UploadURLPrefix, time.Duration(cfg.UploadOrphanTTLMinutes)*time.Minute, posts)
	if cfg.UploadSweepEnabled {
		if err := sweeper.Start(cfg.UploadSweepCron); err != nil {
			utils.Sugar.Errorw("upload sweeper not started", "spec", cfg.UploadSweepCron, "err", err)
		}
	}

	utils.Sugar.Infof("Starting server on port %s (graceful, store=%s)", cfg.AppPort, cfg.DBDriver)
	err = utils.GraceServer(":"+cfg.AppPort, r,
		func(ctx context.Context) { sweeper.Stop(ctx) },
		func(ctx context.Context) {
			if err := posts.Close(ctx); err != nil {
				utils.Sugar.Warnw("close post store", "err", err)
			}
		},
	)
	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

func openStore(cfg config.AppConfig) (store.PostStore, error) {
	if cfg.DBDriver == config.DriverMongo {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		client, err := config.InitMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s, err := store.NewMongoStore(ctx, client, cfg.MongoDatabase)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return s, nil
	}

	db, err := config.InitDatabase(cfg, &models.Post{})
	if err != nil {
		return nil, err
	}
	return store.NewGormStore(db), nil
}
