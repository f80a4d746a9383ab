package main

import (
	"fmt"

	"github.com/Speshl/gorrc_tank/internal/app"
	"github.com/Speshl/gorrc_tank/internal/config"
	"github.com/Speshl/gorrc_tank/internal/logger"
	socketio "github.com/googollee/go-socket.io"
	"go.uber.org/zap"
)

func main() {
	bootLogger := logger.Bootstrap()

	cfg, err := config.GetConfig()
	if err != nil {
		bootLogger.Fatal("failed loading config", zap.Error(err))
	}

	log, err := logger.New(cfg.LogCfg)
	if err != nil {
		bootLogger.Fatal("failed building logger", zap.Error(err))
	}
	defer log.Sync() //nolint:errcheck
	zap.ReplaceGlobals(log)

	socketURI := fmt.Sprintf("http://%s", cfg.ServerCfg.Server)
	client, err := socketio.NewClient(socketURI, nil)
	if err != nil {
		log.Fatal("error creating client", zap.Error(err))
	}

	app, err := app.NewApp(cfg, client, log)
	if err != nil {
		log.Fatal("error creating app", zap.Error(err))
	}

	err = app.RegisterHandlers()
	if err != nil {
		log.Fatal("error registering handlers", zap.Error(err))
	}

	err = app.Start()
	if err != nil {
		log.Error("robot shutdown with error", zap.Error(err))
	} else {
		log.Info("robot shutdown successfully")
	}
}
