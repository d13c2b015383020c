package main

import (
	"github.com/ahmedelbailey/occla-backend/config"
	"github.com/ahmedelbailey/occla-backend/models"
	"github.com/ahmedelbailey/occla-backend/realtime"
	"github.com/ahmedelbailey/occla-backend/routes"
	"github.com/ahmedelbailey/occla-backend/storage"
	"github.com/ahmedelbailey/occla-backend/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Post{})

	images, err := storage.NewImageStore(cfg.ImagesDir, utils.Sugar)
	if err != nil {
		utils.Sugar.Fatalf("image store init failed: %v", err)
	}

	// The hub lives for the whole process; started before the router so no
	// request can observe an uninitialized broadcaster.
	hub := realtime.NewHub(utils.Sugar)
	go hub.Run()

	r := routes.SetupRouter(db, images, hub)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
