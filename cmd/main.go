package main

import (
	"github.com/gin-gonic/gin"

	"github.com/mamadaliyev66/CAM-APP/internal/app"
	"github.com/mamadaliyev66/CAM-APP/internal/config"
)

func main() {
	cfg := config.MustLoad()
	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	app.Run(cfg)
}
