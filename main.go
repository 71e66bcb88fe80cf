package main

import (
	"fmt"
	"log"

	"github.com/food-bundles/food-bundles-bn-sub000/configs"
	"github.com/food-bundles/food-bundles-bn-sub000/middlewares"
	"github.com/food-bundles/food-bundles-bn-sub000/pkg/logger"
	"github.com/food-bundles/food-bundles-bn-sub000/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := configs.LoadConfig()

	logger.Init(cfg.Env)
	defer logger.Sync()

	// DB
	configs.ConnectionDB(cfg.DBSource)
	db := configs.DB()

	// migrate
	configs.SetupDatabase()

	if err := configs.SeedAdmin(); err != nil {
		log.Fatalf("seed admin failed: %v", err)
	}

	// HTTP
	r := gin.Default()
	r.Use(middlewares.CORSMiddleware())

	routes.RegisterRoutes(r, db, cfg)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Println("server running at", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}
