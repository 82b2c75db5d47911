package main

import (
	"context"
	"log"

	"docuchat-be/internal/bootstrap"
	"docuchat-be/internal/config"
	"docuchat-be/internal/server"
	"docuchat-be/internal/tracer"
	"docuchat-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Worker
	go func() {
		log.Println("Background: Starting Document Processor...")
		if err := container.ProcessorService.Consume(context.Background()); err != nil {
			log.Printf("Background Processor Error: %v", err)
		}
	}()

	// 5. Initialize and Run Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
