package main

import (
	"log"
	"os"
	"time"

	"carbscan-backend/config"
	"carbscan-backend/routes"
	"carbscan-backend/services"
)

func main() {
	config.InitDB()

	var results *services.ResultCache
	if rdb := config.InitRedis(); rdb != nil {
		results = services.NewResultCache(rdb, 24*time.Hour)
	}

	registry := services.NewDeviceRegistry(config.DB)
	store := services.NewMessageStore(config.DB)
	dispatcher := services.NewDispatcher(registry, store, services.NewExpoGateway(), results)

	if raw := os.Getenv("PUSH_SWEEP_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("invalid PUSH_SWEEP_INTERVAL: %v", err)
		}
		scheduler, err := services.NewScheduler(interval, dispatcher)
		if err != nil {
			log.Fatalf("scheduler init failed: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	r := routes.SetupRouter(routes.Deps{
		Identity:   services.NewIdentityService(),
		Registry:   registry,
		Store:      store,
		Dispatcher: dispatcher,
		Results:    results,
	})

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
