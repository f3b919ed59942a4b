package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/AdPulseHQ/AdPulse/app/repository"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/cache"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/database"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/env"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/jobqueue"
	"github.com/AdPulseHQ/AdPulse/internal/pkg/router"
)

func main() {
	app, queue := NewApplication()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		queue.Stop()
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, *jobqueue.Queue) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	queue := jobqueue.NewQueue(2)
	queue.Start()

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName: "AdPulse",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// ROUTER
	router.InstallRouter(app, queue)

	return app, queue
}
