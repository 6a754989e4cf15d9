package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"discussion-bot/bot"
	"discussion-bot/command"
	"discussion-bot/config"
	"discussion-bot/grpc"
	"discussion-bot/handlers"
	"discussion-bot/utils"

	"go.uber.org/zap"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "check the health endpoint of a running bot and exit")
	flag.Parse()

	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	settings, err := config.Settings()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	if *healthcheck {
		os.Exit(checkHealth(settings.GRPC.HealthAddress))
	}

	courses, err := config.Courses()
	if err != nil {
		log.Fatalf("Error loading courses: %v", err)
	}

	logger, err := utils.NewLogger(settings.Bot.LogLevel)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	if err := bot.Run(settings, courses, logger, handlers.Register, command.GetCommandDefinitions()); err != nil {
		logger.Fatal("Bot exited with error", zap.Error(err))
	}
}

func checkHealth(address string) int {
	if address == "" {
		fmt.Println("grpc.healthAddress is not set")
		return 1
	}
	client, err := grpc.NewClient(address, 5*time.Second)
	if err != nil {
		fmt.Println(err)
		return 1
	}
	defer client.Close()

	serving, err := client.Serving(context.Background())
	if err != nil {
		fmt.Println(err)
		return 1
	}
	if !serving {
		fmt.Println("NOT_SERVING")
		return 1
	}
	fmt.Println("SERVING")
	return 0
}
