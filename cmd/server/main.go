package main

import (
	"context"
	"log"

	"github.com/thallesv/habitflow/internal/server"
	"github.com/thallesv/habitflow/internal/server/config"
)

func main() {

	config := config.LoadConfig()

	app, err := server.NewApp(config)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}

	app.Run(context.Background())
}
