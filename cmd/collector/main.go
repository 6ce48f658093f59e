package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/bin-collector/internal/collector"
)

func main() {
	configPath := flag.String("config", "./config/collector.yaml", "path to collector config")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := collector.New(*configPath)
	if err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
	if err := c.Start(ctx); err != nil {
		log.Printf("collector stopped with error: %v", err)
		os.Exit(1)
	}
}
