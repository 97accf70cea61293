package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"kafkabridge/consumer"
	"kafkabridge/internal/config"
	"kafkabridge/internal/logging"
	"kafkabridge/internal/telemetry"
)

func main() {
	specPath := flag.String("config", "bridge.yml", "path to the bridge spec")
	flag.Parse()

	logging.InitFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	file, consumerPath, err := config.LoadBridgeSpec(*specPath)
	if err != nil {
		log.Fatalf("bridge spec: %v", err)
	}
	cfg, err := config.LoadConsumerConfig(consumerPath)
	if err != nil {
		log.Fatalf("consumer config: %v", err)
	}
	if file.Consumer.Driver != "" {
		cfg.Driver = file.Consumer.Driver
	}
	if file.MetricsPort > 0 {
		telemetry.Expose(file.MetricsPort)
	}

	cons, err := consumer.New(cfg)
	if err != nil {
		log.Fatalf("consumer: %v", err)
	}
	defer cons.Close()

	if len(file.Topics) > 0 {
		if err := cons.Subscribe(file.Topics...); err != nil {
			log.Fatalf("subscribe: %v", err)
		}
	}

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-cons.Output():
			if !ok {
				return
			}
			seq++
			fmt.Printf("[bridge %06d] %s\n", seq, msg)
			if err := cons.StoreOffset(msg); err != nil {
				logging.L().Warn("store offset failed", "error", err)
			}
			msg.Release()
		}
	}
}
