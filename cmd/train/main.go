package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ftai-trainer/cmd"
)

func main() {
	cmd.LoadEnvFile()

	pipeline, cleanup, err := cmd.Setup(os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.Run(ctx)
	if err != nil {
		stop()
		cleanup()
		log.Fatalf("training run failed: %v", err)
	}

	log.Printf("iteration %s of project %s (%s) is now the default, %d images uploaded",
		result.Iteration.Id, result.Project.Name, result.Project.Id, len(result.Images))
}
