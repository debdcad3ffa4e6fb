package main

import (
	"fmt"
	"os"

	"github.com/handiism/dman/internal/config"
	"github.com/handiism/dman/internal/tui"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	settings, err := config.Load(config.DefaultPath())
	if err == nil {
		err = settings.ApplyEnv()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
