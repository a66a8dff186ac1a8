package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/aayushdutt/mcinstall/internal/cli/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
