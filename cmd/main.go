package main

import (
	"os"

	"github.com/Fafaw945/quiz-app/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
