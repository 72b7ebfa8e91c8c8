package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/forgecrew/promptengine/internal/enginectl/commands"
)

func main() {
	rand.New(rand.NewSource(time.Now().UnixNano()))

	command := commands.NewRootCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
