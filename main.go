package main

import (
	"os"

	"github.com/noneedrelax/VoiceStream/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
