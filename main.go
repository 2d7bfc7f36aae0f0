package main

import (
	"os"

	"github.com/luckyadam/vue-explore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
