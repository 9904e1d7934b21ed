package main

import (
	"github.com/niels/mdserve/internal/cmd"
)

func main() {
	cmd.Execute()
}
