package main

import (
	"os"

	"github.com/spherical/pdf-redactor/cmd/pdf-redactor/commands"
	"github.com/spherical/pdf-redactor/cmd/pdf-redactor/ui"
)

func main() {
	if err := commands.Execute(); err != nil {
		ui.Error("Error: %v", err)
		os.Exit(1)
	}
}
