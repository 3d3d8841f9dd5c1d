package main

import (
	"os"

	"github.com/GriffinCanCode/bugfinder/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
