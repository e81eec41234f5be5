// Brm manages text-expansion projects and keeps the Espanso documents that
// expose the active project in sync with the catalogue.
package main

import (
	"os"

	"github.com/mesh-intelligence/brm/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
