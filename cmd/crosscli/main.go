// crosscli finds and resumes AI coding assistant sessions across tools.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/crosscli/go-crosscli/internal/cmd"
	"github.com/crosscli/go-crosscli/internal/crosscli"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "crosscli: %v\n", err)
		if errors.Is(err, crosscli.ErrUnknownCLI) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
