package main

import (
	"fmt"
	"io"

	"github.com/kbukum/tomoflow/stages"
)

func stagesCommand(stdout io.Writer) error {
	for _, id := range stages.NewRegistry().IDs() {
		fmt.Fprintln(stdout, id)
	}
	return nil
}
