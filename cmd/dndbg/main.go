package main

import (
	"os"

	"github.com/pockees/dnSpy/cmd/dndbg/cmds"
)

func main() {
	if err := cmds.New().Execute(); err != nil {
		os.Exit(1)
	}
}
