package main

import (
	"os"

	antflycmder "github.com/papercomputeco/antfly/cmd/antfly"
)

func main() {
	cmd := antflycmder.NewAntflyCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
