package main

import (
	"fmt"
	"os"

	"github.com/Shlok2903/spendora/cmd/api"
)

func main() {
	if err := api.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
