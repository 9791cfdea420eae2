package main

import (
	"os"

	"finboard/internal/finctl"
)

func main() {
	os.Exit(finctl.Execute())
}
