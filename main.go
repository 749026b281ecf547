package main

import (
	_ "time/tzdata"

	"github.com/AzielCF/az-apod/cmd"
)

func main() {
	cmd.Execute()
}
