package main

import (
	"github.com/mchmarny/scoring/pkg/cli"
)

func main() {
	cli.Execute()
}
