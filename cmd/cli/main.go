package main

import (
	"github.com/mchmarny/riskpulse/pkg/cli"
)

func main() {
	cli.Execute()
}
