package main

import (
	"github.com/14rynx/heat-simulator/internal/app"
	"github.com/14rynx/heat-simulator/internal/appshell"
)

func main() { appshell.Main(app.RunContext) }
