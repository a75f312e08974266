package main

import (
	"github.com/taskpilot/taskpilot/frontend/cli/cmd"
)

func main() {
	cmd.Execute()
}
