package main

import (
	"github.com/fanforge/fanforged/cmd"
)

func main() {
	cmd.Execute()
}
