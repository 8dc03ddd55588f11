package main

import (
	"os"

	"github.com/sadopc/timetable/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
