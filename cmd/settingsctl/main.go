package main

import (
	"os"

	"settingsd/internal/ctl"
)

func main() { os.Exit(ctl.Main()) }
