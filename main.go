package main

import (
	"github.com/sirupsen/logrus"

	"github.com/dockupdate/dockupdate/cmd"
)

// init sets the initial logging level; flags may override it.
func init() {
	logrus.SetLevel(logrus.InfoLevel)
}

func main() {
	cmd.Execute()
}
