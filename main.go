package main

import (
	"os"

	"commandr/command"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := command.Execute(); err != nil {
		logrus.WithError(err).Error("commandr failed")
		os.Exit(1)
	}
}
