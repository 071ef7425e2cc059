package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"operatorpanel/cmd/console"
	"operatorpanel/cmd/serve"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Operator Panel CMD"
	app.Usage = "The trading engine operator panel command line interface"

	app.Commands = []cli.Command{
		consoleCMD,
		serveCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	consoleCMD = cli.Command{
		Name:        "console",
		Usage:       "run the interactive operator console",
		Action:      consoleAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the interactive operator console CMD`,
	}
	serveCMD = cli.Command{
		Name:        "serve",
		Usage:       "run the read-only snapshot server",
		Action:      serveAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the snapshot server CMD`,
	}
)

func consoleAction(_ *cli.Context) error {

	logrus.Info("Starting operator console CMD")

	c := &console.Console{}
	err := c.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func serveAction(_ *cli.Context) error {

	logrus.Info("Starting snapshot server CMD")

	s := &serve.Serve{}
	err := s.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}
