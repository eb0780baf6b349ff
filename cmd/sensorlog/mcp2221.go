package main

import (
	"context"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/sensorlog/adapter"
	"github.com/mklimuk/sensorlog/cmd/sensorlog/console"
)

var mcp2221IndexFlag = &cli.IntFlag{
	Name:  "index",
	Value: -1,
	Usage: "bridge index as printed by usb detect, -1 requires exactly one bridge",
}

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "USB to I2C bridge maintenance",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
	},
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Usage: "print the bridge I2C engine state",
	Flags: []cli.Flag{mcp2221IndexFlag},
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
		return printStatus(commandContext(c), a.Status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current transfer and free the bus",
	Flags: []cli.Flag{mcp2221IndexFlag},
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
		return printStatus(commandContext(c), a.ReleaseBus)
	},
}

func printStatus(ctx context.Context, get func(context.Context) (*adapter.MCP2221Status, error)) error {
	status, err := get(ctx)
	if err != nil {
		return console.Fail("adapter communication error", err)
	}
	if err := yaml.NewEncoder(console.Writer()).Encode(status); err != nil {
		return console.Fail("encoding error", err)
	}
	return nil
}
