package cli

import (
	"context"
	"os"

	urfave "github.com/urfave/cli/v3"
)

var (
	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatYAML,
	}

	configCmd = &urfave.Command{
		Name:   "config",
		Usage:  "Print the effective configuration",
		Action: cmdPrintConfig,
		Flags: []urfave.Flag{
			formatFlag,
		},
	}
)

func cmdPrintConfig(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	return encode(os.Stdout, cmd.String(formatFlag.Name), cfg.Config)
}
