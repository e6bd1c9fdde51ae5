package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/jrepp/retrieval-core/internal/cmd/base"
	"github.com/jrepp/retrieval-core/internal/cmd/commands/index"
)

// Commands maps subcommand names to their factories; initCommands fills
// it once a UI and logger are available.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	baseCmd := &base.Command{
		UI:  ui,
		Log: log,
	}

	Commands = map[string]cli.CommandFactory{
		"index": func() (cli.Command, error) {
			return &index.Command{Command: baseCmd}, nil
		},
	}
}
