// Package base provides the shared Command embedding and FlagSet
// convention every retrieval-indexer subcommand builds on.
package base

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command holds the fields every subcommand needs: UI for
// output and a logger scoped to the CLI invocation.
type Command struct {
	UI  cli.Ui
	Log hclog.Logger
}

// FlagSet wraps flag.FlagSet, collecting the help text each flag
// registers so Help() can render a "[ENV_VAR] description" list matching
// the convention used across subcommands.
type FlagSet struct {
	*flag.FlagSet
	help strings.Builder
}

func NewFlagSet(fs *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: fs}
}

func (f *FlagSet) StringVar(p *string, name, value, usage string) {
	f.FlagSet.StringVar(p, name, value, usage)
	f.addHelp(name, usage)
}

func (f *FlagSet) IntVar(p *int, name string, value int, usage string) {
	f.FlagSet.IntVar(p, name, value, usage)
	f.addHelp(name, usage)
}

func (f *FlagSet) BoolVar(p *bool, name string, value bool, usage string) {
	f.FlagSet.BoolVar(p, name, value, usage)
	f.addHelp(name, usage)
}

func (f *FlagSet) DurationVar(p *time.Duration, name string, value time.Duration, usage string) {
	f.FlagSet.DurationVar(p, name, value, usage)
	f.addHelp(name, usage)
}

func (f *FlagSet) addHelp(name, usage string) {
	fmt.Fprintf(&f.help, "\n  -%s\n      %s", name, usage)
}

// Help renders accumulated per-flag help text for a Command.Help() body.
func (f *FlagSet) Help() string {
	return f.help.String()
}
