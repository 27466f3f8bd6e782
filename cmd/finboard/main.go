package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/subcommands"

	"github.com/VenCasMet/finboard/internal/config"
	"github.com/VenCasMet/finboard/internal/dashboard"
	"github.com/VenCasMet/finboard/internal/widget"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	os.Exit(int(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)))
}

// cli holds what every command shares.
type cli struct {
	configPath string
	out        io.Writer
	errOut     io.Writer
}

// session is an opened dashboard plus the services behind it.
type session struct {
	*dashboard.Dashboard
	services *config.Services
}

func (s *session) Close() error {
	s.Wait()
	return s.services.Close()
}

func (c *cli) open() (*session, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	services, err := config.Build(cfg)
	if err != nil {
		return nil, err
	}
	store := widget.Open(services.Snapshot)
	return &session{
		Dashboard: dashboard.Open(store, services.Quotes, services.Series),
		services:  services,
	}, nil
}

func (c *cli) fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(c.errOut, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}

func run(ctx context.Context, args []string, out, errOut io.Writer) subcommands.ExitStatus {
	fs := flag.NewFlagSet("finboard", flag.ContinueOnError)
	fs.SetOutput(errOut)
	c := &cli{out: out, errOut: errOut}
	fs.StringVar(&c.configPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML config file (default config.yaml when present)")

	commander := subcommands.NewCommander(fs, "finboard")
	commander.Output = out
	commander.Error = errOut
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, cmd := range []subcommands.Command{
		&listCmd{cli: c},
		&addCmd{cli: c},
		&removeCmd{cli: c},
		&moveCmd{cli: c},
		&showCmd{cli: c},
	} {
		commander.Register(cmd, "widgets")
	}
	commander.Register(&quoteCmd{cli: c}, "data")
	commander.Register(&seriesCmd{cli: c}, "data")

	if err := fs.Parse(args); err != nil {
		return subcommands.ExitUsageError
	}
	return commander.Execute(ctx)
}
