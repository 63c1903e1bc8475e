package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vsinha/wms/pkg/application/services/operation"
	"github.com/vsinha/wms/pkg/application/services/provenance"
	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
	"github.com/vsinha/wms/pkg/infrastructure/events"
	"github.com/vsinha/wms/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/wms/pkg/interfaces/cli/output"
)

// App bundles the services the commands run against
type App struct {
	Operations *operation.Service
	Provenance *provenance.Service
	Store      repositories.Store
	Events     events.EventStore
	Loader     *csv.Loader
	Close      func() error
}

// Seed records one arrival per row of the CSV file at path and returns
// how many were recorded. Each arrival is its own transaction.
func (a *App) Seed(ctx context.Context, path string) (int, error) {
	rows, err := a.Loader.LoadArrivals(path)
	if err != nil {
		return 0, err
	}
	for i, row := range rows {
		if _, err := a.Operations.Arrive(ctx, row.State, operation.CreateRequest{
			TypeID:      row.TypeID,
			Location:    row.Location,
			Quantity:    operation.Qty(row.Quantity),
			DtExecution: row.DtExecution,
			Properties:  row.Properties,
		}); err != nil {
			return i, fmt.Errorf("arrival %d: %w", i+1, err)
		}
	}
	return len(rows), nil
}

// Opener builds the App once flags are parsed
type Opener func(ctx context.Context) (*App, error)

// CLI is the wms command tree
type CLI struct {
	open       Opener
	app        *App
	format     string
	showEvents bool
	mark       int
}

// New creates the command tree; open is called before any subcommand runs
func New(open Opener) *CLI {
	return &CLI{open: open}
}

// Close releases what the opener acquired
func (c *CLI) Close() error {
	if c.app == nil || c.app.Close == nil {
		return nil
	}
	return c.app.Close()
}

// Command returns the root cobra command
func (c *CLI) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "wms",
		Short:         "Track goods through arrival, move, split and unpack operations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := output.NewPrinter(c.format, cmd.OutOrStdout()); err != nil {
				return err
			}
			app, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			c.app = app
			if app.Events != nil {
				c.mark = app.Events.Position()
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if !c.showEvents || c.app == nil || c.app.Events == nil {
				return nil
			}
			published, err := c.app.Events.ReadAllEvents(c.mark)
			if err != nil {
				return err
			}
			return output.WriteEvents(cmd.ErrOrStderr(), published)
		},
	}
	root.PersistentFlags().StringVar(&c.format, "format", output.FormatText, "Output format: text, json")
	root.PersistentFlags().BoolVar(&c.showEvents, "events", false, "Print the events published by the command to stderr")

	root.AddCommand(
		c.arriveCommand(),
		c.moveCommand(),
		c.splitCommand(),
		c.unpackCommand(),
		c.executeCommand(),
		c.seedCommand(),
		c.showCommand(),
		c.goodsCommand(),
		c.historyCommand(),
		c.stockCommand(),
	)
	return root
}

func (c *CLI) printer(cmd *cobra.Command) *output.Printer {
	return &output.Printer{Format: c.format, Out: cmd.OutOrStdout()}
}

// scheduling holds the flags shared by every creation command
type scheduling struct {
	planned bool
	at      string
}

func (s *scheduling) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&s.planned, "planned", false, "Create the operation planned instead of done")
	cmd.Flags().StringVar(&s.at, "at", "", "Execution date and time (RFC 3339); required with --planned")
}

func (s *scheduling) resolve() (entities.OperationState, time.Time, error) {
	state := entities.Done
	if s.planned {
		state = entities.Planned
	}
	dt, err := parseTime(s.at)
	return state, dt, err
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected RFC 3339): %w", s, err)
	}
	return t, nil
}

func parseQuantity(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return operation.Qty(d), nil
}
