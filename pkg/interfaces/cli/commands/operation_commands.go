package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vsinha/wms/pkg/application/services/operation"
	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
)

func (c *CLI) arriveCommand() *cobra.Command {
	var (
		sched    scheduling
		typeID   string
		location string
		quantity string
		props    []string
	)
	cmd := &cobra.Command{
		Use:   "arrive",
		Short: "Record goods arriving at a location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, dt, err := sched.resolve()
			if err != nil {
				return err
			}
			qty, err := parseQuantity(quantity)
			if err != nil {
				return err
			}
			properties, err := parseProperties(props)
			if err != nil {
				return err
			}
			op, err := c.app.Operations.Arrive(cmd.Context(), state, operation.CreateRequest{
				TypeID:      entities.GoodsTypeID(typeID),
				Location:    location,
				Quantity:    qty,
				DtExecution: dt,
				Properties:  properties,
			})
			if err != nil {
				return err
			}
			return c.printer(cmd).Operation(op)
		},
	}
	sched.register(cmd)
	cmd.Flags().StringVar(&typeID, "type", "", "Goods type")
	cmd.Flags().StringVar(&location, "location", "", "Arrival location")
	cmd.Flags().StringVar(&quantity, "quantity", "", "Quantity arriving")
	cmd.Flags().StringArrayVar(&props, "prop", nil, "Goods property as key=value (repeatable; JSON values are decoded)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("location")
	_ = cmd.MarkFlagRequired("quantity")
	return cmd
}

func (c *CLI) moveCommand() *cobra.Command {
	var (
		sched    scheduling
		to       string
		quantity string
	)
	cmd := &cobra.Command{
		Use:   "move GOODS_ID",
		Short: "Move goods to another location, splitting them first if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, dt, err := sched.resolve()
			if err != nil {
				return err
			}
			qty, err := c.quantityOrFull(cmd, args[0], quantity)
			if err != nil {
				return err
			}
			op, err := c.app.Operations.Move(cmd.Context(), state, operation.CreateRequest{
				Goods:       entities.GoodsID(args[0]),
				Quantity:    qty,
				DtExecution: dt,
				Destination: to,
			})
			if err != nil {
				return err
			}
			return c.printer(cmd).Operation(op)
		},
	}
	sched.register(cmd)
	cmd.Flags().StringVar(&to, "to", "", "Destination location")
	cmd.Flags().StringVar(&quantity, "quantity", "", "Quantity to move (defaults to all)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (c *CLI) splitCommand() *cobra.Command {
	var (
		sched    scheduling
		quantity string
	)
	cmd := &cobra.Command{
		Use:   "split GOODS_ID",
		Short: "Split goods into a record of the given quantity and the remainder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, dt, err := sched.resolve()
			if err != nil {
				return err
			}
			qty, err := parseQuantity(quantity)
			if err != nil {
				return err
			}
			op, err := c.app.Operations.Create(cmd.Context(), entities.Split, state, operation.CreateRequest{
				Goods:       entities.GoodsID(args[0]),
				Quantity:    qty,
				DtExecution: dt,
			})
			if err != nil {
				return err
			}
			return c.printer(cmd).Operation(op)
		},
	}
	sched.register(cmd)
	cmd.Flags().StringVar(&quantity, "quantity", "", "Quantity of the split outcome")
	_ = cmd.MarkFlagRequired("quantity")
	return cmd
}

func (c *CLI) unpackCommand() *cobra.Command {
	var (
		sched    scheduling
		quantity string
	)
	cmd := &cobra.Command{
		Use:   "unpack GOODS_ID",
		Short: "Unpack goods into the outcomes declared by their type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, dt, err := sched.resolve()
			if err != nil {
				return err
			}
			qty, err := c.quantityOrFull(cmd, args[0], quantity)
			if err != nil {
				return err
			}
			op, err := c.app.Operations.Unpack(cmd.Context(), state, operation.CreateRequest{
				Goods:       entities.GoodsID(args[0]),
				Quantity:    qty,
				DtExecution: dt,
			})
			if err != nil {
				return err
			}
			return c.printer(cmd).Operation(op)
		},
	}
	sched.register(cmd)
	cmd.Flags().StringVar(&quantity, "quantity", "", "Quantity to unpack (defaults to all)")
	return cmd
}

func (c *CLI) executeCommand() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "execute OPERATION_ID",
		Short: "Execute a planned operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dt, err := parseTime(at)
			if err != nil {
				return err
			}
			op, err := c.app.Operations.Execute(cmd.Context(), entities.OperationID(args[0]), dt)
			if err != nil {
				return err
			}
			return c.printer(cmd).Operation(op)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Execution date and time (RFC 3339); defaults to now")
	return cmd
}

func (c *CLI) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed FILE",
		Short: "Record arrivals listed in a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.app.Seed(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d arrivals.\n", n)
			return nil
		},
	}
}

// quantityOrFull parses raw, defaulting to the full quantity of the goods
func (c *CLI) quantityOrFull(cmd *cobra.Command, goodsID, raw string) (qty decimal.NullDecimal, err error) {
	if raw != "" {
		return parseQuantity(raw)
	}
	err = c.app.Store.View(cmd.Context(), func(v repositories.View) error {
		g, err := v.GetGoods(entities.GoodsID(goodsID))
		if err != nil {
			return err
		}
		qty = operation.Qty(g.Quantity)
		return nil
	})
	return qty, err
}

// parseProperties turns key=value pairs into a property map. Values that
// decode as JSON keep their JSON type; anything else stays a string.
func parseProperties(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	props := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid property %q (expected key=value)", pair)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		props[key] = value
	}
	return props, nil
}
