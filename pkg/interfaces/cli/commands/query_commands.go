package commands

import (
	"github.com/spf13/cobra"

	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
)

func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show OPERATION_ID",
		Short: "Show an operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := c.app.Operations.Get(cmd.Context(), entities.OperationID(args[0]))
			if err != nil {
				return err
			}
			return c.printer(cmd).Operation(op)
		},
	}
}

func (c *CLI) goodsCommand() *cobra.Command {
	var (
		location string
		typeID   string
		states   []string
	)
	cmd := &cobra.Command{
		Use:   "goods",
		Short: "List goods records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := repositories.GoodsFilter{Location: location, TypeID: entities.GoodsTypeID(typeID)}
			for _, s := range states {
				state, err := entities.ParseGoodsState(s)
				if err != nil {
					return err
				}
				filter.States = append(filter.States, state)
			}
			var goods []*entities.Goods
			err := c.app.Store.View(cmd.Context(), func(v repositories.View) error {
				var err error
				goods, err = v.ListGoods(filter)
				return err
			})
			if err != nil {
				return err
			}
			return c.printer(cmd).Goods(goods)
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "Only goods at this location")
	cmd.Flags().StringVar(&typeID, "type", "", "Only goods of this type")
	cmd.Flags().StringSliceVar(&states, "state", []string{"present", "future"}, "Goods states to list")
	return cmd
}

func (c *CLI) historyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history GOODS_ID",
		Short: "List the operations that led to a goods record, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := c.app.Provenance.History(cmd.Context(), entities.GoodsID(args[0]))
			if err != nil {
				return err
			}
			return c.printer(cmd).History(ops)
		},
	}
}

func (c *CLI) stockCommand() *cobra.Command {
	var location string
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Show present quantities per location and type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lines, err := c.app.Provenance.Stock(cmd.Context(), location)
			if err != nil {
				return err
			}
			return c.printer(cmd).Stock(lines)
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "Only this location")
	return cmd
}
