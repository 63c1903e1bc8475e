package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vsinha/wms/pkg/application/services/provenance"
	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/infrastructure/events"
)

// Formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Printer renders command results in the configured format
type Printer struct {
	Format string
	Out    io.Writer
}

// NewPrinter validates format and returns a printer writing to out
func NewPrinter(format string, out io.Writer) (*Printer, error) {
	switch format {
	case FormatText, FormatJSON:
		return &Printer{Format: format, Out: out}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Operation prints a single operation
func (p *Printer) Operation(op *entities.Operation) error {
	if p.Format == FormatJSON {
		return p.json(op)
	}
	fmt.Fprintf(p.Out, "Operation %s\n", op.ID)
	fmt.Fprintf(p.Out, "  Kind:      %s\n", op.Kind)
	fmt.Fprintf(p.Out, "  State:     %s\n", op.State)
	fmt.Fprintf(p.Out, "  Execution: %s\n", op.DtExecution.Format("2006-01-02 15:04:05"))
	if op.Goods != "" {
		fmt.Fprintf(p.Out, "  Goods:     %s\n", op.Goods)
	}
	if !op.Quantity.IsZero() {
		fmt.Fprintf(p.Out, "  Quantity:  %s\n", op.Quantity)
	}
	if op.Partial {
		fmt.Fprintf(p.Out, "  Partial:   yes (follows %s)\n", joinIDs(op.Follows))
	} else if len(op.Follows) > 0 {
		fmt.Fprintf(p.Out, "  Follows:   %s\n", joinIDs(op.Follows))
	}
	if op.Destination != "" {
		fmt.Fprintf(p.Out, "  To:        %s\n", op.Destination)
	}
	if len(op.Outcomes) > 0 {
		fmt.Fprintf(p.Out, "  Outcomes:  %s\n", joinIDs(op.Outcomes))
	}
	return nil
}

// Goods prints a goods listing
func (p *Printer) Goods(goods []*entities.Goods) error {
	if p.Format == FormatJSON {
		return p.json(goods)
	}
	if len(goods) == 0 {
		fmt.Fprintln(p.Out, "No goods.")
		return nil
	}
	fmt.Fprintf(p.Out, "%-36s %-10s %-12s %-12s %-8s %s\n", "ID", "Type", "Location", "Quantity", "State", "Properties")
	fmt.Fprintf(p.Out, "%-36s %-10s %-12s %-12s %-8s %s\n",
		strings.Repeat("-", 36), "----------", "------------", "------------", "--------", "----------")
	for _, g := range goods {
		fmt.Fprintf(p.Out, "%-36s %-10s %-12s %-12s %-8s %s\n",
			g.ID, g.TypeID, g.Location, g.Quantity, g.State, formatProperties(g.Properties))
	}
	return nil
}

// History prints the operations leading to a goods record, newest first
func (p *Printer) History(ops []*entities.Operation) error {
	if p.Format == FormatJSON {
		return p.json(ops)
	}
	if len(ops) == 0 {
		fmt.Fprintln(p.Out, "No history.")
		return nil
	}
	fmt.Fprintf(p.Out, "%-20s %-8s %-8s %-12s %s\n", "Execution", "Kind", "State", "Quantity", "ID")
	fmt.Fprintf(p.Out, "%-20s %-8s %-8s %-12s %s\n", "--------------------", "--------", "--------", "------------", "--")
	for _, op := range ops {
		fmt.Fprintf(p.Out, "%-20s %-8s %-8s %-12s %s\n",
			op.DtExecution.Format("2006-01-02 15:04:05"), op.Kind, op.State, op.Quantity, op.ID)
	}
	return nil
}

// Stock prints present quantities per location and type
func (p *Printer) Stock(lines []provenance.StockLine) error {
	if p.Format == FormatJSON {
		return p.json(lines)
	}
	if len(lines) == 0 {
		fmt.Fprintln(p.Out, "No stock.")
		return nil
	}
	fmt.Fprintf(p.Out, "%-15s %-10s %s\n", "Location", "Type", "Quantity")
	fmt.Fprintf(p.Out, "%-15s %-10s %s\n", "---------------", "----------", "--------")
	for _, l := range lines {
		fmt.Fprintf(p.Out, "%-15s %-10s %s\n", l.Location, l.TypeID, l.Quantity)
	}
	return nil
}

// WriteEvents lists published events one per line
func WriteEvents(out io.Writer, published []events.Event) error {
	for _, e := range published {
		if _, err := fmt.Fprintf(out, "event %-18s %-36s v%d\n", e.Type(), e.StreamID(), e.Version()); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) json(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(p.Out, string(data))
	return err
}

func joinIDs[T ~string](ids []T) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

func formatProperties(props *entities.Properties) string {
	if props == nil || len(props.Flexible) == 0 {
		return "-"
	}
	data, err := json.Marshal(props.Flexible)
	if err != nil {
		return "?"
	}
	return string(data)
}
