package csv

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/wms/pkg/domain/entities"
)

// ArrivalRow is one seed line: goods arriving at a location
type ArrivalRow struct {
	TypeID      entities.GoodsTypeID
	Location    string
	Quantity    decimal.Decimal
	State       entities.OperationState
	DtExecution time.Time
	Properties  map[string]any
}

var arrivalHeader = []string{"type", "location", "quantity", "state", "dt_execution", "properties"}

// Loader handles loading seed goods from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadArrivals loads arrival rows from a CSV file
func (l *Loader) LoadArrivals(filename string) ([]ArrivalRow, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open arrivals file %s: %w", filename, err)
	}
	defer file.Close()
	return l.ReadArrivals(file)
}

// ReadArrivals parses arrival rows. The header must be
// type,location,quantity,state,dt_execution,properties where properties is
// an optional JSON object and dt_execution an optional RFC 3339 timestamp.
func (l *Loader) ReadArrivals(r io.Reader) ([]ArrivalRow, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read arrivals CSV: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("arrivals CSV must have header and at least one data row")
	}

	header := records[0]
	if !validateHeader(header, arrivalHeader) {
		return nil, fmt.Errorf("arrivals CSV header mismatch. Expected: %v, Got: %v", arrivalHeader, header)
	}

	rows := make([]ArrivalRow, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(arrivalHeader) {
			return nil, fmt.Errorf("arrivals CSV row %d: expected %d columns, got %d", i+2, len(arrivalHeader), len(record))
		}

		row, err := parseArrival(record)
		if err != nil {
			return nil, fmt.Errorf("arrivals CSV row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseArrival(record []string) (ArrivalRow, error) {
	row := ArrivalRow{
		TypeID:   entities.GoodsTypeID(strings.TrimSpace(record[0])),
		Location: strings.TrimSpace(record[1]),
	}
	if row.TypeID == "" {
		return row, fmt.Errorf("type cannot be empty")
	}
	if row.Location == "" {
		return row, fmt.Errorf("location cannot be empty")
	}

	quantity, err := decimal.NewFromString(strings.TrimSpace(record[2]))
	if err != nil {
		return row, fmt.Errorf("invalid quantity: %s", record[2])
	}
	if !quantity.IsPositive() {
		return row, fmt.Errorf("quantity must be positive, got %s", quantity)
	}
	row.Quantity = quantity

	row.State = entities.Done
	if s := strings.TrimSpace(record[3]); s != "" {
		state, err := entities.ParseOperationState(s)
		if err != nil {
			return row, err
		}
		row.State = state
	}

	if s := strings.TrimSpace(record[4]); s != "" {
		dt, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return row, fmt.Errorf("invalid dt_execution format: %s (expected RFC 3339)", s)
		}
		row.DtExecution = dt
	}

	if s := strings.TrimSpace(record[5]); s != "" {
		if err := json.Unmarshal([]byte(s), &row.Properties); err != nil {
			return row, fmt.Errorf("invalid properties JSON: %w", err)
		}
	}

	return row, nil
}

// validateHeader checks if the CSV header matches expected format
func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.TrimSpace(strings.ToLower(actual[i])) != col {
			return false
		}
	}
	return true
}
