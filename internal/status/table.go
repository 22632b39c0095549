package status

import "encoding/json"

// TableType is the display type tag for a Table.
const TableType = "table"

// Column keys emitted by ToTable.
const (
	ColumnName   = "name"
	ColumnStatus = "status"
	ColumnDate   = "date"
)

// Table is the display-ready form of a Document.
type Table struct {
	Info TableInfo `json:"info"`
	Data TableData `json:"data"`
}

// TableInfo declares the columns of a Table.
type TableInfo struct {
	Type string   `json:"type"`
	Cols []Column `json:"cols"`
}

// TableData holds the column order and the rows.
type TableData struct {
	Cols []string `json:"cols"`
	Rows [][]any  `json:"rows"`
}

// Column is a key/label pair, encoded as ["key","label"].
type Column struct {
	Key   string
	Label string
}

// MarshalJSON implements json.Marshaler for Column.
func (c Column) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{c.Key, c.Label})
}

// DateTime is a cell tagged as a datetime, encoded as ["datetime",{"iso":"..."}].
type DateTime struct {
	ISO string
}

// MarshalJSON implements json.Marshaler for DateTime.
func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{"datetime", map[string]string{"iso": d.ISO}})
}

var tableColumns = []Column{
	{Key: ColumnName, Label: "Name"},
	{Key: ColumnStatus, Label: "Status"},
	{Key: ColumnDate, Label: "Date"},
}

// ToTable maps each component to a [name, status, date] row, in document order.
// The date cell carries UpdatedAt verbatim. Page metadata and the remaining
// component fields are dropped.
func ToTable(doc *Document) *Table {
	cols := make([]Column, len(tableColumns))
	copy(cols, tableColumns)

	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.Key
	}

	rows := make([][]any, 0, len(doc.Components))
	for _, c := range doc.Components {
		rows = append(rows, []any{c.Name, c.Status, DateTime{ISO: c.UpdatedAt}})
	}

	return &Table{
		Info: TableInfo{Type: TableType, Cols: cols},
		Data: TableData{Cols: keys, Rows: rows},
	}
}
