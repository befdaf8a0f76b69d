package models

// Column is a column definition as supplied by a caller or read from the engine.
type Column struct {
	Name string `json:"title"`
	Type string `json:"type"`
}

// ColumnWithSize is a report column enriched with its live size metric.
// Size is empty when the metric could not be attached at all.
type ColumnWithSize struct {
	Name string `json:"title"`
	Type string `json:"type"`
	Size string `json:"size,omitempty"`
}

// Table describes a table schema. The same shape is used for create requests
// and for introspected schemas returned by the metadata cache.
type Table struct {
	Name          string   `json:"tableName"`
	ColumnsAmount int      `json:"columnsAmount"`
	PrimaryKey    string   `json:"primaryKey"`
	Columns       []Column `json:"columnInfos"`
}

// Clone returns a deep copy so cached schemas are never shared by reference.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := *t
	c.Columns = append([]Column(nil), t.Columns...)
	return &c
}
