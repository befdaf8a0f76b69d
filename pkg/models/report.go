package models

// ReportTable is one table snapshot inside a report definition.
type ReportTable struct {
	TableName string   `json:"tableName"`
	Columns   []Column `json:"columns"`
}

// Report is a validated report definition. Its column lists are fixed at creation.
type Report struct {
	ID          int           `json:"reportId"`
	TableAmount int           `json:"tableAmount"`
	Tables      []ReportTable `json:"tables"`
}

// Clone returns a deep copy of the report.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	c.Tables = make([]ReportTable, len(r.Tables))
	for i, t := range r.Tables {
		c.Tables[i] = ReportTable{
			TableName: t.TableName,
			Columns:   append([]Column(nil), t.Columns...),
		}
	}
	return &c
}

// SizedReportTable is a report table whose columns carry live sizes.
type SizedReportTable struct {
	TableName string           `json:"tableName"`
	Columns   []ColumnWithSize `json:"columns"`
}

// SizedReport is what report retrieval returns.
type SizedReport struct {
	ID          int                `json:"reportId"`
	TableAmount int                `json:"tableAmount"`
	Tables      []SizedReportTable `json:"tables"`
}

// Unsized converts a stored report into the retrieval shape without sizes.
func (r *Report) Unsized() *SizedReport {
	out := &SizedReport{
		ID:          r.ID,
		TableAmount: r.TableAmount,
		Tables:      make([]SizedReportTable, len(r.Tables)),
	}
	for i, t := range r.Tables {
		cols := make([]ColumnWithSize, len(t.Columns))
		for j, c := range t.Columns {
			cols[j] = ColumnWithSize{Name: c.Name, Type: c.Type}
		}
		out.Tables[i] = SizedReportTable{TableName: t.TableName, Columns: cols}
	}
	return out
}
