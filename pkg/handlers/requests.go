package handlers

import (
	"github.com/ekaya-inc/ekaya-tables/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-tables/pkg/models"
)

// Request bodies accept ids and counts as numbers or numeric strings, and
// text fields as any JSON scalar.

type columnRequest struct {
	Title jsonutil.FlexibleString `json:"title"`
	Type  jsonutil.FlexibleString `json:"type"`
}

func toColumns(cols []columnRequest) []models.Column {
	if cols == nil {
		return nil
	}
	out := make([]models.Column, len(cols))
	for i, c := range cols {
		out[i] = models.Column{Name: string(c.Title), Type: string(c.Type)}
	}
	return out
}

// CreateTableRequest for POST /api/table/create-table
type CreateTableRequest struct {
	TableName     jsonutil.FlexibleString `json:"tableName"`
	ColumnsAmount jsonutil.FlexibleInt    `json:"columnsAmount"`
	PrimaryKey    jsonutil.FlexibleString `json:"primaryKey"`
	ColumnInfos   []columnRequest         `json:"columnInfos"`
}

func (r *CreateTableRequest) toModel() *models.Table {
	return &models.Table{
		Name:          string(r.TableName),
		ColumnsAmount: r.ColumnsAmount.Int(),
		PrimaryKey:    string(r.PrimaryKey),
		Columns:       toColumns(r.ColumnInfos),
	}
}

// TableStatementRequest for the add and modify table statement endpoints.
type TableStatementRequest struct {
	QueryID   jsonutil.FlexibleInt    `json:"queryId"`
	TableName jsonutil.FlexibleString `json:"tableName"`
	Query     jsonutil.FlexibleString `json:"query"`
}

func (r *TableStatementRequest) toModel() *models.TableStatement {
	return &models.TableStatement{
		ID:        r.QueryID.Int(),
		TableName: string(r.TableName),
		Query:     string(r.Query),
	}
}

// SingleStatementRequest for the add and modify single statement endpoints.
type SingleStatementRequest struct {
	QueryID jsonutil.FlexibleInt    `json:"queryId"`
	Query   jsonutil.FlexibleString `json:"query"`
}

func (r *SingleStatementRequest) toModel() *models.SingleStatement {
	return &models.SingleStatement{
		ID:    r.QueryID.Int(),
		Query: string(r.Query),
	}
}

type reportTableRequest struct {
	TableName jsonutil.FlexibleString `json:"tableName"`
	Columns   []columnRequest         `json:"columns"`
}

// CreateReportRequest for POST /api/report/create-report
type CreateReportRequest struct {
	ReportID    jsonutil.FlexibleInt `json:"reportId"`
	TableAmount jsonutil.FlexibleInt `json:"tableAmount"`
	Tables      []reportTableRequest `json:"tables"`
}

func (r *CreateReportRequest) toModel() *models.Report {
	report := &models.Report{
		ID:          r.ReportID.Int(),
		TableAmount: r.TableAmount.Int(),
	}
	if r.Tables != nil {
		report.Tables = make([]models.ReportTable, len(r.Tables))
		for i, t := range r.Tables {
			report.Tables[i] = models.ReportTable{
				TableName: string(t.TableName),
				Columns:   toColumns(t.Columns),
			}
		}
	}
	return report
}
