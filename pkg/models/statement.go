package models

// MaxStatementLength is the longest statement text, in characters, the registry accepts.
const MaxStatementLength = 120

// StatementKind identifies which namespace owns a statement id.
type StatementKind int

const (
	StatementKindTable StatementKind = iota + 1
	StatementKindSingle
)

func (k StatementKind) String() string {
	switch k {
	case StatementKindTable:
		return "table"
	case StatementKindSingle:
		return "single"
	default:
		return "unknown"
	}
}

// TableStatement is a registered SQL statement owned by exactly one table.
type TableStatement struct {
	ID        int    `json:"queryId"`
	TableName string `json:"tableName"`
	Query     string `json:"query"`
}

// SingleStatement is a registered SQL statement with no table association.
type SingleStatement struct {
	ID    int    `json:"queryId"`
	Query string `json:"query"`
}
