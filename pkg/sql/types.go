package sql

import (
	"regexp"
	"strings"
)

var (
	qualifierPattern  = regexp.MustCompile(`\s*\([^()]*\)`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// DefaultTypeAliases folds spellings of the same SQL type family onto one name.
// Keys and values are lower-case, qualifier-free.
var DefaultTypeAliases = map[string]string{
	"int":                         "integer",
	"int4":                        "integer",
	"integer":                     "integer",
	"mediumint":                   "integer",
	"serial":                      "integer",
	"int8":                        "bigint",
	"bigint":                      "bigint",
	"bigserial":                   "bigint",
	"int2":                        "smallint",
	"smallint":                    "smallint",
	"character varying":           "varchar",
	"varchar":                     "varchar",
	"nvarchar":                    "varchar",
	"varchar2":                    "varchar",
	"character":                   "char",
	"char":                        "char",
	"bpchar":                      "char",
	"nchar":                       "char",
	"bool":                        "boolean",
	"boolean":                     "boolean",
	"float8":                      "double",
	"double":                      "double",
	"double precision":            "double",
	"float4":                      "real",
	"real":                        "real",
	"decimal":                     "numeric",
	"numeric":                     "numeric",
	"timestamp without time zone": "timestamp",
	"timestamp":                   "timestamp",
	"timestamptz":                 "timestamptz",
	"timestamp with time zone":    "timestamptz",
}

// StripTypeQualifiers removes length/precision qualifiers such as "(40)" or
// "(10, 2)" and collapses whitespace. Case is preserved.
func StripTypeQualifiers(dataType string) string {
	t := qualifierPattern.ReplaceAllString(dataType, "")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(t, " "))
}

// NormalizeType applies the shared comparison rule: strip qualifiers,
// lower-case, then fold aliases. extra, if non-nil, is consulted before
// DefaultTypeAliases so a dialect can override a family.
func NormalizeType(dataType string, extra map[string]string) string {
	t := strings.ToLower(StripTypeQualifiers(dataType))
	if v, ok := extra[t]; ok {
		return v
	}
	if v, ok := DefaultTypeAliases[t]; ok {
		return v
	}
	return t
}
