package types

// Column types select how a value is converted before it is bound to a
// statement parameter.
const (
	ColumnString   = "string"
	ColumnInteger  = "integer"
	ColumnBoolean  = "boolean"
	ColumnDatetime = "datetime"
	ColumnJSON     = "json"
)

// validColumnTypes is the set of recognized column types.
var validColumnTypes = map[string]bool{
	ColumnString:   true,
	ColumnInteger:  true,
	ColumnBoolean:  true,
	ColumnDatetime: true,
	ColumnJSON:     true,
}

// IsValidColumnType reports whether the given string is a recognized column type.
func IsValidColumnType(ct string) bool {
	return validColumnTypes[ct]
}

// Row holds column values keyed by column name.
type Row map[string]any

// ColumnTypes maps column names to column types. Columns without an entry
// are bound as-is.
type ColumnTypes map[string]string

// Stages of a dimension content row.
const (
	StageDraft = "draft"
	StageLive  = "live"
)

// StageFor returns the stage written for a live or draft workspace.
func StageFor(isLive bool) string {
	if isLive {
		return StageLive
	}
	return StageDraft
}
