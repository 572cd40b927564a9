package model

// Query selects a page of stored resources.
type Query struct {
	// Filters are exact matches by field name.
	Filters map[string]string
	// OrderBy are field names, prefixed with "-" for descending order.
	OrderBy []string
	Offset  int
	// Limit of zero means no limit.
	Limit int
}
