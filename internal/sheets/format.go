package sheets

import "strconv"

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// RowIndexForID returns the zero-based index of the row whose first cell
// holds id, or -1. Cells may come back as strings or numbers depending on
// how the sheet renders them.
func RowIndexForID(column [][]any, id int64) int {
	want := formatID(id)
	for i, row := range column {
		if len(row) == 0 {
			continue
		}
		if cellString(row[0]) == want {
			return i
		}
	}
	return -1
}

func cellString(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case float64:
		if c == float64(int64(c)) {
			return strconv.FormatInt(int64(c), 10)
		}
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(c, 10)
	case int:
		return strconv.Itoa(c)
	default:
		return ""
	}
}
