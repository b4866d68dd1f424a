package metrics

import "sort"

// StatusCount is one row of the status-code table.
type StatusCount struct {
	Code  int   `json:"code" yaml:"code"`
	Count int64 `json:"count" yaml:"count"`
}

// ClassCount is one row of the status-class table (2xx, 3xx, ...).
type ClassCount struct {
	Class string `json:"class" yaml:"class"`
	Count int64  `json:"count" yaml:"count"`
}

// ErrorCount is one row of the error-kind table.
type ErrorCount struct {
	Kind  ErrorKind `json:"kind" yaml:"kind"`
	Count int64     `json:"count" yaml:"count"`
}

// FlattenStatusCodes converts a code->count map into rows sorted by
// descending count, then ascending code.
func FlattenStatusCodes(codes map[int]int64) []StatusCount {
	if len(codes) == 0 {
		return nil
	}
	rows := make([]StatusCount, 0, len(codes))
	for code, n := range codes {
		rows = append(rows, StatusCount{Code: code, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}

// FlattenStatusClasses buckets status codes into classes, sorted by class.
func FlattenStatusClasses(codes map[int]int64) []ClassCount {
	if len(codes) == 0 {
		return nil
	}
	classes := make(map[string]int64)
	for code, n := range codes {
		classes[StatusClass(code)] += n
	}
	rows := make([]ClassCount, 0, len(classes))
	for class, n := range classes {
		rows = append(rows, ClassCount{Class: class, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Class < rows[j].Class
	})
	return rows
}

// FlattenErrorKinds converts a kind->count map into rows sorted by descending
// count, then ascending kind name.
func FlattenErrorKinds(kinds map[ErrorKind]int64) []ErrorCount {
	if len(kinds) == 0 {
		return nil
	}
	rows := make([]ErrorCount, 0, len(kinds))
	for kind, n := range kinds {
		rows = append(rows, ErrorCount{Kind: kind, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Kind < rows[j].Kind
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}

// StatusClass returns "1xx".."5xx" for valid HTTP codes and "other" otherwise.
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "other"
	}
	return string(rune('0'+code/100)) + "xx"
}
