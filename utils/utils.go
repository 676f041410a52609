package utils

import (
	"strconv"
	"strings"
)

const idDelimiter = "|"

// JoinIds encodes an ordered id list the way recommendations are stored,
// e.g. [3 1 2] -> "3|1|2".
func JoinIds(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, idDelimiter)
}

// SplitIds is the inverse of JoinIds. Empty input gives an empty list.
func SplitIds(s string) ([]int64, error) {
	if s == "" {
		return []int64{}, nil
	}
	parts := strings.Split(s, idDelimiter)
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
