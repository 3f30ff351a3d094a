package utils

import (
	"net/url"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ParsePaginationParams читает ?limit и ?page. Мусор и нули заменяются значениями по умолчанию,
// limit обрезается до MaxLimit.
func ParsePaginationParams(values url.Values) (limit uint64, offset uint64, page uint64) {
	limit = min(positiveOr(values.Get("limit"), DefaultLimit), MaxLimit)
	page = positiveOr(values.Get("page"), 1)
	return limit, (page - 1) * limit, page
}

func positiveOr(raw string, fallback uint64) uint64 {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return fallback
	}
	return n
}
