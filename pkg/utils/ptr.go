package utils

import "strconv"

// DiffPtr сообщает, изменилось ли значение: nil и не-nil тоже считаются разными.
func DiffPtr[T comparable](before, after *T) bool {
	if before == nil || after == nil {
		return before != after
	}
	return *before != *after
}

func ToPtr[T any](v T) *T {
	return &v
}

// PtrToString - пустая строка для nil, используется в истории тикета.
func PtrToString(v *uint64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(*v, 10)
}

func ParseUint64(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
