package devserver

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"

	"github.com/five82/potluck/internal/api"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	cursorPrefix    = "off:"
)

var errBadCursor = errors.New("malformed cursor")

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

func decodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, errBadCursor
	}
	rest, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, errBadCursor
	}
	offset, err := strconv.Atoi(rest)
	if err != nil || offset < 0 {
		return 0, errBadCursor
	}
	return offset, nil
}

// paginate slices items at cursor. With terminalCursor set, the last page
// still carries a cursor but reports hasMore false.
func paginate[T any](items []T, cursor string, size int, terminalCursor bool) (api.PageResponse[T], error) {
	offset, err := decodeCursor(cursor)
	if err != nil {
		return api.PageResponse[T]{}, err
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := min(offset+size, len(items))

	page := api.PageResponse[T]{
		Items:   append(make([]T, 0, end-offset), items[offset:end]...),
		HasMore: end < len(items),
	}
	if page.HasMore || terminalCursor {
		page.NextCursor = encodeCursor(end)
	}
	return page, nil
}
