package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultPage     = 1
)

// CalculateOffsetLimit converts a 1-based page and a size into an SQL offset/limit pair.
func CalculateOffsetLimit(page, size int) (offset uint64, limit int) {
	if size <= 0 || size > MaxPageSize {
		limit = DefaultPageSize
	} else {
		limit = size
	}

	if page < 1 {
		page = DefaultPage
	}

	offset = uint64((page - 1) * limit)
	return offset, limit
}

// ParsePaginationParams extracts page and size query parameters, falling back to defaults
func ParsePaginationParams(c *gin.Context) (page, size int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = DefaultPage
	}

	size, err = strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(DefaultPageSize)))
	if err != nil || size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}

	return page, size
}

// SliceWindow returns the [start, end) window of a slice of totalItems for offset/limit.
// A non-positive limit selects everything after offset.
func SliceWindow(offset uint64, limit, totalItems int) (start, end int) {
	start = int(offset)
	if start > totalItems {
		start = totalItems
	}
	end = totalItems
	if limit > 0 && start+limit < totalItems {
		end = start + limit
	}
	return start, end
}
