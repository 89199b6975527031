package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Pagination is the shared list-response envelope.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

func NewPagination(total int64, page, limit int) Pagination {
	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}
	return Pagination{Total: total, Page: page, Limit: limit, TotalPages: totalPages}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// NormalizePage applies the page/limit defaults (1, 20).
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return page, limit
}

// isDuplicateKey reports whether err is a unique-constraint violation. GORM
// translates driver errors where it can; the string checks cover postgres and
// sqlite messages that slip through untranslated.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
