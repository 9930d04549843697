package services

import (
	"math"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Page struct {
	Page     int
	PageSize int
}

func (p Page) normalized() Page {
	if p.Page <= 0 {
		p.Page = 1
	}
	switch {
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	case p.PageSize <= 0:
		p.PageSize = DefaultPageSize
	}
	return p
}

func (p Page) scope() func(db *gorm.DB) *gorm.DB {
	n := p.normalized()
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((n.Page - 1) * n.PageSize).Limit(n.PageSize)
	}
}

type PageResult[T any] struct {
	Data        []T   `json:"data"`
	TotalRows   int64 `json:"total_rows"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
}

func newPageResult[T any](data []T, total int64, p Page) PageResult[T] {
	n := p.normalized()
	pages := 0
	if total > 0 {
		pages = int(math.Ceil(float64(total) / float64(n.PageSize)))
	}
	if data == nil {
		data = []T{}
	}
	return PageResult[T]{
		Data:        data,
		TotalRows:   total,
		TotalPages:  pages,
		CurrentPage: n.Page,
		PageSize:    n.PageSize,
	}
}
