package services

import (
	"math"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListParams - параметры постраничного списка с поиском и сортировкой
type ListParams struct {
	Page     int
	PageSize int
	Search   string
	Ordering string
}

// Normalize приводит номер и размер страницы к допустимым значениям
func (p ListParams) Normalize() ListParams {
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

// Paginate - GORM scope со смещением и лимитом страницы
func (p ListParams) Paginate(db *gorm.DB) *gorm.DB {
	p = p.Normalize()
	return db.Offset((p.Page - 1) * p.PageSize).Limit(p.PageSize)
}

// Page - страница результатов списка
type Page[T any] struct {
	Count       int64 `json:"count"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	Results     []T   `json:"results"`
}

func newPage[T any](results []T, total int64, params ListParams) Page[T] {
	params = params.Normalize()
	totalPages := 0
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(params.PageSize)))
	}
	if results == nil {
		results = []T{}
	}
	return Page[T]{
		Count:       total,
		TotalPages:  totalPages,
		CurrentPage: params.Page,
		PageSize:    params.PageSize,
		Results:     results,
	}
}

// likePattern строит шаблон для поиска подстроки без учета регистра
func likePattern(search string) string {
	return "%" + search + "%"
}
