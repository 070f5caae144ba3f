package pagination

import (
	"context"
	"strconv"

	"gorm.io/gorm"
)

// DefaultPageSize 每页条数
const DefaultPageSize = 10

// Page 一页数据及分页元信息
type Page[T any] struct {
	Items    []T   `json:"items"`
	Number   int   `json:"page"`
	Size     int   `json:"page_size"`
	Count    int64 `json:"count"`
	NumPages int   `json:"num_pages"`
}

// ParseNumber 解析页码，非法值按第 1 页处理
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// New 计算分页：超出范围的页码落到最后一页，空结果集也有第 1 页
func New[T any](count int64, number, size int) *Page[T] {
	if size < 1 {
		size = DefaultPageSize
	}
	numPages := int((count + int64(size) - 1) / int64(size))
	if numPages < 1 {
		numPages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}
	return &Page[T]{Items: []T{}, Number: number, Size: size, Count: count, NumPages: numPages}
}

// Empty 空页
func Empty[T any](size int) *Page[T] { return New[T](0, 1, size) }

// Offset 当前页的起始偏移
func (p *Page[T]) Offset() int { return (p.Number - 1) * p.Size }

func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }

func (p *Page[T]) HasNext() bool { return p.Number < p.NumPages }

func (p *Page[T]) HasOtherPages() bool { return p.HasPrevious() || p.HasNext() }

func (p *Page[T]) PreviousNumber() int { return p.Number - 1 }

func (p *Page[T]) NextNumber() int { return p.Number + 1 }

// Range 1..NumPages，模板里渲染页码
func (p *Page[T]) Range() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}

// Query 对 base 查询计数后取出指定页；order/preloads 只作用于取数据那一步
func Query[T any](ctx context.Context, base *gorm.DB, number, size int, order string, preloads ...string) (*Page[T], error) {
	var count int64
	if err := base.Session(&gorm.Session{}).WithContext(ctx).Count(&count).Error; err != nil {
		return nil, err
	}
	page := New[T](count, number, size)
	if count == 0 {
		return page, nil
	}

	q := base.Session(&gorm.Session{}).WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Offset(page.Offset()).Limit(page.Size).Find(&page.Items).Error; err != nil {
		return nil, err
	}
	return page, nil
}
