package store

// Page 描述一次分页请求。零值/负值都会被钳制到合法区间。
type Page struct {
	Number int // 页号，最小 1
	Size   int // 每页条数，最小 1
}

// NewPage 构造分页请求：缺省页号为 1，缺省大小为 defaultSize，
// 超过 maxSize 时截断（maxSize <= 0 表示不设上限）。
func NewPage(number, size, defaultSize, maxSize int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = defaultSize
	}
	if size < 1 {
		size = 10
	}
	if maxSize > 0 && size > maxSize {
		size = maxSize
	}
	return Page{Number: number, Size: size}
}

// Offset 返回 SQL OFFSET。
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Meta 是返回给调用方的分页元数据。
type Meta struct {
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
}

// NewMeta 根据总条数和分页请求计算元数据（总页数向上取整）。
func NewMeta(total int64, p Page) Meta {
	pages := int((total + int64(p.Size) - 1) / int64(p.Size))
	return Meta{
		TotalItems:  total,
		TotalPages:  pages,
		CurrentPage: p.Number,
		PageSize:    p.Size,
	}
}
