package repository

// PageResult 包含了所有分页查询返回的通用结构。
// Total 与当前页使用同一组过滤条件统计。
type PageResult[T any] struct {
	Items []*T  `json:"items"`
	Total int64 `json:"total"`
}
