package ringcache

// Item 是请求/响应中交换的键值对，Value 为空表示未命中
type Item struct {
	Key   string
	Value string
}

// Found 报告是否命中
func (i Item) Found() bool {
	return i.Value != ""
}

// Response 是管理类和写类操作的返回结果
type Response struct {
	Success bool
	Message string
}
