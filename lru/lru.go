package lru

import "container/list"

// Cache 是按条目数限制容量的 LRU 缓存，非并发安全
type Cache struct {
	// 最大条目数，0 表示不限制
	maxEntries int
	// 双向链表，队首为最近使用
	ll *list.List
	// 键到链表节点的映射
	cache map[string]*list.Element
	// 某条记录被淘汰时的回调函数，可以为 nil
	onEvicted func(key string, value string)
}

type entry struct {
	key   string
	value string
}

func New(maxEntries int, onEvicted func(key string, value string)) *Cache {
	return &Cache{
		maxEntries: maxEntries,
		ll:         list.New(),
		cache:      make(map[string]*list.Element),
		onEvicted:  onEvicted,
	}
}

// Add 插入或覆盖一个键值对，并标记为最近使用
func (c *Cache) Add(key string, value string) {
	if ele, ok := c.cache[key]; ok {
		c.ll.MoveToFront(ele)
		ele.Value.(*entry).value = value
		return
	}
	ele := c.ll.PushFront(&entry{key, value})
	c.cache[key] = ele
	// 容量只在插入时检查，超出时恰好淘汰一个最久未使用的条目
	if c.maxEntries != 0 && c.ll.Len() > c.maxEntries {
		c.RemoveOldest()
	}
}

// Get 查找键对应的值，命中时将其移到队首
func (c *Cache) Get(key string) (value string, ok bool) {
	if ele, hit := c.cache[key]; hit {
		c.ll.MoveToFront(ele)
		return ele.Value.(*entry).value, true
	}
	return
}

// RemoveOldest 淘汰链表尾部（最久未使用）的条目
func (c *Cache) RemoveOldest() {
	ele := c.ll.Back()
	if ele == nil {
		return
	}
	kv := c.removeElement(ele)
	if c.onEvicted != nil {
		c.onEvicted(kv.key, kv.value)
	}
}

// Remove 删除一个键，返回该键是否存在。主动删除不触发淘汰回调
func (c *Cache) Remove(key string) bool {
	ele, ok := c.cache[key]
	if !ok {
		return false
	}
	c.removeElement(ele)
	return true
}

func (c *Cache) removeElement(ele *list.Element) *entry {
	c.ll.Remove(ele)
	kv := ele.Value.(*entry)
	delete(c.cache, kv.key)
	return kv
}

func (c *Cache) Len() int {
	return c.ll.Len()
}

// Keys 按最近使用到最久未使用的顺序返回所有键
func (c *Cache) Keys() []string {
	keys := make([]string, 0, c.ll.Len())
	for ele := c.ll.Front(); ele != nil; ele = ele.Next() {
		keys = append(keys, ele.Value.(*entry).key)
	}
	return keys
}
