// Package feed 客户端侧的通知列表，合并分页拉取和实时推送的结果
package feed

import (
	"sort"
	"sync"
	"time"

	"github.com/qs3c/vivah_server/internal/model/dto"
)

// Feed 按 (created_at, id) 降序保存通知，同一 id 只保留一条
type Feed struct {
	mu    sync.RWMutex
	items []*dto.NotificationItem
	index map[int64]*dto.NotificationItem
	limit int
}

// New limit <= 0 表示不限制条数
func New(limit int) *Feed {
	return &Feed{
		index: make(map[int64]*dto.NotificationItem),
		limit: limit,
	}
}

// Merge 合并一批通知，返回合并后仍留在列表中的新增条数。
// 已存在的通知只会把未读变为已读，不会反向覆盖
func (f *Feed) Merge(items ...*dto.NotificationItem) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	var added []int64
	for _, in := range items {
		if in == nil {
			continue
		}
		if cur, ok := f.index[in.ID]; ok {
			if in.IsRead {
				cur.IsRead = true
			}
			continue
		}
		item := *in
		f.index[item.ID] = &item
		f.items = append(f.items, &item)
		added = append(added, item.ID)
	}

	if len(added) == 0 {
		return 0
	}

	sort.SliceStable(f.items, func(i, j int) bool {
		return newer(f.items[i], f.items[j])
	})
	f.trimLocked()

	// 比当前最旧一条还旧的通知会被立即裁掉，不算新增
	kept := 0
	for _, id := range added {
		if _, ok := f.index[id]; ok {
			kept++
		}
	}
	return kept
}

// Items 返回当前快照
func (f *Feed) Items() []dto.NotificationItem {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]dto.NotificationItem, len(f.items))
	for i, item := range f.items {
		out[i] = *item
	}
	return out
}

// MarkRead 本地标记已读，返回是否发生变化
func (f *Feed) MarkRead(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.index[id]
	if !ok || item.IsRead {
		return false
	}
	item.IsRead = true
	return true
}

// MarkAllRead 本地全部标记已读，返回变化条数
func (f *Feed) MarkAllRead() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, item := range f.items {
		if !item.IsRead {
			item.IsRead = true
			n++
		}
	}
	return n
}

func (f *Feed) UnreadCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := 0
	for _, item := range f.items {
		if !item.IsRead {
			n++
		}
	}
	return n
}

func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

// Latest 最新一条的时间，空列表返回零值
func (f *Feed) Latest() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.items) == 0 {
		return time.Time{}
	}
	return f.items[0].CreatedAt
}

func (f *Feed) trimLocked() {
	if f.limit <= 0 || len(f.items) <= f.limit {
		return
	}
	for _, item := range f.items[f.limit:] {
		delete(f.index, item.ID)
	}
	f.items = f.items[:f.limit]
}

func newer(a, b *dto.NotificationItem) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
