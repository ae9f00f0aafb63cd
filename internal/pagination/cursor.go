package pagination

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// isoMillis 与 JavaScript Date.toISOString 一致的格式，客户端可能跨请求保存游标
const isoMillis = "2006-01-02T15:04:05.000Z"

// Cursor 游标指向上一页最后一条记录
type Cursor struct {
	ID        string
	CreatedAt time.Time
}

type cursorWire struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
}

// EncodeCursor 编码为 base64(JSON{id, createdAt})
func EncodeCursor(id string, createdAt time.Time) string {
	b, _ := json.Marshal(cursorWire{
		ID:        id,
		CreatedAt: createdAt.UTC().Format(isoMillis),
	})
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeCursor 解码游标，任何格式错误都返回 nil，视为“没有游标”
func DecodeCursor(s string) *Cursor {
	if s == "" {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil
	}
	var w cursorWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil
	}
	if w.ID == "" || w.CreatedAt == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, w.CreatedAt)
	if err != nil {
		return nil
	}
	return &Cursor{ID: w.ID, CreatedAt: ts.UTC()}
}

// CursorParams 规范化后的游标分页参数
type CursorParams struct {
	Size  int
	After *Cursor
}

// NormalizeCursor size 截断到 [1,50]，after 无法解码时忽略
func NormalizeCursor(size int, after string) CursorParams {
	return CursorParams{Size: ClampSize(size), After: DecodeCursor(after)}
}

// FetchLimit 多取一条用于判断是否还有下一页
func (p CursorParams) FetchLimit() int {
	return p.Size + 1
}

// CursorPage 游标分页结果
type CursorPage[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor"`
}

// FromRawData 由最多 size+1 条原始记录构造分页结果：
// 多于 size 条时只保留前 size 条，并以最后保留的一条生成 NextCursor。
func FromRawData[T any](rows []T, size int, key func(T) (string, time.Time)) CursorPage[T] {
	if len(rows) <= size {
		items := rows
		if items == nil {
			items = []T{}
		}
		return CursorPage[T]{Items: items}
	}
	items := rows[:size]
	if size == 0 {
		return CursorPage[T]{Items: []T{}}
	}
	id, ts := key(items[len(items)-1])
	next := EncodeCursor(id, ts)
	return CursorPage[T]{Items: items, NextCursor: &next}
}
