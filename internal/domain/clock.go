package domain

import "time"

// Now 领域层使用的时钟，精度截断到毫秒以便与数据库 DATETIME(3) 往返一致。
// 测试中可以替换。
var Now = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// touch 返回严格晚于 prev 的时间戳
func touch(prev time.Time) time.Time {
	now := Now()
	if !now.After(prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}
