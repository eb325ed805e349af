package cache

import (
	"context"
	"strings"
	"time"
)

// Cache giữ giá trị JSON theo key có TTL. Cache chỉ là fast path: caller
// phải chạy được đúng khi Get lỗi hoặc miss.
type Cache interface {
	// miss: found=false, err=nil, dest giữ nguyên
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// Key ghép namespace theo quy ước redis, vd Key("payment", "reservation", ref).
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
