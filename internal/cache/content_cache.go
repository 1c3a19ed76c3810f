package cache

import (
	"sync"
	"time"

	"app/internal/domain/model"
)

// ランディングページ用のインプロセスTTLキャッシュ。
// TTL判定と書き込み時の無効化が競合しないよう、1本のMutexで守る。
type ContentCache struct {
	mu        sync.Mutex
	doc       model.LandingPageContent
	has       bool
	expiresAt time.Time
	ttl       time.Duration
}

func NewContentCache(ttl time.Duration) *ContentCache {
	return &ContentCache{ttl: ttl}
}

// 期限内ならキャッシュ済みドキュメントを返す
func (c *ContentCache) Get() (model.LandingPageContent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.has || time.Now().After(c.expiresAt) {
		return model.LandingPageContent{}, false
	}
	return c.doc, true
}

func (c *ContentCache) Set(doc model.LandingPageContent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.doc = doc
	c.has = true
	c.expiresAt = time.Now().Add(c.ttl)
}

// 書き込みのたびに呼ぶ
func (c *ContentCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.has = false
}
