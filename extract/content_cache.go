package extract

import (
	"sync"
	"time"
)

type cachedPage struct {
	content *ExtractedContent
	at      time.Time
}

// contentCache is the extractor's short-lived per-URL cache. It only has to
// prevent re-fetching the same URL within one extractor's lifetime, so a
// plain map with TTL checks on read is enough.
type contentCache struct {
	mu    sync.RWMutex
	pages map[string]cachedPage
	ttl   time.Duration
}

func newContentCache(ttl time.Duration) *contentCache {
	return &contentCache{
		pages: make(map[string]cachedPage),
		ttl:   ttl,
	}
}

func (c *contentCache) get(url string) *ExtractedContent {
	c.mu.RLock()
	page, ok := c.pages[url]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	if time.Since(page.at) > c.ttl {
		c.mu.Lock()
		delete(c.pages, url)
		c.mu.Unlock()
		return nil
	}
	return page.content
}

func (c *contentCache) put(url string, content *ExtractedContent) {
	c.mu.Lock()
	c.pages[url] = cachedPage{content: content, at: time.Now()}
	c.mu.Unlock()
}
