package feed

import "sync"

// cachedResponse is a validated payload keyed by the ETag the feed served it
// under.
type cachedResponse struct {
	etag string
	body []byte
}

// responseCache is a simple thread-safe LRU cache for feed payloads.
type responseCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value cachedResponse
	prev  *entry
	next  *entry
}

func newResponseCache(maxEntries int) *responseCache {
	return &responseCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *responseCache) get(key string) (cachedResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return cachedResponse{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *responseCache) put(key, etag string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = cachedResponse{etag: etag, body: body}
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: cachedResponse{etag: etag, body: body}}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *responseCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *responseCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *responseCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *responseCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
