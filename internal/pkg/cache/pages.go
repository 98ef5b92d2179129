package cache

import (
	"fmt"
	"log"
	"time"
)

const (
	eventPageKeyFmt     = "page:event:%s"
	eventListKey        = "page:events:index"
	pageCacheExpiration = 10 * time.Minute
)

// EventPageKey builds the cache key for a single event's public page.
func EventPageKey(slug string) string {
	return fmt.Sprintf(eventPageKeyFmt, slug)
}

// EventListKey returns the cache key for the public event index.
func EventListKey() string {
	return eventListKey
}

// SetEventPage caches a rendered event page body.
func SetEventPage(slug string, body []byte) error {
	return Set(EventPageKey(slug), body, pageCacheExpiration)
}

// SetEventList caches the rendered public event index.
func SetEventList(body []byte) error {
	return Set(eventListKey, body, pageCacheExpiration)
}

// GetEventPage returns a cached event page body, or an error on miss.
func GetEventPage(slug string) (string, error) {
	return Get(EventPageKey(slug))
}

// InvalidateEventPages drops the cached public pages for an event. Called
// after mutations that change what the storefront shows (premium upgrade,
// capacity change).
func InvalidateEventPages(slug string) {
	for _, key := range []string{EventPageKey(slug), eventListKey} {
		if err := Delete(key); err != nil {
			log.Printf("cache: failed to invalidate %s: %v", key, err)
		}
	}
}
