package statistics

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/ticketcare/ticketcare/app/repository"
	"github.com/ticketcare/ticketcare/internal/pkg/cache"
)

const (
	CacheKeyTicketsToday = "statistics:tickets:today"
	CacheKeyRevenueToday = "statistics:revenue:today"
	CacheKeyEventsTotal  = "statistics:events:total"
	CacheExpiration      = 30 * time.Minute
)

// DashboardStats holds the aggregates shown on the organizer dashboard.
type DashboardStats struct {
	TicketsSoldToday int64 `json:"tickets_sold_today"`
	RevenueToday     int64 `json:"revenue_today"` // minor units
	TotalEvents      int64 `json:"total_events"`
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached aggregates are due a refresh
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cached aggregates when they are stale
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("statistics: cache refresh failed: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// UpdateStatisticsCache recomputes today's aggregates and stores them in Redis
func UpdateStatisticsCache() error {
	repos := repository.GetGlobalRepositories()
	midnight := time.Now().Truncate(24 * time.Hour)

	tickets, err := repos.Order.CountPaidTicketsSince(midnight)
	if err != nil {
		return err
	}
	revenue, err := repos.Order.SumPaidAmountSince(midnight)
	if err != nil {
		return err
	}
	events, err := repos.Event.Count()
	if err != nil {
		return err
	}

	if err := cache.Set(CacheKeyTicketsToday, tickets, CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyRevenueToday, revenue, CacheExpiration); err != nil {
		return err
	}
	return cache.Set(CacheKeyEventsTotal, events, CacheExpiration)
}

// GetDashboardStats reads the cached aggregates, recomputing on cache miss
func GetDashboardStats() (*DashboardStats, error) {
	tickets, err := cachedInt64(CacheKeyTicketsToday)
	if err != nil {
		if err := UpdateStatisticsCache(); err != nil {
			return nil, err
		}
		tickets, _ = cachedInt64(CacheKeyTicketsToday)
	}
	revenue, _ := cachedInt64(CacheKeyRevenueToday)
	events, _ := cachedInt64(CacheKeyEventsTotal)

	return &DashboardStats{
		TicketsSoldToday: tickets,
		RevenueToday:     revenue,
		TotalEvents:      events,
	}, nil
}

func cachedInt64(key string) (int64, error) {
	raw, err := cache.Get(key)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}
