// Package analytics derives click statistics from a link's raw click log.
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/snipurl/snip/internal/model"
)

const (
	// TopReferrerLimit caps Summary.TopReferrers.
	TopReferrerLimit = 5

	// DateLayout formats ClicksByDate keys.
	DateLayout = "2006-01-02"

	week = 7 * 24 * time.Hour
)

// Summary is the aggregated view of a link's clicks.
type Summary struct {
	TotalClicks    int64           `json:"totalClicks"`
	UniqueClicks   int             `json:"uniqueClicks"`
	ClicksToday    int             `json:"clicksToday"`
	ClicksThisWeek int             `json:"clicksThisWeek"`
	TopReferrers   []ReferrerCount `json:"topReferrers"`
	ClicksByDate   []DateCount     `json:"clicksByDate"`
	DeviceStats    DeviceStats     `json:"deviceStats"`
}

// ReferrerCount is one bucket of the referrer histogram.
type ReferrerCount struct {
	Referer string `json:"referer"`
	Count   int    `json:"count"`
}

// DateCount is one bucket of the per-day histogram.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DeviceStats counts clicks per coarse device class.
type DeviceStats struct {
	Mobile  int `json:"mobile"`
	Desktop int `json:"desktop"`
	Tablet  int `json:"tablet"`
	Other   int `json:"other"`
}

// Device classes returned by ClassifyDevice.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceOther   = "other"
)

// Aggregate computes a Summary for link as seen at now. Calendar dates are
// taken in now's location.
func Aggregate(link *model.Link, now time.Time) Summary {
	loc := now.Location()
	today := now.Format(DateLayout)
	weekAgo := now.Add(-week)

	s := Summary{
		TotalClicks:  link.ClickCount,
		TopReferrers: []ReferrerCount{},
		ClicksByDate: []DateCount{},
	}

	ips := make(map[string]struct{}, len(link.Clicks))
	refIndex := make(map[string]int)
	dates := make(map[string]int)

	for _, c := range link.Clicks {
		ips[c.IP] = struct{}{}

		day := c.Timestamp.In(loc).Format(DateLayout)
		if day == today {
			s.ClicksToday++
		}
		if c.Timestamp.After(weekAgo) {
			s.ClicksThisWeek++
		}
		dates[day]++

		ref := c.Referer
		if ref == "" {
			ref = model.DirectReferer
		}
		if i, ok := refIndex[ref]; ok {
			s.TopReferrers[i].Count++
		} else {
			refIndex[ref] = len(s.TopReferrers)
			s.TopReferrers = append(s.TopReferrers, ReferrerCount{Referer: ref, Count: 1})
		}

		switch ClassifyDevice(c.UserAgent) {
		case DeviceMobile:
			s.DeviceStats.Mobile++
		case DeviceTablet:
			s.DeviceStats.Tablet++
		case DeviceDesktop:
			s.DeviceStats.Desktop++
		default:
			s.DeviceStats.Other++
		}
	}
	s.UniqueClicks = len(ips)

	// Stable sort keeps first-seen order among equal counts.
	sort.SliceStable(s.TopReferrers, func(i, j int) bool {
		return s.TopReferrers[i].Count > s.TopReferrers[j].Count
	})
	if len(s.TopReferrers) > TopReferrerLimit {
		s.TopReferrers = s.TopReferrers[:TopReferrerLimit]
	}

	for day, n := range dates {
		s.ClicksByDate = append(s.ClicksByDate, DateCount{Date: day, Count: n})
	}
	sort.Slice(s.ClicksByDate, func(i, j int) bool {
		return s.ClicksByDate[i].Date < s.ClicksByDate[j].Date
	})

	return s
}

// ClassifyDevice buckets a user agent by case-insensitive substring, checked
// in the order mobile, tablet, mozilla.
func ClassifyDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "mobile"):
		return DeviceMobile
	case strings.Contains(ua, "tablet"):
		return DeviceTablet
	case strings.Contains(ua, "mozilla"):
		return DeviceDesktop
	default:
		return DeviceOther
	}
}
