package staging

import (
	"sort"

	"footage/internal/media"
	"footage/internal/placeholder"
	"footage/internal/planner"
)

// Bucket counts placeholders for one kind and date folder.
type Bucket struct {
	Kind        media.Kind
	Date        string
	Planned     int
	Transferred int
	Bytes       int64
}

// Summary describes the state of a staging tree.
type Summary struct {
	Buckets     []Bucket
	Planned     int
	Transferred int
	Pending     int
	Invalid     []string
	Bytes       int64
	PendingSize int64
}

// Summarize reads every placeholder under root and groups them by kind and
// date folder. Buckets are sorted by kind then date.
func Summarize(root string) (Summary, error) {
	type key struct {
		kind media.Kind
		date string
	}
	buckets := map[key]*Bucket{}
	var summary Summary

	err := placeholder.Walk(root, func(path string) error {
		rec, err := placeholder.Read(path)
		if err != nil {
			summary.Invalid = append(summary.Invalid, path)
			return nil
		}
		date := rec.Timestamps.Date
		if !rec.Timestamps.Valid || date == "" {
			date = planner.InvalidBucket
		}
		k := key{kind: rec.File.Kind, date: date}
		b, ok := buckets[k]
		if !ok {
			b = &Bucket{Kind: rec.File.Kind, Date: date}
			buckets[k] = b
		}
		b.Planned++
		b.Bytes += rec.Info.OriginalSize
		summary.Planned++
		summary.Bytes += rec.Info.OriginalSize
		if rec.Transferred() {
			b.Transferred++
			summary.Transferred++
		} else {
			summary.Pending++
			summary.PendingSize += rec.Info.OriginalSize
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	summary.Buckets = make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		summary.Buckets = append(summary.Buckets, *b)
	}
	sort.Slice(summary.Buckets, func(i, j int) bool {
		if summary.Buckets[i].Kind != summary.Buckets[j].Kind {
			return summary.Buckets[i].Kind < summary.Buckets[j].Kind
		}
		return summary.Buckets[i].Date < summary.Buckets[j].Date
	})
	return summary, nil
}
