package exiftool

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	goexiftool "github.com/barasher/go-exiftool"
)

// CaptureTags lists the capture-time tags consulted, most trusted first.
var CaptureTags = []string{
	"QuickTime:DateTimeOriginal",
	"DateTimeOriginal",
	"QuickTime:CreationDate",
	"CreateDate",
}

// groupOrder ranks exiftool family-0 groups when a bare tag appears under
// several of them. Unlisted groups follow in sorted key order.
var groupOrder = []string{"EXIF", "QuickTime", "XMP"}

// ErrNoCaptureTime is returned when none of CaptureTags holds a parseable value.
var ErrNoCaptureTime = errors.New("no capture time tag")

// ErrClosed is returned after the client was closed or abandoned on timeout.
var ErrClosed = errors.New("exiftool client closed")

// process is the part of goexiftool.Exiftool the client drives.
type process interface {
	ExtractMetadata(files ...string) []goexiftool.FileMetadata
	Close() error
}

// Client serializes access to a long-lived exiftool process.
type Client struct {
	mu     sync.Mutex
	et     process
	closed bool
}

// Open starts exiftool in stay_open mode. binary may be empty to use PATH.
func Open(binary string) (*Client, error) {
	opts := []func(*goexiftool.Exiftool) error{goexiftool.PrintGroupNames("0")}
	if binary = strings.TrimSpace(binary); binary != "" && binary != "exiftool" {
		opts = append(opts, goexiftool.SetExiftoolBinaryPath(binary))
	}
	et, err := goexiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	return &Client{et: et}, nil
}

// Close stops the exiftool process.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.et.Close()
}

// Fields returns every tag exiftool reports for path, keyed with group names.
// A call that outlives ctx abandons the process: the client is closed and
// later calls fail with ErrClosed.
func (c *Client) Fields(ctx context.Context, path string) (map[string]any, error) {
	if c == nil {
		return nil, ErrClosed
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}

	type outcome struct {
		fields map[string]any
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		metas := c.et.ExtractMetadata(path)
		if len(metas) == 0 {
			done <- outcome{err: fmt.Errorf("exiftool %s: no result", path)}
			return
		}
		if metas[0].Err != nil {
			done <- outcome{err: fmt.Errorf("exiftool %s: %w", path, metas[0].Err)}
			return
		}
		done <- outcome{fields: metas[0].Fields}
	}()

	select {
	case res := <-done:
		c.mu.Unlock()
		return res.fields, res.err
	case <-ctx.Done():
		c.closed = true
		et := c.et
		c.mu.Unlock()
		go func() {
			<-done
			_ = et.Close()
		}()
		return nil, fmt.Errorf("exiftool %s: %w", path, ctx.Err())
	}
}

// CaptureTime returns the first parseable capture tag and its name.
func (c *Client) CaptureTime(ctx context.Context, path string) (time.Time, string, error) {
	fields, err := c.Fields(ctx, path)
	if err != nil {
		return time.Time{}, "", err
	}
	return captureFromFields(fields)
}

func captureFromFields(fields map[string]any) (time.Time, string, error) {
	for _, tag := range CaptureTags {
		for _, key := range candidateKeys(fields, tag) {
			value := stringValue(fields[key])
			if value == "" {
				continue
			}
			if parsed, ok := ParseTimestamp(value); ok {
				return parsed, key, nil
			}
		}
	}
	return time.Time{}, "", ErrNoCaptureTime
}

// candidateKeys matches "Group:Tag" exactly, and a bare "Tag" against every
// group in groupOrder preference.
func candidateKeys(fields map[string]any, tag string) []string {
	if strings.Contains(tag, ":") {
		if _, ok := fields[tag]; ok {
			return []string{tag}
		}
		return nil
	}
	var keys []string
	if _, ok := fields[tag]; ok {
		keys = append(keys, tag)
	}
	var grouped []string
	for key := range fields {
		_, name, found := strings.Cut(key, ":")
		if found && name == tag {
			grouped = append(grouped, key)
		}
	}
	slices.SortFunc(grouped, func(a, b string) int {
		if ra, rb := groupRank(a), groupRank(b); ra != rb {
			return ra - rb
		}
		return strings.Compare(a, b)
	})
	return append(keys, grouped...)
}

func groupRank(key string) int {
	group, _, _ := strings.Cut(key, ":")
	if i := slices.Index(groupOrder, group); i >= 0 {
		return i
	}
	return len(groupOrder)
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
