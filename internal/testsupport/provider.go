package testsupport

import (
	"context"
	"sync"

	"footage/internal/media"
	"footage/internal/metadata"
	"footage/internal/services"
)

// FakeProvider is an in-memory metadata.Provider keyed by path. Paths without
// an entry fail with ErrMetadataExtraction, like a file the tools cannot read.
type FakeProvider struct {
	mu       sync.Mutex
	Created  map[string]metadata.CreationTime
	Captures map[string]metadata.Capture
	Tech     map[string]metadata.Technical
	Raws     map[string]map[string]any
	Calls    []string
}

// NewFakeProvider returns an empty provider.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		Created:  map[string]metadata.CreationTime{},
		Captures: map[string]metadata.Capture{},
		Tech:     map[string]metadata.Technical{},
		Raws:     map[string]map[string]any{},
	}
}

func (f *FakeProvider) VideoCreationTime(_ context.Context, path string) (metadata.CreationTime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "creation:"+path)
	if value, ok := f.Created[path]; ok {
		return value, nil
	}
	return metadata.CreationTime{}, services.Wrap(services.ErrMetadataExtraction, "fake", "ffprobe", path, nil)
}

func (f *FakeProvider) CaptureTime(_ context.Context, path string) (metadata.Capture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "capture:"+path)
	if value, ok := f.Captures[path]; ok {
		return value, nil
	}
	return metadata.Capture{}, services.Wrap(services.ErrMetadataExtraction, "fake", "exiftool", path, nil)
}

func (f *FakeProvider) Technical(_ context.Context, path string) (metadata.Technical, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "technical:"+path)
	if value, ok := f.Tech[path]; ok {
		return value, nil
	}
	return metadata.Technical{}, services.Wrap(services.ErrMetadataExtraction, "fake", "ffprobe", path, nil)
}

func (f *FakeProvider) Raw(_ context.Context, path string, _ media.Kind) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "raw:"+path)
	if value, ok := f.Raws[path]; ok {
		return value, nil
	}
	return nil, services.Wrap(services.ErrMetadataExtraction, "fake", "raw", path, nil)
}
