package assets

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"sync"
)

// Memory is an in-memory asset namespace for images produced at run time,
// such as rendered text labels.
//
// Thread Safety: Memory is safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	images map[string]*image.RGBA
}

// NewMemory returns an empty namespace.
func NewMemory() *Memory {
	return &Memory{images: make(map[string]*image.RGBA)}
}

// Put stores img under name, replacing any previous image. The image is
// converted to RGBA if needed.
//
// A renderer that has already drawn name keeps its uploaded copy; use a
// new name to show a changed image.
func (m *Memory) Put(name string, img image.Image) {
	rgba := ToRGBA(img)
	m.mu.Lock()
	m.images[name] = rgba
	m.mu.Unlock()
}

// Delete removes name.
func (m *Memory) Delete(name string) {
	m.mu.Lock()
	delete(m.images, name)
	m.mu.Unlock()
}

// Len returns the number of stored images.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.images)
}

// LoadImage returns the image stored under name.
func (m *Memory) LoadImage(name string) (*image.RGBA, error) {
	m.mu.RLock()
	img, ok := m.images[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("assets: %q: %w", name, fs.ErrNotExist)
	}
	return img, nil
}

// Chain tries each loader in order and returns the first image found.
// A loader that reports fs.ErrNotExist is skipped; any other error stops
// the lookup.
type Chain []Loader

// LoadImage implements Loader.
func (c Chain) LoadImage(name string) (*image.RGBA, error) {
	for _, l := range c {
		img, err := l.LoadImage(name)
		if err == nil {
			return img, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("assets: %q not found in %d sources: %w", name, len(c), fs.ErrNotExist)
}
