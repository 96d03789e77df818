package viz

import (
	"sort"
	"sync"
)

type ImageContainer struct {
	name string
	data []byte
}

func (i *ImageContainer) Name() string {
	return i.name
}

func (i *ImageContainer) Data() []byte {
	return i.data
}

type Producer interface {
	Name() string
	GetImage() *ImageContainer
	AddPlotOption(opt PlotOptions)
}

// Registry groups image producers into buckets, one per channel.
type Registry struct {
	mu              sync.RWMutex
	producerBuckets map[string]map[string]Producer
}

func NewRegistry() *Registry {
	return &Registry{
		producerBuckets: make(map[string]map[string]Producer),
	}
}

func (s *Registry) Register(key string, p Producer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.producerBuckets[key]
	if !ok {
		bucket = make(map[string]Producer)
		s.producerBuckets[key] = bucket
	}
	bucket[p.Name()] = p
}

// Buckets returns the bucket names, sorted.
func (s *Registry) Buckets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.producerBuckets))
	for key := range s.producerBuckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Producers returns the names of a bucket's producers, sorted.
func (s *Registry) Producers(bucket string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items, ok := s.producerBuckets[bucket]
	if !ok {
		return nil, false
	}
	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, true
}

// Image renders one producer.  ok is false when the producer does not exist
// or has nothing to show yet.
func (s *Registry) Image(bucket, name string) (*ImageContainer, bool) {
	s.mu.RLock()
	p, ok := s.producerBuckets[bucket][name]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	img := p.GetImage()
	return img, img != nil
}
