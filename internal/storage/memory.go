package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/ryzom/shardstatus/internal/shard"
)

type memoryStorage struct {
	mu   sync.RWMutex
	data map[string][]DataPoint // key: server name
}

func NewMemoryStorage() Storage {
	return &memoryStorage{
		data: make(map[string][]DataPoint),
	}
}

func inRange(ts, from, to time.Time) bool {
	return !ts.Before(from) && !ts.After(to)
}

func (m *memoryStorage) Save(server string, state shard.State, timestamp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[server] = append(m.data[server], DataPoint{
		Timestamp: timestamp,
		State:     state,
	})

	return nil
}

func (m *memoryStorage) GetHistory(server string, from, to time.Time) (*ServerHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var filtered []DataPoint
	for _, p := range m.data[server] {
		if inRange(p.Timestamp, from, to) {
			filtered = append(filtered, p)
		}
	}

	return &ServerHistory{Server: server, Points: filtered}, nil
}

func (m *memoryStorage) GetLatest(server string, count int) (*ServerHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	points := m.data[server]

	var result []DataPoint
	if len(points) <= count {
		result = make([]DataPoint, len(points))
		copy(result, points)
	} else {
		result = make([]DataPoint, count)
		copy(result, points[len(points)-count:])
	}

	return &ServerHistory{Server: server, Points: result}, nil
}

func (m *memoryStorage) Observations(server string, from, to time.Time) ([]Observation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Observation
	for name, points := range m.data {
		if server != "" && name != server {
			continue
		}
		for _, p := range points {
			if inRange(p.Timestamp, from, to) {
				result = append(result, Observation{Timestamp: p.Timestamp, Server: name, State: p.State})
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Server < result[j].Server
		}
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result, nil
}

func (m *memoryStorage) Cleanup(olderThan time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, points := range m.data {
		var filtered []DataPoint
		for _, p := range points {
			if !p.Timestamp.Before(olderThan) {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) == 0 {
			delete(m.data, key)
		} else {
			m.data[key] = filtered
		}
	}

	return nil
}

func (m *memoryStorage) Close() error {
	return nil
}
