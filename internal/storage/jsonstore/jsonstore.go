// Package jsonstore is the durable subscription store: which subscriber
// tracks which waybills, and the last status each one saw. It is the only
// persisted state in the system.
//
// On disk it is a single JSON document keyed by subscriber id as a string:
//
//	{"100": {"90147628351": "In Transit"}}
package jsonstore

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

type Store struct {
	path string

	mu   sync.Mutex
	subs map[int64]map[string]string
}

// Entry is one (subscriber, waybill, last status) triple of a snapshot.
type Entry struct {
	Subscriber int64
	Waybill    string
	Status     string
}

func New(path string) *Store {
	return &Store{
		path: path,
		subs: make(map[int64]map[string]string),
	}
}

// Load reads the data file. A missing file is a fresh start, not an error.
// A corrupt file is kept aside and the store starts fresh, so one bad byte
// can never leave the service in a crash loop.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "read data file")
	}

	subs, err := parseDataFile(data)
	if err != nil {
		slog.Error("corrupt data file, starting fresh", "path", s.path, "error", err.Error())
		if renameErr := os.Rename(s.path, s.path+".corrupt"); renameErr != nil {
			slog.Error("preserve corrupt data file", "error", renameErr.Error())
		}
		subs = make(map[int64]map[string]string)
	}

	s.mu.Lock()
	s.subs = subs
	s.mu.Unlock()
	return nil
}

func parseDataFile(data []byte) (map[int64]map[string]string, error) {
	var raw map[string]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "unmarshal data file")
	}

	subs := make(map[int64]map[string]string, len(raw))
	for key, waybills := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad subscriber key %q", key)
		}
		if len(waybills) == 0 {
			continue
		}
		m := make(map[string]string, len(waybills))
		for awb, status := range waybills {
			m[awb] = status
		}
		subs[id] = m
	}
	return subs, nil
}

// Save writes the whole store to the data file. The write goes through a
// temp file and rename so a crash mid-write cannot truncate existing state.
func (s *Store) Save() error {
	s.mu.Lock()
	raw := make(map[string]map[string]string, len(s.subs))
	for id, waybills := range s.subs {
		m := make(map[string]string, len(waybills))
		for awb, status := range waybills {
			m[awb] = status
		}
		raw[strconv.FormatInt(id, 10)] = m
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal data file")
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "create data dir")
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write data file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "rename data file")
	}
	return nil
}

func (s *Store) Get(subscriber int64, waybill string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.subs[subscriber][waybill]
	return status, ok
}

func (s *Store) Put(subscriber int64, waybill, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.subs[subscriber]
	if !ok {
		m = make(map[string]string)
		s.subs[subscriber] = m
	}
	m[waybill] = status
}

// Delete removes one tracked waybill, dropping the subscriber entirely when
// its set becomes empty. Reports whether anything was removed, so deleting an
// already-evicted entry is a visible no-op.
func (s *Store) Delete(subscriber int64, waybill string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.subs[subscriber]
	if !ok {
		return false
	}
	if _, ok := m[waybill]; !ok {
		return false
	}
	delete(m, waybill)
	if len(m) == 0 {
		delete(s.subs, subscriber)
	}
	return true
}

// Clear removes every waybill of a subscriber and returns how many went.
func (s *Store) Clear(subscriber int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.subs[subscriber])
	delete(s.subs, subscriber)
	return n
}

// List returns a copy of a subscriber's waybill -> last status mapping.
func (s *Store) List(subscriber int64) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.subs[subscriber]))
	for awb, status := range s.subs[subscriber] {
		out[awb] = status
	}
	return out
}

// Snapshot returns every tracked triple. Poll cycles iterate the snapshot
// while mutations land on the live store.
func (s *Store) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for id, waybills := range s.subs {
		for awb, status := range waybills {
			out = append(out, Entry{Subscriber: id, Waybill: awb, Status: status})
		}
	}
	return out
}

// Counts reports the number of subscribers and tracked waybills.
func (s *Store) Counts() (subscribers, waybills int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.subs {
		waybills += len(m)
	}
	return len(s.subs), waybills
}
