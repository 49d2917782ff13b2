package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Kind is the type a setting is read as.
type Kind int

const (
	Bool Kind = iota
	Uint
	Int
	String
	StringArray
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Uint:
		return "uint"
	case Int:
		return "int"
	case String:
		return "string"
	case StringArray:
		return "string-array"
	default:
		return "unknown"
	}
}

// Store is the live settings document. Values are read with typed getters;
// Subscribe reports keys whose value changed, whether through Set or through
// an edit of the file on disk.
type Store struct {
	path string

	mu     sync.RWMutex
	values map[string]any
	subs   map[int]func(key string)
	nextID int
}

// Open loads path if it exists. A missing file yields the defaults; it is
// created on the first Save.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: map[string]any{}, subs: map[int]func(string){}}
	values, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	s.values = values
	return s, nil
}

// NewMemory returns a store without a backing file.
func NewMemory(values map[string]any) *Store {
	s := &Store{values: map[string]any{}, subs: map[int]func(string){}}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Path returns the backing file, or "" for a memory store.
func (s *Store) Path() string { return s.path }

func readDocument(path string) (map[string]any, error) {
	values := map[string]any{}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

func (s *Store) raw(key string) any {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if ok {
		return v
	}
	return Defaults[key]
}

// Value returns key converted to kind: bool, uint, int, string or []string.
func (s *Store) Value(key string, kind Kind) any {
	raw := s.raw(key)
	switch kind {
	case Bool:
		return toBool(raw)
	case Uint:
		n := toInt(raw)
		if n < 0 {
			n = 0
		}
		return uint(n)
	case Int:
		return toInt(raw)
	case String:
		return toString(raw)
	case StringArray:
		return toStrings(raw)
	default:
		return raw
	}
}

func (s *Store) Bool(key string) bool        { return s.Value(key, Bool).(bool) }
func (s *Store) Uint(key string) uint        { return s.Value(key, Uint).(uint) }
func (s *Store) Int(key string) int          { return s.Value(key, Int).(int) }
func (s *Store) String(key string) string    { return s.Value(key, String).(string) }
func (s *Store) Strings(key string) []string { return s.Value(key, StringArray).([]string) }

// Set stores value under key, persists the document when file backed, and
// notifies subscribers if the value changed.
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	old, had := s.values[key]
	s.values[key] = value
	s.mu.Unlock()

	if had && reflect.DeepEqual(old, value) {
		return nil
	}
	if s.path != "" {
		if err := s.Save(); err != nil {
			return err
		}
	}
	s.notify([]string{key})
	return nil
}

// Save writes the document atomically.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	s.mu.RLock()
	data, err := yaml.Marshal(s.values)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Subscribe registers fn for changed keys. The returned func unregisters it.
func (s *Store) Subscribe(fn func(key string)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notify(keys []string) {
	s.mu.RLock()
	fns := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, key := range keys {
		for _, fn := range fns {
			fn(key)
		}
	}
}

// Reload re-reads the file and notifies keys whose effective value changed.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	values, err := readDocument(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	changed := diffKeys(s.values, values)
	s.values = values
	s.mu.Unlock()
	if len(changed) > 0 {
		slog.Info("settings reloaded", "changed", strings.Join(changed, ","))
		s.notify(changed)
	}
	return nil
}

func diffKeys(old, cur map[string]any) []string {
	seen := map[string]bool{}
	var changed []string
	for _, m := range []map[string]any{old, cur} {
		for k := range m {
			if seen[k] {
				continue
			}
			seen[k] = true
			if !reflect.DeepEqual(effective(old, k), effective(cur, k)) {
				changed = append(changed, k)
			}
		}
	}
	sort.Strings(changed)
	return changed
}

func effective(m map[string]any, key string) any {
	if v, ok := m[key]; ok {
		return v
	}
	return Defaults[key]
}

// Watch reloads the document whenever the file changes until ctx is done.
// The directory is watched so editors that replace the file are followed.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Reload(); err != nil {
				slog.Warn("settings reload failed", "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("settings watcher error", "error", err)
		}
	}
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	case int:
		return t != 0
	default:
		return false
	}
}

func toInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case uint:
		return int(t)
	case uint64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return n
	default:
		return 0
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// toStrings accepts a YAML sequence. Mapping elements are re-encoded as JSON
// so command records may be written either way.
func toStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			switch el := e.(type) {
			case string:
				out = append(out, el)
			case map[string]any:
				data, err := json.Marshal(el)
				if err != nil {
					slog.Warn("skipping unencodable settings entry", "error", err)
					continue
				}
				out = append(out, string(data))
			default:
				out = append(out, toString(el))
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		var out []string
		for _, p := range strings.Split(t, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}
