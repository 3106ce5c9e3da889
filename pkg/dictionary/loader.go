/*
Package dictionary manages the index sets found in a data directory.

A Loader discovers sets by their keys files, opens them on demand (heap copies
or memory mappings), and keeps at most MaxOpen of them open, evicting the least
recently used. Lookups go through With, which holds the set open for the
duration of the callback.
*/
package dictionary

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bastiangx/wordindex/internal/utils"
	"github.com/bastiangx/wordindex/pkg/index"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

var (
	// ErrUnknownSet is returned for set names with no keys file in the data directory.
	ErrUnknownSet = errors.New("unknown index set")
	// ErrNotLoaded is returned when evicting a set that is not open.
	ErrNotLoaded = errors.New("index set not loaded")
)

// Options control how a Loader opens sets.
type Options struct {
	Layout  Layout
	UseMmap bool
	MaxOpen int // 0 means unlimited
}

// SetInfo describes an index set available on disk.
type SetInfo struct {
	Name        string
	KeysPath    string
	ValuesPath  string
	Values2Path string // empty when the set has no secondary file
	Records     int
}

// HasValues2 reports whether the set has a secondary values file.
func (si SetInfo) HasValues2() bool {
	return si.Values2Path != ""
}

// LoaderStats provides statistics about open sets.
type LoaderStats struct {
	AvailableSets int
	LoadedSets    int
	LoadedRecords int
	MaxOpen       int
	Mapped        bool
	Hits          int64
	Misses        int64
}

type openSet struct {
	store    *index.Store
	mapped   *index.Mapped
	lastUsed atomic.Int64
}

func (s *openSet) close() error {
	if s.mapped != nil {
		return s.mapped.Close()
	}
	return nil
}

// Loader opens index sets from a directory and caches them.
type Loader struct {
	dirPath   string
	opts      Options
	mu        sync.RWMutex
	loaded    map[string]*openSet
	available map[string]SetInfo
	names     *patricia.Trie
	clock     atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
}

// NewLoader creates a loader over dirPath. Nothing is read until first use.
func NewLoader(dirPath string, opts Options) *Loader {
	if opts.Layout == (Layout{}) {
		opts.Layout = DefaultLayout()
	}
	return &Loader{
		dirPath: dirPath,
		opts:    opts,
		loaded:  make(map[string]*openSet),
		names:   patricia.NewTrie(),
	}
}

// DirPath returns the data directory.
func (l *Loader) DirPath() string {
	return l.dirPath
}

// GetAvailable scans the directory for index sets, sorted by name.
func (l *Loader) GetAvailable() ([]SetInfo, error) {
	sets, err := l.scan()
	if err != nil {
		return nil, err
	}

	available := make(map[string]SetInfo, len(sets))
	names := patricia.NewTrie()
	for _, set := range sets {
		available[set.Name] = set
		names.Insert(patricia.Prefix(set.Name), set.Records)
	}

	l.mu.Lock()
	l.available = available
	l.names = names
	l.mu.Unlock()

	return sets, nil
}

// scan lists sets without touching loader state.
func (l *Loader) scan() ([]SetInfo, error) {
	entries, err := os.ReadDir(l.dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for index files: %w", err)
	}

	layout := l.opts.Layout
	var sets []SetInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		role, name, err := DetectRole(entry.Name(), layout)
		if err != nil || role != RoleKeys {
			continue
		}

		keysPath, valuesPath, values2Path := layout.paths(l.dirPath, name)
		if !utils.FileExists(valuesPath) {
			log.Warnf("Index set %s has no values file %s, skipping", name, valuesPath)
			continue
		}
		if err := ValidateIndexFile(keysPath); err != nil {
			log.Warnf("Skipping index set %s: %v", name, err)
			continue
		}
		if layout.Values2Ext == "" || !utils.FileExists(values2Path) {
			values2Path = ""
		}

		records, err := recordCount(keysPath)
		if err != nil {
			log.Warnf("Failed to get record count for %s: %v", keysPath, err)
		}
		sets = append(sets, SetInfo{
			Name:        name,
			KeysPath:    keysPath,
			ValuesPath:  valuesPath,
			Values2Path: values2Path,
			Records:     records,
		})
	}

	sort.Slice(sets, func(i, j int) bool {
		return sets[i].Name < sets[j].Name
	})
	return sets, nil
}

// Find rescans the directory and returns the names of available sets
// starting with prefix.
func (l *Loader) Find(prefix string) ([]string, error) {
	if _, err := l.GetAvailable(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var names []string
	visit := func(p patricia.Prefix, _ patricia.Item) error {
		names = append(names, string(p))
		return nil
	}
	var err error
	if prefix == "" {
		err = l.names.Visit(visit)
	} else {
		err = l.names.VisitSubtree(patricia.Prefix(prefix), visit)
	}
	if err != nil {
		return nil, fmt.Errorf("listing index sets: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// info looks a set up, rescanning once if the name is not known yet.
// Callers hold l.mu.
func (l *Loader) info(name string) (SetInfo, error) {
	if set, ok := l.available[name]; ok {
		return set, nil
	}
	sets, err := l.scan()
	if err != nil {
		return SetInfo{}, err
	}
	l.available = make(map[string]SetInfo, len(sets))
	l.names = patricia.NewTrie()
	for _, set := range sets {
		l.available[set.Name] = set
		l.names.Insert(patricia.Prefix(set.Name), set.Records)
	}
	if set, ok := l.available[name]; ok {
		return set, nil
	}
	return SetInfo{}, fmt.Errorf("%w: %s", ErrUnknownSet, name)
}

// Load opens the named set if it is not open already.
func (l *Loader) Load(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.load(name)
	return err
}

// load returns the open set called name, opening it when needed.
// Callers hold l.mu for writing.
func (l *Loader) load(name string) (*openSet, error) {
	if opened, ok := l.loaded[name]; ok {
		return opened, nil
	}

	set, err := l.info(name)
	if err != nil {
		return nil, err
	}

	log.Debugf("Loading index set %s with %d records", name, set.Records)
	opened := &openSet{}
	if l.opts.UseMmap {
		m, err := index.OpenMapped(set.KeysPath, set.ValuesPath, set.Values2Path)
		if err != nil {
			return nil, fmt.Errorf("failed to load index set %s: %w", name, err)
		}
		opened.mapped = m
		opened.store = m.Store
	} else {
		s, err := index.Open(set.KeysPath, set.ValuesPath, set.Values2Path)
		if err != nil {
			return nil, fmt.Errorf("failed to load index set %s: %w", name, err)
		}
		opened.store = s
	}
	opened.lastUsed.Store(l.clock.Add(1))
	l.loaded[name] = opened

	l.evictExcess(name)
	log.Debugf("Index set %s loaded", name)
	return opened, nil
}

// With runs fn against the named set, loading it first if needed.
// The set cannot be evicted while fn runs; fn must not retain the store.
// On a miss fn runs under the write lock, right after the set is opened.
func (l *Loader) With(name string, fn func(*index.Store) error) error {
	if ran, err := l.tryWith(name, fn); ran {
		return err
	}
	l.misses.Add(1)

	l.mu.Lock()
	defer l.mu.Unlock()
	opened, err := l.load(name)
	if err != nil {
		return err
	}
	opened.lastUsed.Store(l.clock.Add(1))
	return fn(opened.store)
}

func (l *Loader) tryWith(name string, fn func(*index.Store) error) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	set, ok := l.loaded[name]
	if !ok {
		return false, nil
	}
	set.lastUsed.Store(l.clock.Add(1))
	l.hits.Add(1)
	return true, fn(set.store)
}

// Evict closes the named set.
func (l *Loader) Evict(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	set, ok := l.loaded[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotLoaded, name)
	}
	delete(l.loaded, name)
	log.Debugf("Evicted index set %s", name)
	return set.close()
}

// evictExcess drops least recently used sets above MaxOpen, never keep.
// Callers hold l.mu.
func (l *Loader) evictExcess(keep string) {
	if l.opts.MaxOpen <= 0 {
		return
	}
	for len(l.loaded) > l.opts.MaxOpen {
		var oldestName string
		var oldestTime int64 = 1<<63 - 1
		for name, set := range l.loaded {
			if name == keep {
				continue
			}
			if t := set.lastUsed.Load(); t < oldestTime {
				oldestTime = t
				oldestName = name
			}
		}
		if oldestName == "" {
			return
		}
		if err := l.loaded[oldestName].close(); err != nil {
			log.Warnf("Failed to close index set %s: %v", oldestName, err)
		}
		delete(l.loaded, oldestName)
		log.Debugf("Evicted index set %s", oldestName)
	}
}

// GetLoadedNames returns the names of open sets, sorted.
func (l *Loader) GetLoadedNames() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.loaded))
	for name := range l.loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetStats returns current loader statistics.
func (l *Loader) GetStats() LoaderStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	records := 0
	for _, set := range l.loaded {
		records += set.store.Len()
	}
	return LoaderStats{
		AvailableSets: len(l.available),
		LoadedSets:    len(l.loaded),
		LoadedRecords: records,
		MaxOpen:       l.opts.MaxOpen,
		Mapped:        l.opts.UseMmap,
		Hits:          l.hits.Load(),
		Misses:        l.misses.Load(),
	}
}

// Close closes every open set.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for name, set := range l.loaded {
		if err := set.close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", name, err))
		}
	}
	l.loaded = make(map[string]*openSet)
	return errors.Join(errs...)
}

// Info returns the on-disk description of the named set.
func (l *Loader) Info(name string) (SetInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.info(name)
}

// Describe returns a one-line summary of the named set.
func (l *Loader) Describe(name string) (string, error) {
	set, err := l.Info(name)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s records)", set.Name, utils.FormatWithCommas(set.Records))
	if set.HasValues2() {
		b.WriteString(" +values2")
	}
	return b.String(), nil
}
