package dictionary

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// SetMaxOpen changes how many sets may stay open, evicting the least
// recently used ones when the new limit is lower. 0 means unlimited.
func (l *Loader) SetMaxOpen(maxOpen int) error {
	if maxOpen < 0 {
		return fmt.Errorf("max open sets must not be negative, got %d", maxOpen)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current := len(l.loaded)
	l.opts.MaxOpen = maxOpen
	l.evictExcess("")
	log.Debugf("Max open index sets: %d (was holding %d, now %d)", maxOpen, current, len(l.loaded))
	return nil
}

// GetMaxRecordsAvailable returns the number of records across all sets on disk.
func (l *Loader) GetMaxRecordsAvailable() (int, error) {
	sets, err := l.GetAvailable()
	if err != nil {
		return 0, err
	}

	total := 0
	for _, set := range sets {
		total += set.Records
	}
	return total, nil
}

// Preload opens the given sets, or every available set when names is empty.
// Failures are logged and skipped; the number of sets opened is returned.
func (l *Loader) Preload(names ...string) (int, error) {
	if len(names) == 0 {
		sets, err := l.GetAvailable()
		if err != nil {
			return 0, err
		}
		for _, set := range sets {
			names = append(names, set.Name)
		}
	}

	loaded := 0
	for _, name := range names {
		if err := l.Load(name); err != nil {
			log.Warnf("Failed to load index set %s: %v", name, err)
			continue
		}
		loaded++
	}
	log.Debugf("Preloaded %d index sets", loaded)
	return loaded, nil
}
