// Package cli handles cmd line lookups against index sets for DBG and testing
package cli

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/wordindex/internal/logger"
	"github.com/bastiangx/wordindex/internal/utils"
	"github.com/bastiangx/wordindex/pkg/dictionary"
	"github.com/bastiangx/wordindex/pkg/index"
	"github.com/charmbracelet/log"
)

// InputHandler reads lookups from stdin and prints the values found.
//
// Each line is either "key", looked up in the current set, or "set key".
// Keys are decimal or 0x-prefixed hex. Lines starting with ':' are commands:
//
//	:use <set>   switch the current set
//	:sets [pfx]  list sets on disk
//	:stats       loader statistics
type InputHandler struct {
	loader       *dictionary.Loader
	currentSet   string
	limit        int
	requestCount int
	out          *log.Logger
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(loader *dictionary.Loader, defaultSet string, limit int) *InputHandler {
	return &InputHandler{
		loader:     loader,
		currentSet: defaultSet,
		limit:      limit,
		out:        logger.New(""),
	}
}

// SetOutput redirects printed results to w.
func (h *InputHandler) SetOutput(w io.Writer) {
	h.out = logger.NewWithWriter(w, "")
}

// Start begins the interface loop on stdin.
func (h *InputHandler) Start() error {
	h.out.Print("WordIndex CLI [BETA]")
	h.out.Print("type [set] key and press Enter to look it up (Ctrl+C to exit):")
	return h.Run(os.Stdin)
}

// Run handles lines from r until it is exhausted.
func (h *InputHandler) Run(r io.Reader) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			h.handleInput(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// handleInput processes a single line.
func (h *InputHandler) handleInput(line string) {
	h.requestCount++
	fields := strings.Fields(line)

	if strings.HasPrefix(fields[0], ":") {
		h.handleCommand(fields)
		return
	}

	set := h.currentSet
	var keyArg string
	switch len(fields) {
	case 1:
		keyArg = fields[0]
	case 2:
		set, keyArg = fields[0], fields[1]
	default:
		h.out.Errorf("Expected [set] key, got %q", line)
		return
	}
	if set == "" {
		h.out.Error("No set selected, use :use <set> or type set key")
		return
	}

	key, err := utils.ParseKey(keyArg)
	if err != nil {
		h.out.Errorf("%v", err)
		return
	}
	h.lookup(set, key)
}

func (h *InputHandler) lookup(set string, key uint32) {
	start := time.Now()
	var vals, vals2 []uint32
	hasValues2 := false
	err := h.loader.With(set, func(st *index.Store) error {
		vals = st.Values(key)
		if st.HasValues2() {
			hasValues2 = true
			v2, err := st.Values2(key)
			vals2 = v2
			return err
		}
		return nil
	})
	elapsed := time.Since(start)
	log.Debugf("Took [ %v ] for key %d in %s", elapsed, key, set)

	if err != nil {
		h.out.Errorf("Lookup failed: %v", err)
		return
	}
	if len(vals) == 0 {
		h.out.Warnf("Key %d not found in %s", key, set)
		return
	}

	h.out.Printf("%s[%d] -> %d values: %s", set, key, len(vals), utils.FormatValues(vals, h.limit))
	if hasValues2 {
		h.out.Printf("%s[%d] -> values2: %s", set, key, utils.FormatValues(vals2, h.limit))
	}
}

func (h *InputHandler) handleCommand(fields []string) {
	switch fields[0] {
	case ":use":
		if len(fields) != 2 {
			h.out.Error("Usage: :use <set>")
			return
		}
		desc, err := h.loader.Describe(fields[1])
		if err != nil {
			h.out.Errorf("%v", err)
			return
		}
		h.currentSet = fields[1]
		h.out.Printf("Using %s", desc)
	case ":sets":
		prefix := ""
		if len(fields) > 1 {
			prefix = fields[1]
		}
		names, err := h.loader.Find(prefix)
		if err != nil {
			h.out.Errorf("%v", err)
			return
		}
		if len(names) == 0 {
			h.out.Warn("No index sets found")
			return
		}
		for i, name := range names {
			desc, err := h.loader.Describe(name)
			if err != nil {
				continue
			}
			h.out.Printf("%2d. %s", i+1, desc)
		}
	case ":stats":
		st := h.loader.GetStats()
		h.out.Printf("sets: %d available, %d open (%s records), max open %d, mmap %t",
			st.AvailableSets, st.LoadedSets, utils.FormatWithCommas(st.LoadedRecords), st.MaxOpen, st.Mapped)
		h.out.Printf("lookups: %d hits, %d misses, %d lines read", st.Hits, st.Misses, h.requestCount)
	default:
		h.out.Errorf("Unknown command %s", fields[0])
	}
}
