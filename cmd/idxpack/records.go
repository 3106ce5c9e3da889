package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bastiangx/wordindex/internal/utils"
	"github.com/bastiangx/wordindex/pkg/config"
	"github.com/bastiangx/wordindex/pkg/dictionary"
	"github.com/bastiangx/wordindex/pkg/index"
	"github.com/charmbracelet/log"
)

// resolveLayout reads the file extensions from the config wordindex would
// load, so the server finds the sets written here.
func resolveLayout(configFile string) (dictionary.Layout, error) {
	cfg, configPath, err := config.LoadConfigWithPriority(configFile)
	if err != nil {
		return dictionary.Layout{}, err
	}
	layout := cfg.Index.Layout()
	log.Debugf("Using layout %+v from %s", layout, config.GetActiveConfigPath(configPath))
	return layout, nil
}

// readRecords parses "key value [value2]" lines from r into a Builder.
// Blank lines and lines starting with '#' are skipped. The first record
// decides whether the set carries secondary values; every later record must
// have the same number of columns.
func readRecords(r io.Reader) (*index.Builder, error) {
	var b *index.Builder
	columns := 0

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 && len(fields) != 3 {
			return nil, fmt.Errorf("line %d: %w: expected key value [value2], got %d columns",
				lineNo, index.ErrInvalidInput, len(fields))
		}
		if b == nil {
			columns = len(fields)
			b = index.NewBuilder(columns == 3)
		} else if len(fields) != columns {
			return nil, fmt.Errorf("line %d: %w: expected %d columns like the first record, got %d",
				lineNo, index.ErrInvalidInput, columns, len(fields))
		}

		nums := make([]uint32, len(fields))
		for i, f := range fields {
			v, err := utils.ParseKey(f)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			nums[i] = v
		}
		if columns == 3 {
			b.Add2(nums[0], nums[1], nums[2])
		} else {
			b.Add(nums[0], nums[1])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	if b == nil {
		b = index.NewBuilder(false)
	}
	return b, nil
}
