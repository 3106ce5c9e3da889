package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bastiangx/wordindex/pkg/config"
	"github.com/bastiangx/wordindex/pkg/dictionary"
	"github.com/bastiangx/wordindex/pkg/index"
	"github.com/bastiangx/wordindex/pkg/metrics"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Error codes sent in ErrorResponse.
const (
	CodeInvalidInput = 400
	CodeNotFound     = 404
	CodeInvalidState = 409
	CodeCorruptFile  = 422
	CodeInternal     = 500
)

// actionInvalid labels requests that could not be decoded.
const actionInvalid = "invalid"

// Server handles msgpack IPC for index lookups
type Server struct {
	loader       *dictionary.Loader
	config       *config.Config
	configPath   string
	metrics      *metrics.Metrics
	requestCount int
}

// NewServer creates a lookup server over loader.
// configPath may be empty, in which case the config is never reloaded.
func NewServer(loader *dictionary.Loader, cfg *config.Config, configPath string) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		loader:     loader,
		config:     cfg,
		configPath: configPath,
	}
}

// WithMetrics makes the server record request metrics on m.
func (s *Server) WithMetrics(m *metrics.Metrics) *Server {
	s.metrics = m
	return s
}

// Start serves requests from stdin, writing responses to stdout.
func (s *Server) Start() error {
	log.Debug("Starting Server.")
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve handles requests from r until it is exhausted.
// A request that cannot be decoded gets an error response; the stream goes on.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	dec := msgpack.NewDecoder(bufio.NewReader(r))
	out := bufio.NewWriter(w)
	enc := msgpack.NewEncoder(out)

	for {
		var raw msgpack.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			log.Errorf("Reading request stream: %v", err)
			return err
		}

		resp := s.handleRaw(raw)
		if err := enc.Encode(resp); err != nil {
			log.Errorf("Encoding response: %v", err)
			return err
		}
		if err := out.Flush(); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
		s.afterRequest()
	}
}

// handleRaw decodes one request and returns its response.
func (s *Server) handleRaw(raw msgpack.RawMessage) any {
	start := time.Now()
	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		log.Debugf("Invalid request: %v", err)
		s.metrics.Observe(actionInvalid, time.Since(start), err)
		return ErrorResponse{
			ID:        recoverID(raw),
			Error:     "invalid msgpack request",
			Code:      CodeInvalidInput,
			TimeTaken: micros(start),
		}
	}

	resp, err := s.handle(req, start)
	s.metrics.Observe(req.Action, time.Since(start), err)
	if err != nil {
		log.Debugf("Request %s (%s) failed: %v", req.ID, req.Action, err)
		return ErrorResponse{ID: req.ID, Error: err.Error(), Code: errorCode(err), TimeTaken: micros(start)}
	}
	return resp
}

// recoverID returns the string id of a map-shaped message whose other
// fields failed to decode, or "".
func recoverID(raw msgpack.RawMessage) string {
	var fields map[string]any
	if err := msgpack.Unmarshal(raw, &fields); err != nil {
		return ""
	}
	id, _ := fields["id"].(string)
	return id
}

// handle dispatches on the request action
func (s *Server) handle(req Request, start time.Time) (any, error) {
	switch req.Action {
	case "get":
		return s.handleGet(req, start, (*index.Store).Value)
	case "get2":
		return s.handleGet(req, start, (*index.Store).Value2)
	case "get_all":
		return s.handleGetAll(req, start, func(st *index.Store, k uint32) ([]uint32, error) {
			return st.Values(k), nil
		})
	case "get2_all":
		return s.handleGetAll(req, start, (*index.Store).Values2)
	case "batch":
		return s.handleBatch(req, start)
	case "list":
		return s.handleList(req, start)
	case "info":
		return s.handleInfo(req, start)
	case "load":
		if err := requireSet(req); err != nil {
			return nil, err
		}
		if err := s.loader.Load(req.Set); err != nil {
			return nil, err
		}
		return StatusResponse{ID: req.ID, Status: "loaded", TimeTaken: micros(start)}, nil
	case "evict":
		if err := requireSet(req); err != nil {
			return nil, err
		}
		if err := s.loader.Evict(req.Set); err != nil {
			return nil, err
		}
		return StatusResponse{ID: req.ID, Status: "evicted", TimeTaken: micros(start)}, nil
	case "health":
		return StatusResponse{ID: req.ID, Status: "ok", TimeTaken: micros(start)}, nil
	case "":
		return nil, fmt.Errorf("%w: missing action", index.ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", index.ErrInvalidInput, req.Action)
	}
}

func (s *Server) handleGet(req Request, start time.Time, lookup func(*index.Store, uint32) (uint32, error)) (any, error) {
	if err := requireSet(req); err != nil {
		return nil, err
	}
	var v uint32
	err := s.loader.With(req.Set, func(st *index.Store) error {
		var err error
		v, err = lookup(st, req.Key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ValueResponse{ID: req.ID, Value: v, Found: true, TimeTaken: micros(start)}, nil
}

func (s *Server) handleGetAll(req Request, start time.Time, lookup func(*index.Store, uint32) ([]uint32, error)) (any, error) {
	if err := requireSet(req); err != nil {
		return nil, err
	}
	var vals []uint32
	err := s.loader.With(req.Set, func(st *index.Store) error {
		var err error
		vals, err = lookup(st, req.Key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ValuesResponse{ID: req.ID, Values: vals, Count: len(vals), TimeTaken: micros(start)}, nil
}

func (s *Server) handleBatch(req Request, start time.Time) (any, error) {
	if err := requireSet(req); err != nil {
		return nil, err
	}
	if len(req.Keys) > s.config.Server.MaxBatch {
		return nil, fmt.Errorf("%w: batch of %d keys exceeds max_batch %d",
			index.ErrInvalidInput, len(req.Keys), s.config.Server.MaxBatch)
	}
	results := make([][]uint32, len(req.Keys))
	err := s.loader.With(req.Set, func(st *index.Store) error {
		for i, k := range req.Keys {
			results[i] = st.Values(k)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return BatchResponse{ID: req.ID, Results: results, Count: len(results), TimeTaken: micros(start)}, nil
}

func (s *Server) handleList(req Request, start time.Time) (any, error) {
	names, err := s.loader.Find(req.Set)
	if err != nil {
		return nil, err
	}
	loaded := make(map[string]bool)
	for _, name := range s.loader.GetLoadedNames() {
		loaded[name] = true
	}

	sets := make([]SetEntry, 0, len(names))
	for _, name := range names {
		info, err := s.loader.Info(name)
		if err != nil {
			// removed from disk since the scan
			continue
		}
		sets = append(sets, entryFor(info, loaded[name]))
	}
	return ListResponse{ID: req.ID, Sets: sets, TimeTaken: micros(start)}, nil
}

func (s *Server) handleInfo(req Request, start time.Time) (any, error) {
	resp := InfoResponse{ID: req.ID}
	if req.Set != "" {
		info, err := s.loader.Info(req.Set)
		if err != nil {
			return nil, err
		}
		isLoaded := false
		for _, name := range s.loader.GetLoadedNames() {
			if name == req.Set {
				isLoaded = true
				break
			}
		}
		entry := entryFor(info, isLoaded)
		resp.Set = &entry
	}

	st := s.loader.GetStats()
	resp.Stats = Stats{
		AvailableSets: st.AvailableSets,
		LoadedSets:    st.LoadedSets,
		LoadedRecords: st.LoadedRecords,
		MaxOpen:       st.MaxOpen,
		Mapped:        st.Mapped,
		Hits:          st.Hits,
		Misses:        st.Misses,
	}
	resp.TimeTaken = micros(start)
	return resp, nil
}

// afterRequest updates gauges and periodically reloads the config file.
func (s *Server) afterRequest() {
	s.requestCount++
	if s.metrics != nil {
		st := s.loader.GetStats()
		s.metrics.SetOpen(st.LoadedSets, st.LoadedRecords)
	}
	every := s.config.Server.ReloadEvery
	if s.configPath == "" || every <= 0 || s.requestCount%every != 0 {
		return
	}
	s.reloadConfig()
}

func (s *Server) reloadConfig() {
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		log.Warnf("Failed to reload config from %s: %v", s.configPath, err)
		return
	}
	if cfg.Index.MaxOpen != s.config.Index.MaxOpen {
		if err := s.loader.SetMaxOpen(cfg.Index.MaxOpen); err != nil {
			log.Warnf("Failed to apply max_open %d: %v", cfg.Index.MaxOpen, err)
		}
	}
	s.config = cfg
	log.Debugf("Config reloaded from %s after %d requests", s.configPath, s.requestCount)
}

func requireSet(req Request) error {
	if req.Set == "" {
		return fmt.Errorf("%w: missing set", index.ErrInvalidInput)
	}
	return nil
}

func entryFor(info dictionary.SetInfo, loaded bool) SetEntry {
	return SetEntry{
		Name:    info.Name,
		Records: info.Records,
		Values2: info.HasValues2(),
		Loaded:  loaded,
	}
}

// errorCode maps an error chain to the numeric code sent to clients.
func errorCode(err error) int {
	switch {
	case errors.Is(err, index.ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, index.ErrNotFound), errors.Is(err, dictionary.ErrUnknownSet):
		return CodeNotFound
	case errors.Is(err, index.ErrInvalidState), errors.Is(err, dictionary.ErrNotLoaded):
		return CodeInvalidState
	case errors.Is(err, index.ErrCorruptFile):
		return CodeCorruptFile
	default:
		return CodeInternal
	}
}

func micros(start time.Time) int64 {
	return time.Since(start).Microseconds()
}
