package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog"

	"github.com/VanDung-dev/SpecTable-Engine/cache"
	"github.com/VanDung-dev/SpecTable-Engine/ipc"
	"github.com/VanDung-dev/SpecTable-Engine/pipeline"
	"github.com/VanDung-dev/SpecTable-Engine/tree"
)

// PreviewRequest asks for one container's table. Category and Table
// override the server's default hint when set.
type PreviewRequest struct {
	Path     string `json:"path"`
	Category string `json:"category,omitempty"`
	Table    string `json:"table,omitempty"`
}

// PreviewReply is the first frame of every response. When OK is true a
// second frame carries the table as an Arrow IPC stream.
type PreviewReply struct {
	OK     bool     `json:"ok"`
	Error  string   `json:"error,omitempty"`
	Rows   int64    `json:"rows,omitempty"`
	Fields []string `json:"fields,omitempty"`
	Cached bool     `json:"cached,omitempty"`
}

// PreviewServer serves materialized tables over a ZeroMQ REP socket.
// Requests are JSON; successful replies are two frames, status JSON
// then Arrow IPC bytes. Repeated requests for the same reference are
// answered from the cache.
type PreviewServer struct {
	addr    string
	hint    tree.Hint
	pipe    *pipeline.Pipeline
	cache   *cache.Cache
	codec   *ipc.Codec
	metrics *Metrics
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	sock   zmq4.Socket

	running bool
	mu      sync.Mutex
	wg      sync.WaitGroup
}

// NewPreviewServer creates a server answering on addr (a zmq endpoint,
// e.g. "tcp://127.0.0.1:5555") with the given default hint.
func NewPreviewServer(addr string, hint tree.Hint, c *cache.Cache, m *Metrics, log zerolog.Logger) *PreviewServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &PreviewServer{
		addr:    addr,
		hint:    hint,
		pipe:    newPipe(hint, m, log),
		cache:   c,
		codec:   ipc.NewCodec(),
		metrics: m,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start binds the REP socket and begins answering requests.
func (s *PreviewServer) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}

	s.sock = zmq4.NewRep(s.ctx)
	if err := s.sock.Listen(s.addr); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to bind %s: %w", s.addr, err)
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.serveLoop()

	s.log.Info().Str("addr", s.addr).Msg("preview server listening")
	return nil
}

// newPipe builds the lookup pipeline, recording stage outcomes when
// metrics are configured.
func newPipe(hint tree.Hint, m *Metrics, log zerolog.Logger) *pipeline.Pipeline {
	pipe := pipeline.New(hint, log)
	if m != nil {
		pipe = pipe.WithRecorder(m)
	}
	return pipe
}

// Addr returns the listen address: the concrete bound address after
// Start (with a port-zero endpoint this is the port the kernel picked),
// the configured endpoint before. Safe to call concurrently with Start.
func (s *PreviewServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sock != nil && s.sock.Addr() != nil {
		return "tcp://" + s.sock.Addr().String()
	}
	return s.addr
}

// Stop shuts the server down and waits for the serve loop to exit.
func (s *PreviewServer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	if s.sock != nil {
		if err := s.sock.Close(); err != nil {
			s.log.Debug().Err(err).Msg("socket close during shutdown")
		}
	}
	s.wg.Wait()
}

func (s *PreviewServer) serveLoop() {
	defer s.wg.Done()

	for {
		msg, err := s.sock.Recv()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				s.log.Warn().Err(err).Msg("recv failed")
				continue
			}
		}

		start := time.Now()
		reply, payload := s.handle(msg.Bytes())

		frames, err := s.encodeReply(reply, payload)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to encode reply")
			continue
		}
		if err := s.sock.Send(zmq4.NewMsgFrom(frames...)); err != nil {
			s.log.Warn().Err(err).Msg("send failed")
		}

		status := "ok"
		if !reply.OK {
			status = "error"
		}
		if s.metrics != nil {
			s.metrics.RecordRequest(status, time.Since(start))
		}
	}
}

func (s *PreviewServer) encodeReply(reply PreviewReply, payload []byte) ([][]byte, error) {
	head, err := json.Marshal(reply)
	if err != nil {
		return nil, err
	}
	frames := [][]byte{head}
	if payload != nil {
		frames = append(frames, payload)
	}
	return frames, nil
}

// handle resolves one request to a status reply and an optional IPC
// payload frame.
func (s *PreviewServer) handle(raw []byte) (PreviewReply, []byte) {
	var req PreviewRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return PreviewReply{Error: fmt.Sprintf("bad request: %v", err)}, nil
	}
	if req.Path == "" {
		return PreviewReply{Error: "bad request: path is required"}, nil
	}

	hint := s.hint
	if req.Category != "" {
		hint = tree.DefaultHint(req.Category)
	}
	if req.Table != "" {
		hint.Table = req.Table
	}
	pipe := s.pipe
	if hint != s.hint {
		pipe = newPipe(hint, s.metrics, s.log)
	}

	ref, err := pipe.Lookup(req.Path)
	if err != nil {
		return PreviewReply{Error: err.Error()}, nil
	}

	key := ref.Locator()
	tbl, cached := s.cache.Get(key)
	if !cached {
		start := time.Now()
		tbl, err = ref.Materialize()
		if err != nil {
			return PreviewReply{Error: err.Error()}, nil
		}
		if s.metrics != nil {
			s.metrics.RecordMaterialize(tbl.NumRows(), time.Since(start))
		}
		if err := s.cache.Put(key, tbl); err != nil {
			s.log.Debug().Err(err).Msg("cache put failed")
		}
		if s.metrics != nil {
			s.metrics.CacheSize.Set(float64(s.cache.Size()))
		}
	}
	// Both branches hand us our own reference: Get retains for the
	// caller, Materialize returns a fresh table.
	defer tbl.Release()

	payload, err := s.codec.Encode(tbl)
	if err != nil {
		return PreviewReply{Error: fmt.Sprintf("failed to encode table: %v", err)}, nil
	}
	return PreviewReply{
		OK:     true,
		Rows:   tbl.NumRows(),
		Fields: tbl.Schema().Names(),
		Cached: cached,
	}, payload
}
