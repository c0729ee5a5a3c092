package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bastiangx/wordfix/internal/logger"
	"github.com/bastiangx/wordfix/pkg/config"
	"github.com/bastiangx/wordfix/pkg/resegment"
	"github.com/bastiangx/wordfix/pkg/segment"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles the IPC for resegmentation
type Server struct {
	engine     *resegment.Engine
	config     *config.Config
	configPath string
	dec        *msgpack.Decoder
	out        *bufio.Writer
	enc        *msgpack.Encoder
	logger     *log.Logger
	requests   int
}

// NewServer creates a server using stdin/stdout for IPC.
func NewServer(engine *resegment.Engine, cfg *config.Config, configPath string) *Server {
	return NewServerWithIO(engine, cfg, configPath, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server reading requests from r and writing responses to w.
// A nil cfg uses the defaults; an empty configPath keeps setting changes in memory.
func NewServerWithIO(engine *resegment.Engine, cfg *config.Config, configPath string, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	out := bufio.NewWriter(w)
	return &Server{
		engine:     engine,
		config:     cfg,
		configPath: configPath,
		dec:        msgpack.NewDecoder(bufio.NewReader(r)),
		out:        out,
		enc:        msgpack.NewEncoder(out),
		logger:     logger.New("server"),
	}
}

// Start processes requests until the input ends or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Debug("Starting server")
	if err := s.send(StatusResponse{Status: "ready"}); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		raw, err := s.dec.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debugf("Input closed after %d requests", s.requests)
				return nil
			}
			s.logger.Errorf("Reading request: %v", err)
			return fmt.Errorf("failed to read request: %w", err)
		}
		s.requests++
		if err := s.handle(ctx, raw); err != nil {
			return err
		}
	}
}

func (s *Server) handle(ctx context.Context, raw msgpack.RawMessage) error {
	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.logger.Warnf("Invalid request: %v", err)
		return s.sendError("", "invalid msgpack request", CodeBadRequest)
	}

	switch req.Action {
	case "":
		return s.handleResegment(ctx, req)
	case "get_info":
		return s.handleInfo(req)
	case "set_distance":
		return s.handleSetDistance(req)
	default:
		return s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), CodeBadRequest)
	}
}

func (s *Server) handleResegment(ctx context.Context, req Request) error {
	if limit := s.config.Server.MaxTextBytes; limit > 0 && len(req.Text) > limit {
		return s.sendError(req.ID, fmt.Sprintf("text exceeds %d bytes", limit), CodeTooLarge)
	}

	distance := s.engine.Distance()
	if req.Distance != nil {
		distance = *req.Distance
	}

	start := time.Now()
	text, rep, err := s.engine.ResegmentDocumentWithDistance(ctx, req.Text, distance)
	elapsed := time.Since(start)
	if err != nil {
		code := CodeInternal
		if errors.Is(err, segment.ErrEditDistance) {
			code = CodeUnprocessable
		}
		return s.sendError(req.ID, err.Error(), code)
	}

	s.logger.Debugf("Request %s: %d tokens, %d split in %s", req.ID, rep.Tokens, rep.Segmented, elapsed)
	return s.send(ResegmentResponse{
		ID:        req.ID,
		Text:      text,
		Segmented: rep.Segmented,
		Skipped:   rep.Skipped,
		TimeTaken: elapsed.Microseconds(),
	})
}

func (s *Server) handleInfo(req Request) error {
	info := s.engine.Info()
	return s.send(InfoResponse{
		ID:             req.ID,
		Status:         "ok",
		Words:          info.Words,
		MaxFrequency:   info.MaxFrequency,
		MaxWordLength:  info.MaxWordLength,
		Distance:       info.Distance,
		DistanceLimit:  info.MaxDistanceLimit,
		MaxTokenLength: info.MaxTokenLength,
		CacheEntries:   info.CacheEntries,
	})
}

func (s *Server) handleSetDistance(req Request) error {
	if req.Distance == nil {
		return s.sendError(req.ID, "missing 'd' parameter", CodeBadRequest)
	}
	d := *req.Distance
	if err := s.engine.SetDistance(d); err != nil {
		return s.sendError(req.ID, err.Error(), CodeUnprocessable)
	}
	if err := s.config.Update(s.configPath, &d, nil); err != nil {
		s.logger.Warnf("Distance changed to %d but config was not saved: %v", d, err)
	}
	s.logger.Debugf("Default edit distance set to %d", d)
	return s.send(ActionResponse{ID: req.ID, Status: "ok", Distance: d})
}

// send encodes and flushes one response. Write failures end the session.
func (s *Server) send(v any) error {
	if err := s.enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	if err := s.out.Flush(); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

func (s *Server) sendError(id, message string, code int) error {
	return s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
