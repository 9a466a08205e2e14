package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/leengari/birchtree/internal/birch"
	"github.com/leengari/birchtree/internal/domain/data"
	"github.com/leengari/birchtree/internal/domain/schema"
)

// Request is one newline-delimited JSON request
type Request struct {
	Tables   []string      `json:"tables"`
	From     string        `json:"from,omitempty"`
	Args     []interface{} `json:"args,omitempty"`
	GrowOnly bool          `json:"grow_only,omitempty"`
}

type Response struct {
	RequestID  string      `json:"request_id,omitempty"`
	Projection []string    `json:"projection,omitempty"`
	Rows       []data.Node `json:"rows,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Start listens on port and serves until ctx is cancelled
func Start(ctx context.Context, port int, tree *birch.Tree) error {
	addr := fmt.Sprintf(":%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Error("Failed to bind to port", "port", port, "error", err)
		return err
	}

	slog.Info("Running on port", "port", port)
	return Serve(ctx, listener, tree)
}

// Serve accepts connections on listener until ctx is cancelled.
// The listener is closed on return.
func Serve(ctx context.Context, listener net.Listener, tree *birch.Tree) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			slog.Error("Failed to accept connection", "error", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			handleConnection(ctx, conn, tree)
		}()
	}
}

func handleConnection(ctx context.Context, conn net.Conn, tree *birch.Tree) {
	defer conn.Close()

	// Close the connection when the server stops so Decode unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	for {
		var req Request
		if err := decoder.Decode(&req); err != nil {
			if err == io.EOF || ctx.Err() != nil {
				return // Connection closed
			}
			slog.Error("decode error", "error", err)

			// Send error back to client
			_ = encoder.Encode(&Response{
				Error: fmt.Sprintf("Invalid request format: %v", err),
			})
			return
		}

		resp := execute(ctx, tree, req)
		if err := encoder.Encode(resp); err != nil {
			slog.Error("encode error", "error", err)
			return
		}
	}
}

func execute(ctx context.Context, tree *birch.Tree, req Request) *Response {
	if req.GrowOnly {
		requestID := uuid.New().String()
		proj, err := tree.Grow(ctx, req.Tables...)
		if err != nil {
			return &Response{RequestID: requestID, Error: err.Error()}
		}
		return &Response{RequestID: requestID, Projection: proj}
	}

	result, err := tree.Select(ctx, birch.Request{
		Tables: req.Tables,
		From:   req.From,
		Args:   normalizeArgs(req.Args),
	})
	if err != nil {
		return &Response{Error: err.Error()}
	}
	return &Response{
		RequestID:  result.RequestID,
		Projection: result.Projection,
		Rows:       result.Rows,
	}
}

// normalizeArgs turns whole JSON numbers into int64
func normalizeArgs(args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		if f, ok := a.(float64); ok {
			if n, ok := schema.NormalizeToInt64(f); ok {
				out[i] = n
				continue
			}
		}
		out[i] = a
	}
	return out
}
