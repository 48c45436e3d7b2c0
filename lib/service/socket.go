// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/arena-foundation/arena/lib/clock"
	"github.com/arena-foundation/arena/lib/codec"
	"github.com/arena-foundation/arena/lib/servicetoken"
)

// ActionFunc processes a socket request for a specific action. The raw
// parameter is the full CBOR request (including the "action" field).
// The handler decodes action-specific fields from this raw message.
//
// Return a value to include in the success response, or an error for
// a failure response. If the returned value is nil, the response
// contains only {ok: true}. If non-nil, the value is marshaled as
// CBOR and placed in the response's "data" field.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// AuthActionFunc processes an authenticated socket request. The token
// has passed signature, expiry, audience, and revocation checks before
// the handler runs; the handler is responsible for grant checks.
type AuthActionFunc func(ctx context.Context, token *servicetoken.Token, raw []byte) (any, error)

// StreamFunc processes an authenticated streaming request. The handler
// owns the connection for its lifetime: it writes CBOR values directly
// and returns when the stream ends. The server closes the connection
// after the handler returns. The context is the serve context — it is
// cancelled on shutdown, and the handler may write a final value after
// cancellation before returning.
type StreamFunc func(ctx context.Context, token *servicetoken.Token, raw []byte, conn net.Conn)

// Response is the wire-format envelope for all socket protocol
// responses. Handlers return a result value (or nil) and an error;
// the server wraps these into a Response before encoding.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// AuthConfig holds the verification material for authenticated
// actions. All fields are required.
type AuthConfig struct {
	// PublicKey verifies token and revocation signatures.
	PublicKey ed25519.PublicKey

	// Audience is the service role expected in token Audience fields.
	Audience string

	// Blacklist holds revoked token IDs.
	Blacklist *servicetoken.Blacklist

	// Clock supplies the current time for token expiry checks.
	Clock clock.Clock
}

// handlerKind distinguishes the three registration forms that share
// the action namespace.
type handlerKind int

const (
	kindUnauth handlerKind = iota
	kindAuth
	kindStream
)

type registeredHandler struct {
	kind   handlerKind
	unauth ActionFunc
	auth   AuthActionFunc
	stream StreamFunc
}

// SocketServer serves a CBOR request-response protocol on a Unix
// socket. Each connection handles exactly one request-response cycle:
// the client writes a CBOR value, the server processes it and writes
// a CBOR response, then the connection closes. Stream actions are the
// exception — after the request is authenticated, the handler holds
// the connection and writes CBOR values until the stream ends.
//
// Actions are registered with Handle, HandleAuth, or HandleAuthStream
// before calling Serve. Unknown actions receive an error response.
type SocketServer struct {
	socketPath string
	handlers   map[string]registeredHandler
	logger     *slog.Logger
	auth       *AuthConfig

	// activeConnections tracks in-flight request handlers for graceful
	// shutdown. Serve waits for all active connections to complete
	// before returning.
	activeConnections sync.WaitGroup
}

// NewSocketServer creates a server that will listen on socketPath.
// Register actions before calling Serve. The authConfig parameter may
// be nil for servers that expose only unauthenticated actions.
func NewSocketServer(socketPath string, logger *slog.Logger, authConfig *AuthConfig) *SocketServer {
	return &SocketServer{
		socketPath: socketPath,
		handlers:   make(map[string]registeredHandler),
		logger:     logger,
		auth:       authConfig,
	}
}

// Handle registers an unauthenticated handler for the given action
// name. Panics if called after Serve has started or if the action is
// already registered.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	s.register(action, registeredHandler{kind: kindUnauth, unauth: handler})
}

// HandleAuth registers an authenticated handler. The server verifies
// the request's token (signature, expiry, audience, revocation) before
// invoking the handler. Panics if the server has no AuthConfig or the
// action is already registered.
func (s *SocketServer) HandleAuth(action string, handler AuthActionFunc) {
	if s.auth == nil {
		panic("service.SocketServer: HandleAuth requires AuthConfig")
	}
	s.register(action, registeredHandler{kind: kindAuth, auth: handler})
}

// HandleAuthStream registers an authenticated streaming handler. The
// token is verified exactly as for HandleAuth; on success the handler
// receives the connection and owns it until it returns. Panics if the
// server has no AuthConfig or the action is already registered.
func (s *SocketServer) HandleAuthStream(action string, handler StreamFunc) {
	if s.auth == nil {
		panic("service.SocketServer: HandleAuthStream requires AuthConfig")
	}
	s.register(action, registeredHandler{kind: kindStream, stream: handler})
}

func (s *SocketServer) register(action string, handler registeredHandler) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// RegisterRevocationHandler registers the "revoke-tokens" action. The
// request carries a signed revocation batch in its "revocation" field;
// the server verifies the signature with the auth public key and adds
// each entry to the blacklist. Requires an AuthConfig.
func (s *SocketServer) RegisterRevocationHandler() {
	if s.auth == nil {
		panic("service.SocketServer: RegisterRevocationHandler requires AuthConfig")
	}
	s.Handle("revoke-tokens", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Revocation []byte `cbor:"revocation"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
		if len(request.Revocation) == 0 {
			return nil, errors.New("missing required field: revocation")
		}

		revocation, err := servicetoken.VerifyRevocation(s.auth.PublicKey, request.Revocation)
		if err != nil {
			return nil, fmt.Errorf("revocation verification failed: %w", err)
		}

		for _, entry := range revocation.Entries {
			s.auth.Blacklist.Revoke(entry.TokenID, time.Unix(entry.ExpiresAt, 0))
		}
		// Each revocation batch doubles as a sweep of entries whose
		// tokens have expired on their own.
		dropped := s.auth.Blacklist.Cleanup(s.auth.Clock.Now())
		s.logger.Info("tokens revoked", "count", len(revocation.Entries), "expired_dropped", dropped)

		return map[string]any{"revoked": len(revocation.Entries)}, nil
	})
}

// Serve starts accepting connections on the Unix socket and dispatches
// requests to registered action handlers. Blocks until ctx is
// cancelled, then stops accepting new connections and waits for active
// handlers to complete.
//
// Any existing socket file at the configured path is removed before
// listening. The socket file is removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// readTimeout is how long we wait for the client to send its request.
// A well-behaved client sends the request immediately after connecting.
const readTimeout = 30 * time.Second

// writeTimeout is how long we wait for the response to be written.
const writeTimeout = 10 * time.Second

// maxRequestSize is the maximum size of a single CBOR request.
// 1 MB is generous for any session operation (the largest request is
// an acknowledge batch of 100 session identifiers, well under 8KB).
const maxRequestSize = 1024 * 1024

// handleConnection processes one request-response cycle, or hands the
// connection to a stream handler after authentication.
func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	// Decode one CBOR value from the connection. CBOR is self-
	// delimiting so no framing protocol is needed. LimitReader
	// prevents a malicious client from exhausting memory.
	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			// Client connected but sent nothing.
			return
		}
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}

	// Extract the action field for routing.
	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if header.Action == "" {
		s.writeError(conn, "missing required field: action")
		return
	}

	handler, exists := s.handlers[header.Action]
	if !exists {
		s.writeError(conn, fmt.Sprintf("unknown action %q", header.Action))
		return
	}

	var token *servicetoken.Token
	if handler.kind != kindUnauth {
		verified, failure := s.authenticate(raw)
		if failure != "" {
			s.logger.Debug("request rejected",
				"action", header.Action,
				"reason", failure,
			)
			s.writeError(conn, failure)
			return
		}
		token = verified
	}

	switch handler.kind {
	case kindUnauth:
		s.respond(conn, header.Action, func() (any, error) {
			return handler.unauth(ctx, []byte(raw))
		})
	case kindAuth:
		s.respond(conn, header.Action, func() (any, error) {
			return handler.auth(ctx, token, []byte(raw))
		})
	case kindStream:
		// The stream handler owns the connection from here. Clear
		// the request read deadline so long-lived streams are not
		// cut off.
		conn.SetReadDeadline(time.Time{})
		conn.SetWriteDeadline(time.Time{})
		handler.stream(ctx, token, []byte(raw), conn)
	}
}

// authenticate extracts and verifies the request token. Returns the
// verified token, or an empty token and the error message to send to
// the client. Signature and audience failures collapse to a generic
// message so probing clients learn nothing about the expected
// configuration.
func (s *SocketServer) authenticate(raw []byte) (*servicetoken.Token, string) {
	var request struct {
		Token []byte `cbor:"token"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Sprintf("invalid request: %v", err)
	}
	if len(request.Token) == 0 {
		return nil, "missing token field"
	}

	token, err := servicetoken.VerifyForServiceAt(
		s.auth.PublicKey, request.Token, s.auth.Audience, s.auth.Clock.Now())
	if err != nil {
		if errors.Is(err, servicetoken.ErrTokenExpired) {
			return nil, "token expired"
		}
		return nil, "authentication failed"
	}

	if s.auth.Blacklist != nil && s.auth.Blacklist.IsRevoked(token.ID) {
		return nil, "token revoked"
	}

	return token, ""
}

// respond runs the handler and writes the response envelope.
func (s *SocketServer) respond(conn net.Conn, action string, invoke func() (any, error)) {
	result, err := invoke()
	if err != nil {
		s.logger.Debug("action failed",
			"action", action,
			"error", err,
		)
		s.writeError(conn, err.Error())
		return
	}
	s.writeSuccess(conn, result)
}

// writeError sends a failure response: {ok: false, error: "..."}.
// Write failures are logged at debug level — the connection is closing
// regardless, and the caller has already received the error.
func (s *SocketServer) writeError(conn net.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(Response{
		OK:    false,
		Error: message,
	}); err != nil {
		s.logger.Debug("failed to write error response", "error", err)
	}
}

// writeSuccess sends a success response. If result is nil, the
// response is {ok: true}. If non-nil, the value is marshaled as CBOR
// and placed in the "data" field: {ok: true, data: <cbor>}.
func (s *SocketServer) writeSuccess(conn net.Conn, result any) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	response := Response{OK: true}

	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeError(conn, fmt.Sprintf("internal: marshaling response: %v", err))
			return
		}
		response.Data = data
	}

	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("failed to write success response", "error", err)
	}
}
