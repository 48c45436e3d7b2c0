// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/arena-foundation/arena/lib/service"
)

// Environment variables consulted for connection flag defaults. A flag
// given explicitly on the command line always wins; the variables only
// change the default.
const (
	// SocketEnv overrides the default session service socket path.
	SocketEnv = "ARENA_SOCKET"

	// TokenEnv names the service token file to authenticate with.
	TokenEnv = "ARENA_TOKEN"
)

// DefaultSocketPath is the session service socket path used when
// neither --socket nor ARENA_SOCKET is set. Matches the service's
// config default.
const DefaultSocketPath = "/run/arena/session.sock"

// callTimeout bounds a single request/response round trip. Session
// service operations are in-memory registry work plus one SQLite
// transaction; anything slower than this means the service is wedged.
const callTimeout = 30 * time.Second

// SessionConnection manages the socket and token flags for commands
// that talk to the session service. Embed it in a command's params
// struct; it implements [FlagBinder], so [BindFlags] registers the
// --socket and --token-file flags automatically.
//
// Flag defaults come from ARENA_SOCKET and ARENA_TOKEN when set, so
// operators export the pair once per shell instead of repeating flags
// on every command.
type SessionConnection struct {
	SocketPath string
	TokenPath  string
}

// AddFlags registers --socket and --token-file with env-derived
// defaults. Implements [FlagBinder].
func (c *SessionConnection) AddFlags(flagSet *pflag.FlagSet) {
	socketDefault := DefaultSocketPath
	if envSocket := os.Getenv(SocketEnv); envSocket != "" {
		socketDefault = envSocket
	}
	tokenDefault := os.Getenv(TokenEnv)

	flagSet.StringVar(&c.SocketPath, "socket", socketDefault, "session service socket path")
	flagSet.StringVar(&c.TokenPath, "token-file", tokenDefault, "path to service token file")
}

// Connect creates an authenticated service client from the connection
// parameters. Fails with a hint when no token file is configured —
// every authenticated action needs one.
func (c *SessionConnection) Connect() (*service.ServiceClient, error) {
	if c.TokenPath == "" {
		return nil, Validation("no service token configured").
			WithHint("Mint one with 'arena token mint' and pass it via --token-file or ARENA_TOKEN.")
	}
	client, err := service.NewServiceClient(c.SocketPath, c.TokenPath)
	if err != nil {
		return nil, Internal("loading service token: %w", err)
	}
	return client, nil
}

// ConnectUnauthenticated creates a client that sends no token. Used
// for "status" (open to anyone) and "revoke-tokens" (authenticated by
// the signature on the revocation payload, not by a token).
func (c *SessionConnection) ConnectUnauthenticated() *service.ServiceClient {
	return service.NewServiceClientFromToken(c.SocketPath, nil)
}

// CallContext returns a context bounding a single service round trip,
// derived from the provided parent.
func CallContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, callTimeout)
}
