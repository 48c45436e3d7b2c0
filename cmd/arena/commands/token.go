// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arena-foundation/arena/cmd/arena/cli"
	"github.com/arena-foundation/arena/lib/ref"
	"github.com/arena-foundation/arena/lib/servicetoken"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:    "token",
		Summary: "Mint and revoke service tokens",
		Description: `Operator commands for the service token lifecycle. Minting signs a
new token with the Ed25519 keypair from the service state directory;
revocation pushes a signed blacklist entry to the running service.`,
		Subcommands: []*cli.Command{
			tokenMintCommand(),
			tokenRevokeCommand(),
		},
	}
}

// tokenMintParams holds the parameters for token mint.
type tokenMintParams struct {
	stateDirFlags
	cli.JSONOutput
	Subject    string   `json:"subject" flag:"subject"  shorthand:"s" desc:"account handle the token authenticates (required)"`
	Actions    []string `json:"actions" flag:"action"   desc:"granted action pattern, repeatable (e.g. session/queue, session/**)"`
	Targets    []string `json:"targets" flag:"target"   desc:"account pattern the grant may act on, repeatable (default: subject only)"`
	TTL        string   `json:"ttl"     flag:"ttl"      desc:"token lifetime (e.g. 12h, 7d)" default:"24h"`
	OutputFile string   `json:"-"       flag:"output"   shorthand:"o" desc:"write the token to this file (mode 0600) instead of stdout"`
}

// tokenMintResult is the JSON output for token mint.
type tokenMintResult struct {
	Token     string `json:"token,omitempty" desc:"base64-encoded token bytes (JSON only; token files hold the raw bytes)"`
	Path      string `json:"path,omitempty"  desc:"file the token was written to"`
	ID        string `json:"id"              desc:"token identifier, needed for revocation"`
	Subject   string `json:"subject"         desc:"account the token authenticates"`
	ExpiresAt string `json:"expires_at"      desc:"expiry timestamp (RFC3339)"`
}

func tokenMintCommand() *cli.Command {
	var params tokenMintParams

	return &cli.Command{
		Name:    "mint",
		Summary: "Sign a new service token",
		Description: `Mint a service token for an account. The token is signed with the
Ed25519 private key from the service state directory, so this runs on
the host where the session service keeps its state (or anywhere the
key file has been copied).

Grants are built from the repeated --action and --target flags. All
actions and targets land in a single grant: the subject may perform
any listed action against any listed target. Without --target the
token only covers self-service operations (queueing and dropping the
subject's own entries); executor and admin actions ignore targets.

The token file holds the raw signed bytes. Pass its path via
--token-file or the ARENA_TOKEN environment variable. Without
--output the raw bytes go to stdout, so redirect to a file.`,
		Usage: "arena token mint --subject <account> --action <pattern> [flags]",
		Examples: []cli.Example{
			{
				Description: "Mint a participant token for self-service queueing",
				Command:     "arena token mint --subject ada.lovelace --action session/queue --action session/drop -o ada.token",
			},
			{
				Description: "Mint an executor token covering the whole session API",
				Command:     "arena token mint --subject executor.1 --action 'session/**' --ttl 7d -o executor.token",
			},
		},
		Params:      func() any { return &params },
		Annotations: cli.Create(),
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if params.Subject == "" {
				return cli.Validation("--subject is required")
			}
			if len(params.Actions) == 0 {
				return cli.Validation("at least one --action is required").
					WithHint("Pass --action 'session/**' for a full-access token, or name individual actions like session/queue.")
			}
			subject, err := ref.ParseAccountID(params.Subject)
			if err != nil {
				return cli.Validation("invalid subject: %v", err)
			}
			ttl, err := parseTTL(params.TTL)
			if err != nil {
				return cli.Validation("invalid --ttl: %v", err)
			}

			stateDir, err := params.resolveStateDir()
			if err != nil {
				return err
			}
			_, privateKey, err := servicetoken.LoadKeypair(stateDir)
			if err != nil {
				return cli.NotFound("loading signing keypair from %s: %w", stateDir, err).
					WithHint("The service generates the keypair on first start. Point --state-dir at its state directory.")
			}

			id, err := generateTokenID()
			if err != nil {
				return err
			}
			now := time.Now()
			token := &servicetoken.Token{
				Subject:  subject,
				Audience: "session",
				Grants: []servicetoken.Grant{{
					Actions: params.Actions,
					Targets: params.Targets,
				}},
				ID:        id,
				IssuedAt:  now.Unix(),
				ExpiresAt: now.Add(ttl).Unix(),
			}
			tokenBytes, err := servicetoken.Mint(privateKey, token)
			if err != nil {
				return cli.Internal("minting token: %w", err)
			}
			expiresAt := time.Unix(token.ExpiresAt, 0).UTC().Format(time.RFC3339)

			if params.OutputFile != "" {
				if err := os.WriteFile(params.OutputFile, tokenBytes, 0o600); err != nil {
					return cli.Internal("writing token file: %w", err)
				}
				if done, err := params.EmitJSON(tokenMintResult{
					Path:      params.OutputFile,
					ID:        token.ID,
					Subject:   subject.String(),
					ExpiresAt: expiresAt,
				}); done {
					return err
				}
				fmt.Fprintf(os.Stderr, "Token for %s written to %s\n", subject, params.OutputFile)
				fmt.Fprintf(os.Stderr, "  ID: %s (keep for revocation)\n", token.ID)
				fmt.Fprintf(os.Stderr, "  Expires: %s\n", expiresAt)
				return nil
			}

			if done, err := params.EmitJSON(tokenMintResult{
				Token:     base64.StdEncoding.EncodeToString(tokenBytes),
				ID:        token.ID,
				Subject:   subject.String(),
				ExpiresAt: expiresAt,
			}); done {
				return err
			}
			if _, err := os.Stdout.Write(tokenBytes); err != nil {
				return cli.Internal("writing token to stdout: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Token ID %s, expires %s\n", token.ID, expiresAt)
			return nil
		},
	}
}

// tokenRevokeParams holds the parameters for token revoke.
type tokenRevokeParams struct {
	cli.SessionConnection
	stateDirFlags
	cli.JSONOutput
	ID        string `json:"id"         flag:"id"         desc:"token identifier to revoke (alternative to a token file)"`
	ExpiresIn string `json:"expires_in" flag:"expires-in" desc:"how long the blacklist entry must outlive the token" default:"24h"`
}

func tokenRevokeCommand() *cli.Command {
	var params tokenRevokeParams

	return &cli.Command{
		Name:    "revoke",
		Summary: "Revoke service tokens before their expiry",
		Description: `Push a signed revocation to the running service. Revoked token IDs
go on the service's blacklist and are refused on every subsequent
request until their natural expiry, at which point the entry is
cleaned up automatically.

Token files passed as arguments are verified against the signing key
to extract their ID and expiry. When the file is gone, revoke by
--id instead; --expires-in then bounds how long the blacklist keeps
the entry.

The revocation itself is signed with the service's Ed25519 key, so no
service token is needed on the wire.`,
		Usage: "arena token revoke [token-file...] [flags]",
		Examples: []cli.Example{
			{
				Description: "Revoke a token by its file",
				Command:     "arena token revoke ./ada.token",
			},
			{
				Description: "Revoke a leaked token by ID",
				Command:     "arena token revoke --id 4f1c9a2e8b037d65 --expires-in 7d",
			},
		},
		Params:      func() any { return &params },
		Annotations: cli.Idempotent(),
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) == 0 && params.ID == "" {
				return cli.Validation("nothing to revoke: pass token files or --id")
			}
			if len(args) > 0 && params.ID != "" {
				return cli.Validation("pass either token files or --id, not both")
			}

			stateDir, err := params.resolveStateDir()
			if err != nil {
				return err
			}
			publicKey, privateKey, err := servicetoken.LoadKeypair(stateDir)
			if err != nil {
				return cli.NotFound("loading signing keypair from %s: %w", stateDir, err).
					WithHint("Revocations are signed with the service's key. Point --state-dir at its state directory.")
			}

			var entries []servicetoken.RevocationEntry
			if params.ID != "" {
				ttl, err := parseTTL(params.ExpiresIn)
				if err != nil {
					return cli.Validation("invalid --expires-in: %v", err)
				}
				entries = append(entries, servicetoken.RevocationEntry{
					TokenID:   params.ID,
					ExpiresAt: time.Now().Add(ttl).Unix(),
				})
			}
			for _, path := range args {
				entry, err := revocationEntryFromFile(path, publicKey)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
			}

			signed, err := servicetoken.SignRevocation(privateKey, &servicetoken.RevocationRequest{
				Entries:  entries,
				IssuedAt: time.Now().Unix(),
			})
			if err != nil {
				return cli.Internal("signing revocation: %w", err)
			}

			client := params.ConnectUnauthenticated()

			ctx, cancel := cli.CallContext(ctx)
			defer cancel()

			var result revokeResult
			if err := client.Call(ctx, "revoke-tokens", map[string]any{"revocation": signed}, &result); err != nil {
				return err
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}
			fmt.Fprintf(os.Stderr, "%d token(s) revoked\n", result.Revoked)
			return nil
		},
	}
}

// revocationEntryFromFile reads a minted token file (raw signed bytes,
// as written by mint) and extracts the ID and natural expiry for the
// blacklist entry. An already-expired token is refused: the service
// rejects it on its own, so there is nothing to blacklist.
func revocationEntryFromFile(path string, publicKey ed25519.PublicKey) (servicetoken.RevocationEntry, error) {
	tokenBytes, err := os.ReadFile(path)
	if err != nil {
		return servicetoken.RevocationEntry{}, cli.NotFound("reading token file: %w", err)
	}
	token, err := servicetoken.Verify(publicKey, tokenBytes)
	if err != nil {
		if errors.Is(err, servicetoken.ErrTokenExpired) {
			return servicetoken.RevocationEntry{}, cli.Validation("%s: token already expired, no revocation needed", path)
		}
		return servicetoken.RevocationEntry{}, cli.Validation("%s: %v", path, err)
	}
	return servicetoken.RevocationEntry{
		TokenID:   token.ID,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// parseTTL parses a lifetime flag value. Accepts Go duration strings
// plus a day suffix ("7d") that time.ParseDuration does not handle.
func parseTTL(value string) (time.Duration, error) {
	if strings.HasSuffix(value, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
		if err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("expected a duration like 12h or 7d: %v", err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", duration)
	}
	return duration, nil
}

// generateTokenID returns a 32-character hex string from 16 random
// bytes.
func generateTokenID() (string, error) {
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", cli.Internal("generate token ID: %w", err)
	}
	return hex.EncodeToString(idBytes), nil
}
