// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/arena-foundation/arena/cmd/arena/cli"
	"github.com/arena-foundation/arena/lib/archive"
	"github.com/arena-foundation/arena/lib/sealed"
	"github.com/arena-foundation/arena/lib/secret"
	"github.com/arena-foundation/arena/lib/servicetoken"
)

func keyCommand() *cli.Command {
	return &cli.Command{
		Name:    "key",
		Summary: "Back up and restore service key material",
		Description: `Operator commands for the service's long-lived keys: the Ed25519
token signing keypair and the archive master key. Backups are age-
encrypted to operator escrow recipients, so a lost state directory
can be restored without invalidating tokens or archives.`,
		Subcommands: []*cli.Command{
			keyBackupCommand(),
			keyRestoreCommand(),
			keyShowPublicCommand(),
			keyNewRecipientCommand(),
		},
	}
}

// backupVersion is the format version of the encrypted backup payload.
const backupVersion = 1

// keyBackupPayload is the plaintext JSON inside an encrypted backup.
// TokenSigningKey is the base64 raw Ed25519 private key; ArchiveKey is
// hex, exactly as stored on disk.
type keyBackupPayload struct {
	Version         int    `json:"version"`
	CreatedAt       string `json:"created_at"`
	TokenSigningKey string `json:"token_signing_key"`
	ArchiveKey      string `json:"archive_key,omitempty"`
}

// keyBackupParams holds the parameters for key backup.
type keyBackupParams struct {
	stateDirFlags
	cli.JSONOutput
	Recipients []string `json:"recipients" flag:"recipient" shorthand:"r" desc:"age public key to encrypt to, repeatable (required)"`
	OutputFile string   `json:"-"          flag:"output"    shorthand:"o" desc:"backup file to write (required)"`
}

// keyBackupResult is the JSON output for key backup.
type keyBackupResult struct {
	Path       string   `json:"path"        desc:"backup file written"`
	Recipients []string `json:"recipients"  desc:"age public keys that can decrypt the backup"`
	ArchiveKey bool     `json:"archive_key" desc:"whether the archive key was included"`
}

func keyBackupCommand() *cli.Command {
	var params keyBackupParams

	return &cli.Command{
		Name:    "backup",
		Summary: "Write an encrypted backup of the service keys",
		Description: `Bundle the token signing keypair and the archive key into a JSON
payload, encrypt it to the given age recipients, and write the
armored ciphertext to a file. The backup is a standard age file;
only a holder of a matching age identity can restore it, with
"arena key restore" or the reference age CLI.

The archive key is included when present; a service running with
archiving disabled backs up the signing keypair alone.

Generate an escrow identity with "arena key new-recipient" and keep
its private half offline.`,
		Usage: "arena key backup --recipient <age1...> --output <file> [flags]",
		Examples: []cli.Example{
			{
				Description: "Back up to a single escrow recipient",
				Command:     "arena key backup -r age1qte57l6g7vofzczmw6kxfhtv2kvqmgr5u0fqkqyvy84pq24v53jq4lumv2 -o arena-keys.backup",
			},
		},
		Params:      func() any { return &params },
		Annotations: cli.Create(),
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if len(params.Recipients) == 0 {
				return cli.Validation("at least one --recipient is required").
					WithHint("Generate an escrow keypair with 'arena key new-recipient'.")
			}
			if params.OutputFile == "" {
				return cli.Validation("--output is required")
			}
			for _, recipient := range params.Recipients {
				if err := sealed.ParsePublicKey(recipient); err != nil {
					return cli.Validation("invalid recipient %q: %v", recipient, err)
				}
			}

			stateDir, err := params.resolveStateDir()
			if err != nil {
				return err
			}
			_, privateKey, err := servicetoken.LoadKeypair(stateDir)
			if err != nil {
				return cli.NotFound("loading signing keypair from %s: %w", stateDir, err)
			}

			payload := keyBackupPayload{
				Version:         backupVersion,
				CreatedAt:       time.Now().UTC().Format(time.RFC3339),
				TokenSigningKey: base64.StdEncoding.EncodeToString(privateKey),
			}

			archiveKeyPath, err := params.resolveArchiveKeyPath()
			if err != nil {
				return err
			}
			hasArchiveKey := false
			if _, statErr := os.Stat(archiveKeyPath); statErr == nil {
				masterKey, err := archive.LoadKeyFile(archiveKeyPath)
				if err != nil {
					return cli.Internal("loading archive key: %w", err)
				}
				payload.ArchiveKey = hex.EncodeToString(masterKey.Bytes())
				masterKey.Close()
				hasArchiveKey = true
			}

			plaintext, err := json.Marshal(payload)
			if err != nil {
				return cli.Internal("encoding backup payload: %w", err)
			}
			ciphertext, err := sealed.Encrypt(plaintext, params.Recipients)
			secret.Zero(plaintext)
			if err != nil {
				return cli.Internal("encrypting backup: %w", err)
			}

			if err := os.WriteFile(params.OutputFile, []byte(ciphertext), 0o600); err != nil {
				return cli.Internal("writing backup file: %w", err)
			}

			if done, err := params.EmitJSON(keyBackupResult{
				Path:       params.OutputFile,
				Recipients: params.Recipients,
				ArchiveKey: hasArchiveKey,
			}); done {
				return err
			}
			fmt.Fprintf(os.Stderr, "Keys backed up to %s\n", params.OutputFile)
			fmt.Fprintf(os.Stderr, "  Recipients: %s\n", strings.Join(params.Recipients, ", "))
			if !hasArchiveKey {
				fmt.Fprintf(os.Stderr, "  Archive key not found at %s, backup covers the signing keypair only\n", archiveKeyPath)
			}
			return nil
		},
	}
}

// keyRestoreParams holds the parameters for key restore.
type keyRestoreParams struct {
	stateDirFlags
	cli.JSONOutput
	IdentityFile string `json:"-" flag:"identity" shorthand:"i" desc:"age identity file that can decrypt the backup, or - for stdin (required)"`
	Force        bool   `json:"-" flag:"force"    desc:"overwrite existing key files"`
}

// keyRestoreResult is the JSON output for key restore.
type keyRestoreResult struct {
	StateDir   string `json:"state_dir"   desc:"state directory the keys were written to"`
	ArchiveKey bool   `json:"archive_key" desc:"whether an archive key was restored"`
}

func keyRestoreCommand() *cli.Command {
	var params keyRestoreParams

	return &cli.Command{
		Name:    "restore",
		Summary: "Restore service keys from an encrypted backup",
		Description: `Decrypt a backup written by "arena key backup" and write the token
signing keypair (and the archive key, when the backup has one) back
into the service state directory. Existing key files are not touched
unless --force is given.

Restart the service after restoring so it picks up the keys.`,
		Usage: "arena key restore <backup-file> --identity <file> [flags]",
		Examples: []cli.Example{
			{
				Description: "Restore onto a fresh state directory",
				Command:     "arena key restore arena-keys.backup --identity escrow.key --state-dir /var/lib/arena/state",
			},
		},
		Params:      func() any { return &params },
		Annotations: cli.Destructive(),
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one backup file argument")
			}
			if params.IdentityFile == "" {
				return cli.Validation("--identity is required")
			}

			ciphertext, err := os.ReadFile(args[0])
			if err != nil {
				return cli.NotFound("reading backup file: %w", err)
			}
			identity, err := secret.ReadFromPath(params.IdentityFile)
			if err != nil {
				return cli.NotFound("reading identity: %w", err)
			}
			defer identity.Close()
			if err := sealed.ParsePrivateKey(identity); err != nil {
				return cli.Validation("--identity: %v", err)
			}

			plaintext, err := sealed.Decrypt(string(ciphertext), identity)
			if err != nil {
				return cli.Forbidden("decrypting backup: %w", err).
					WithHint("The identity must match one of the recipients the backup was encrypted to.")
			}
			defer plaintext.Close()

			var payload keyBackupPayload
			if err := json.Unmarshal(plaintext.Bytes(), &payload); err != nil {
				return cli.Internal("decoding backup payload: %w", err)
			}
			if payload.Version != backupVersion {
				return cli.Validation("backup version %d is not supported (expected %d)", payload.Version, backupVersion)
			}
			signingKey, err := base64.StdEncoding.DecodeString(payload.TokenSigningKey)
			if err != nil {
				return cli.Internal("decoding signing key: %w", err)
			}
			defer secret.Zero(signingKey)
			if len(signingKey) != ed25519.PrivateKeySize {
				return cli.Internal("signing key has %d bytes, want %d", len(signingKey), ed25519.PrivateKeySize)
			}

			stateDir, err := params.resolveStateDir()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(stateDir, 0o700); err != nil {
				return cli.Internal("creating state directory: %w", err)
			}
			// A loadable keypair means live keys; a corrupt one is fair
			// game for repair without --force.
			if !params.Force {
				if _, _, err := servicetoken.LoadKeypair(stateDir); err == nil {
					return cli.Conflict("%s already holds a signing keypair", stateDir).
						WithHint("Pass --force to overwrite the existing keys.")
				}
			}

			privateKey := ed25519.PrivateKey(signingKey)
			publicKey := privateKey.Public().(ed25519.PublicKey)
			if err := servicetoken.SaveKeypair(stateDir, publicKey, privateKey); err != nil {
				return cli.Internal("writing keypair: %w", err)
			}

			restoredArchiveKey := false
			if payload.ArchiveKey != "" {
				archiveKeyPath, err := params.resolveArchiveKeyPath()
				if err != nil {
					return err
				}
				if !params.Force {
					if _, err := os.Stat(archiveKeyPath); err == nil {
						return cli.Conflict("%s already exists", archiveKeyPath).
							WithHint("Pass --force to overwrite the existing keys.")
					}
				}
				if err := os.WriteFile(archiveKeyPath, []byte(payload.ArchiveKey+"\n"), 0o600); err != nil {
					return cli.Internal("writing archive key: %w", err)
				}
				restoredArchiveKey = true
			}

			if done, err := params.EmitJSON(keyRestoreResult{
				StateDir:   stateDir,
				ArchiveKey: restoredArchiveKey,
			}); done {
				return err
			}
			fmt.Fprintf(os.Stderr, "Keys restored to %s\n", stateDir)
			if restoredArchiveKey {
				fmt.Fprintf(os.Stderr, "  Archive key restored\n")
			}
			fmt.Fprintf(os.Stderr, "  Restart the session service to pick up the keys\n")
			return nil
		},
	}
}

// keyShowPublicParams holds the parameters for key show-public.
type keyShowPublicParams struct {
	stateDirFlags
	cli.JSONOutput
}

// keyShowPublicResult is the JSON output for key show-public.
type keyShowPublicResult struct {
	PublicKey string `json:"public_key" desc:"hex-encoded Ed25519 token verification key"`
}

func keyShowPublicCommand() *cli.Command {
	var params keyShowPublicParams

	return &cli.Command{
		Name:    "show-public",
		Summary: "Print the token verification public key",
		Description: `Print the hex-encoded Ed25519 public key the service verifies tokens
with. Useful for comparing state directories after a restore, or for
configuring an external verifier.`,
		Usage:       "arena key show-public [flags]",
		Params:      func() any { return &params },
		Annotations: cli.ReadOnly(),
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			stateDir, err := params.resolveStateDir()
			if err != nil {
				return err
			}
			publicKey, _, err := servicetoken.LoadKeypair(stateDir)
			if err != nil {
				return cli.NotFound("loading signing keypair from %s: %w", stateDir, err)
			}

			encoded := hex.EncodeToString(publicKey)
			if done, err := params.EmitJSON(keyShowPublicResult{PublicKey: encoded}); done {
				return err
			}
			fmt.Println(encoded)
			return nil
		},
	}
}

// keyNewRecipientParams holds the parameters for key new-recipient.
type keyNewRecipientParams struct {
	cli.JSONOutput
	OutputFile string `json:"-" flag:"output" shorthand:"o" desc:"identity file to write (mode 0600) (required)"`
}

// keyNewRecipientResult is the JSON output for key new-recipient.
type keyNewRecipientResult struct {
	PublicKey    string `json:"public_key"    desc:"age public key to pass as --recipient"`
	IdentityPath string `json:"identity_path" desc:"file holding the private identity"`
}

func keyNewRecipientCommand() *cli.Command {
	var params keyNewRecipientParams

	return &cli.Command{
		Name:    "new-recipient",
		Summary: "Generate an age escrow keypair for key backups",
		Description: `Generate an age x25519 keypair. The private identity is written to
the --output file and the public key is printed; pass the public key
to "arena key backup --recipient" and keep the identity file offline.
Anyone holding the identity can restore the service keys.`,
		Usage: "arena key new-recipient --output <file> [flags]",
		Examples: []cli.Example{
			{
				Description: "Generate an escrow identity",
				Command:     "arena key new-recipient -o escrow.key",
			},
		},
		Params:      func() any { return &params },
		Annotations: cli.Create(),
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if params.OutputFile == "" {
				return cli.Validation("--output is required")
			}
			if _, err := os.Stat(params.OutputFile); err == nil {
				return cli.Conflict("%s already exists", params.OutputFile)
			}

			keypair, err := sealed.GenerateKeypair()
			if err != nil {
				return cli.Internal("generating keypair: %w", err)
			}
			defer keypair.Close()

			identity := make([]byte, keypair.PrivateKey.Len()+1)
			copy(identity, keypair.PrivateKey.Bytes())
			identity[len(identity)-1] = '\n'
			err = os.WriteFile(params.OutputFile, identity, 0o600)
			secret.Zero(identity)
			if err != nil {
				return cli.Internal("writing identity file: %w", err)
			}

			if done, err := params.EmitJSON(keyNewRecipientResult{
				PublicKey:    keypair.PublicKey,
				IdentityPath: params.OutputFile,
			}); done {
				return err
			}
			fmt.Println(keypair.PublicKey)
			fmt.Fprintf(os.Stderr, "Identity written to %s, keep it offline\n", params.OutputFile)
			return nil
		},
	}
}
