// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"strings"
	"testing"

	"filippo.io/age/armor"

	"github.com/arena-foundation/arena/lib/secret"
)

func TestGenerateKeypair(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	if !strings.HasPrefix(keypair.PrivateKey.String(), "AGE-SECRET-KEY-1") {
		t.Error("PrivateKey missing AGE-SECRET-KEY-1 prefix")
	}
	if !strings.HasPrefix(keypair.PublicKey, "age1") {
		t.Errorf("PublicKey = %q, want prefix age1", keypair.PublicKey)
	}

	// Keys should not be empty.
	if keypair.PrivateKey.Len() < 20 {
		t.Errorf("PrivateKey too short: %d chars", keypair.PrivateKey.Len())
	}
	if len(keypair.PublicKey) < 20 {
		t.Errorf("PublicKey too short: %d chars", len(keypair.PublicKey))
	}
}

func TestGenerateKeypair_Unique(t *testing.T) {
	keypair1, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair1.Close()
	keypair2, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair2.Close()

	if keypair1.PrivateKey.String() == keypair2.PrivateKey.String() {
		t.Error("two generated keypairs have identical private keys")
	}
	if keypair1.PublicKey == keypair2.PublicKey {
		t.Error("two generated keypairs have identical public keys")
	}
}

func TestKeypairClose_Idempotent(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	if err := keypair.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := keypair.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}

func TestEncryptDecrypt_SingleRecipient(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	plaintext := []byte("hello, arena key backup")
	ciphertext, err := Encrypt(plaintext, []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	// Ciphertext is armored text, identifiable at a glance and
	// readable by the age CLI.
	if !strings.HasPrefix(ciphertext, armor.Header) {
		t.Errorf("ciphertext does not start with %q", armor.Header)
	}
	if !strings.HasSuffix(ciphertext, armor.Footer+"\n") {
		t.Errorf("ciphertext does not end with %q and a newline", armor.Footer)
	}

	// Decrypt should recover the original plaintext.
	decrypted, err := Decrypt(ciphertext, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	defer decrypted.Close()
	if !decrypted.Equal(plaintext) {
		t.Errorf("Decrypt() = %q, want %q", decrypted.String(), plaintext)
	}
}

func TestEncryptDecrypt_MultipleRecipients(t *testing.T) {
	// Two escrow keypairs: either operator can restore independently.
	first, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer first.Close()
	second, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer second.Close()

	plaintext := []byte("token-signing private key material")
	ciphertext, err := Encrypt(plaintext, []string{first.PublicKey, second.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	decryptedByFirst, err := Decrypt(ciphertext, first.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt(first) error: %v", err)
	}
	defer decryptedByFirst.Close()
	if !decryptedByFirst.Equal(plaintext) {
		t.Errorf("Decrypt(first) = %q, want %q", decryptedByFirst.String(), plaintext)
	}

	decryptedBySecond, err := Decrypt(ciphertext, second.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt(second) error: %v", err)
	}
	defer decryptedBySecond.Close()
	if !decryptedBySecond.Equal(plaintext) {
		t.Errorf("Decrypt(second) = %q, want %q", decryptedBySecond.String(), plaintext)
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()
	wrongKeypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer wrongKeypair.Close()

	ciphertext, err := Encrypt([]byte("secret data"), []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	if _, err := Decrypt(ciphertext, wrongKeypair.PrivateKey); err == nil {
		t.Error("Decrypt() with wrong key should return error")
	}
}

func TestEncrypt_NoRecipients(t *testing.T) {
	_, err := Encrypt([]byte("data"), nil)
	if err == nil {
		t.Error("Encrypt() with no recipients should return error")
	}
	if !strings.Contains(err.Error(), "at least one recipient") {
		t.Errorf("error = %v, want 'at least one recipient'", err)
	}

	if _, err := Encrypt([]byte("data"), []string{}); err == nil {
		t.Error("Encrypt() with empty recipients should return error")
	}
}

func TestEncrypt_InvalidRecipientKey(t *testing.T) {
	_, err := Encrypt([]byte("data"), []string{"not-a-valid-key"})
	if err == nil {
		t.Error("Encrypt() with invalid recipient key should return error")
	}
	if !strings.Contains(err.Error(), "parsing recipient key") {
		t.Errorf("error = %v, want 'parsing recipient key'", err)
	}
}

func TestDecrypt_InvalidPrivateKey(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()
	ciphertext, err := Encrypt([]byte("data"), []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	badKey, err := secret.NewFromBytes([]byte("not-a-valid-private-key"))
	if err != nil {
		t.Fatalf("secret.NewFromBytes() error: %v", err)
	}
	defer badKey.Close()

	_, err = Decrypt(ciphertext, badKey)
	if err == nil {
		t.Error("Decrypt() with invalid private key should return error")
	}
	if !strings.Contains(err.Error(), "parsing private key") {
		t.Errorf("error = %v, want 'parsing private key'", err)
	}
}

func TestDecrypt_NotArmored(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	// The likely operator mistake: passing some other file as the backup.
	_, err = Decrypt("{\"version\": 1}", keypair.PrivateKey)
	if err == nil {
		t.Error("Decrypt() of non-armored input should return error")
	}
	if !strings.Contains(err.Error(), "not an age armored file") {
		t.Errorf("error = %v, want 'not an age armored file'", err)
	}
}

func TestDecrypt_CorruptedCiphertext(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	ciphertext, err := Encrypt([]byte("secret data"), []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	// Overwrite a body line while keeping the armor framing intact, so
	// the failure comes from age itself rather than the armor parser.
	lines := strings.Split(ciphertext, "\n")
	if len(lines) < 4 {
		t.Fatalf("unexpected armored layout: %q", ciphertext)
	}
	lines[1] = strings.Repeat("A", len(lines[1]))
	corrupted := strings.Join(lines, "\n")

	if _, err := Decrypt(corrupted, keypair.PrivateKey); err == nil {
		t.Error("Decrypt() with corrupted ciphertext should return error")
	}
}

func TestEncryptDecrypt_EmptyPlaintext(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	ciphertext, err := Encrypt([]byte{}, []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt(empty) error: %v", err)
	}

	// Empty plaintext decrypts to a minimal placeholder buffer, not nil.
	decrypted, err := Decrypt(ciphertext, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt(empty) error: %v", err)
	}
	defer decrypted.Close()
	if decrypted == nil {
		t.Fatal("Decrypt(empty) returned nil buffer")
	}
}

func TestEncryptDecrypt_LargePlaintext(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	// Larger than an age chunk boundary would matter for.
	largePlaintext := make([]byte, 64*1024)
	for i := range largePlaintext {
		largePlaintext[i] = byte(i % 256)
	}

	ciphertext, err := Encrypt(largePlaintext, []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt(large) error: %v", err)
	}

	decrypted, err := Decrypt(ciphertext, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt(large) error: %v", err)
	}
	defer decrypted.Close()
	if decrypted.Len() != len(largePlaintext) {
		t.Fatalf("Decrypt(large) length = %d, want %d", decrypted.Len(), len(largePlaintext))
	}
	if !decrypted.Equal(largePlaintext) {
		t.Error("Decrypt(large) content differs from plaintext")
	}
}

func TestParsePublicKey(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	if err := ParsePublicKey(keypair.PublicKey); err != nil {
		t.Errorf("ParsePublicKey(valid) error: %v", err)
	}

	if err := ParsePublicKey("not-a-valid-key"); err == nil {
		t.Error("ParsePublicKey(invalid) should return error")
	}

	if err := ParsePublicKey(""); err == nil {
		t.Error("ParsePublicKey(empty) should return error")
	}
}

func TestParsePrivateKey(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	if err := ParsePrivateKey(keypair.PrivateKey); err != nil {
		t.Errorf("ParsePrivateKey(valid) error: %v", err)
	}

	badKey, err := secret.NewFromBytes([]byte("not-a-valid-key"))
	if err != nil {
		t.Fatalf("secret.NewFromBytes() error: %v", err)
	}
	defer badKey.Close()
	if err := ParsePrivateKey(badKey); err == nil {
		t.Error("ParsePrivateKey(invalid) should return error")
	}
}

func TestEncryptDecrypt_KeyReuseAcrossRestores(t *testing.T) {
	// A backup written once must stay restorable with the same escrow key,
	// simulating the key file surviving across service reinstalls.
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	plaintext := []byte("persistent secret")
	ciphertext, err := Encrypt(plaintext, []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	// Round-trip the private key through a second buffer, as a restore
	// that reread the key file would.
	reloadedKey, err := secret.NewFromBytes([]byte(keypair.PrivateKey.String()))
	if err != nil {
		t.Fatalf("secret.NewFromBytes() error: %v", err)
	}
	defer reloadedKey.Close()
	if err := ParsePrivateKey(reloadedKey); err != nil {
		t.Fatalf("reloaded private key is invalid: %v", err)
	}

	decrypted, err := Decrypt(ciphertext, reloadedKey)
	if err != nil {
		t.Fatalf("Decrypt() with reloaded key error: %v", err)
	}
	defer decrypted.Close()
	if !decrypted.Equal(plaintext) {
		t.Errorf("Decrypt() = %q, want %q", decrypted.String(), plaintext)
	}
}
