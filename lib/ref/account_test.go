// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseAccountID(t *testing.T) {
	t.Parallel()

	valid := []string{
		"ada",
		"ada.lovelace",
		"executor-7",
		"a",
		"player_one",
		"0day",
		strings.Repeat("a", 84),
	}
	for _, input := range valid {
		account, err := ParseAccountID(input)
		if err != nil {
			t.Errorf("ParseAccountID(%q) unexpected error: %v", input, err)
			continue
		}
		if account.String() != input {
			t.Errorf("ParseAccountID(%q).String() = %q", input, account.String())
		}
		if account.IsZero() {
			t.Errorf("ParseAccountID(%q).IsZero() = true", input)
		}
	}

	invalid := []string{
		"",
		"Ada",
		"ada lovelace",
		".ada",
		"ada.",
		"-ada",
		"ada-",
		"_ada",
		"ada/lovelace",
		"ada@example",
		strings.Repeat("a", 85),
	}
	for _, input := range invalid {
		if _, err := ParseAccountID(input); err == nil {
			t.Errorf("ParseAccountID(%q) expected error, got nil", input)
		}
	}
}

func TestAccountIDZeroValue(t *testing.T) {
	t.Parallel()

	var zero AccountID
	if !zero.IsZero() {
		t.Error("zero AccountID.IsZero() = false")
	}
	if zero.String() != "" {
		t.Errorf("zero AccountID.String() = %q", zero.String())
	}
}

func TestAccountIDMarshalJSON(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Winner AccountID `json:"winner"`
	}

	account := MustParseAccountID("ada.lovelace")
	data, err := json.Marshal(wrapper{Winner: account})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"winner":"ada.lovelace"}`
	if string(data) != want {
		t.Errorf("marshal = %s, want %s", data, want)
	}

	var roundTripped wrapper
	if err := json.Unmarshal(data, &roundTripped); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if roundTripped.Winner != account {
		t.Errorf("round-trip = %v, want %v", roundTripped.Winner, account)
	}
}

func TestAccountIDUnmarshalEmpty(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Winner AccountID `json:"winner"`
	}

	var result wrapper
	if err := json.Unmarshal([]byte(`{"winner":""}`), &result); err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if !result.Winner.IsZero() {
		t.Errorf("empty string should unmarshal to zero value, got %v", result.Winner)
	}
}

func TestMustParseAccountIDPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("MustParseAccountID with invalid input should panic")
		}
	}()
	MustParseAccountID("Not A Handle")
}
