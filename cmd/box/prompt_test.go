// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pharbox/box/internal/config"
)

func TestTerminalPrompter_Lines(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := newTerminalPrompter(strings.NewReader("secret\r\nsecond\nlast"), &out)

	for _, want := range []string{"secret", "second", "last", ""} {
		got, err := p.Passphrase(context.Background(), config.PassphrasePrompt)
		if err != nil {
			t.Fatalf("Passphrase() error = %v", err)
		}
		if got != want {
			t.Errorf("Passphrase() = %q, want %q", got, want)
		}
	}
	if !strings.HasPrefix(out.String(), config.PassphrasePrompt) {
		t.Errorf("prompt output = %q", out.String())
	}
}

func TestTerminalPrompter_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	p := newTerminalPrompter(strings.NewReader("secret\n"), &out)
	if _, err := p.Passphrase(ctx, config.PassphrasePrompt); !errors.Is(err, context.Canceled) {
		t.Errorf("Passphrase() error = %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Errorf("prompt written after cancellation: %q", out.String())
	}
}
