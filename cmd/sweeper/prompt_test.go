package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vultisig/sweeper/internal/sweep"
	"github.com/vultisig/sweeper/internal/types"
)

func TestPrompt_Confirm(t *testing.T) {
	var out bytes.Buffer
	p := newPrompt(strings.NewReader("y\n\nYES\nnope\n"), &out)
	ctx := context.Background()

	assert.True(t, p.confirm(ctx, "first"))
	assert.False(t, p.confirm(ctx, "second"))
	assert.True(t, p.confirm(ctx, "third"))
	assert.False(t, p.confirm(ctx, "fourth"))
	// EOF
	assert.False(t, p.confirm(ctx, "fifth"))

	assert.Contains(t, out.String(), "first [y/N]: ")
}

func TestPrompt_ConfirmCancelled(t *testing.T) {
	in, w := io.Pipe()
	defer w.Close()
	p := newPrompt(in, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, p.confirm(ctx, "anyone there?"))
}

func TestPrompt_Decide(t *testing.T) {
	var out bytes.Buffer
	p := newPrompt(strings.NewReader("y\n"), &out)

	d := &sweep.Decision{
		Item:      sweep.TransferItem{Asset: types.AssetBalance{Symbol: "SOL"}},
		Err:       types.NewSubmitError(types.UserRejected, "", types.ErrUserRejected),
		Remaining: 2,
	}
	assert.True(t, p.decide(context.Background(), d))
	assert.Contains(t, out.String(), "SOL transfer failed (signature declined). continue with 2 remaining asset(s)?")

	out.Reset()
	d.Err = errors.New("rpc down")
	assert.False(t, p.decide(context.Background(), d))
	assert.Contains(t, out.String(), "(rpc down)")
}
