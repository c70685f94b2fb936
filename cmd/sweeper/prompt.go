package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/vultisig/sweeper/internal/sweep"
)

// prompt asks yes/no questions on a terminal. Reads never outlive ctx.
type prompt struct {
	mu    sync.Mutex
	out   io.Writer
	lines chan string
}

func newPrompt(in io.Reader, out io.Writer) *prompt {
	p := &prompt{
		out:   out,
		lines: make(chan string),
	}
	go p.scan(in)
	return p
}

func (p *prompt) scan(in io.Reader) {
	s := bufio.NewScanner(in)
	for s.Scan() {
		p.lines <- s.Text()
	}
	close(p.lines)
}

// confirm defaults to no on empty input, EOF and cancellation.
func (p *prompt) confirm(ctx context.Context, question string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, _ = fmt.Fprintf(p.out, "%s [y/N]: ", question)

	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(p.out)
		return false
	case line, ok := <-p.lines:
		if !ok {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}

func (p *prompt) approve(ctx context.Context, tx *solana.Transaction) (bool, error) {
	question := fmt.Sprintf("sign transaction (%d instructions, fee payer %s)?",
		len(tx.Message.Instructions), tx.Message.AccountKeys[0])
	ok := p.confirm(ctx, question)
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return ok, nil
}

func (p *prompt) decide(ctx context.Context, d *sweep.Decision) bool {
	reason := d.Err.Error()
	if d.UserRejected() {
		reason = "signature declined"
	}
	question := fmt.Sprintf("%s transfer failed (%s). continue with %d remaining asset(s)?",
		d.Item.Asset.Symbol, reason, d.Remaining)
	return p.confirm(ctx, question)
}
