// Package console lee comandos de stdin y los despacha como chat del operador.
package console

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"alertBot/internal/domain"
)

type Submitter func(ctx context.Context, ev domain.Event) error

type Adapter struct {
	in     io.Reader
	submit Submitter
}

func NewAdapter(in io.Reader, submit Submitter) *Adapter {
	return &Adapter{in: in, submit: submit}
}

// Start bloquea hasta EOF o hasta que se cancele el contexto.
func (a *Adapter) Start(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(a.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			ev := domain.ChatEvent{Actor: domain.ConsoleActor, RawText: line}
			if err := a.submit(ctx, ev); err != nil {
				slog.Warn("console: submit", "error", err)
			}
		}
	}
}
