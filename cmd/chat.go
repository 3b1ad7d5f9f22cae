package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iksnae/pocket-chat/internal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const chatHelp = "Commands: /history, /logout, /quit"

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Start an interactive conversation.

The stored transcript is shown first. Each line you enter is sent as one
message; input is refused while a reply is pending.

` + chatHelp,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		state, err := a.requireSession(ctx)
		if err != nil {
			return err
		}

		engine, err := a.newEngine(ctx)
		if err != nil {
			return err
		}

		s := &chatSession{
			engine:   engine,
			gate:     a.gate,
			renderer: internal.NewRendererFor(cmd.OutOrStdout()),
			out:      cmd.OutOrStdout(),
			in:       bufio.NewReader(cmd.InOrStdin()),
			p:        printer(cmd),
		}

		history := engine.Initialize(ctx)
		fmt.Fprint(s.out, s.renderer.RenderTranscript(history))
		s.p.Info(fmt.Sprintf("Signed in as %s. %s", state.Username, chatHelp))
		s.printed = len(history)

		return s.run(ctx)
	},
}

type chatSession struct {
	engine   *internal.Engine
	gate     *internal.Gate
	renderer *internal.Renderer
	out      io.Writer
	in       *bufio.Reader
	p        *internal.Printer

	printed  int
	pending  atomic.Int64
	lastSend int64
	sends    sync.WaitGroup
}

// run drives the conversation: one goroutine reads input and sends it, the
// other prints replies as the transcript changes.
func (s *chatSession) run(ctx context.Context) error {
	updates, unsubscribe := s.engine.Subscribe()
	defer unsubscribe()

	lines := make(chan string)
	go s.readLines(lines)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.render(gctx, updates)
		return nil
	})

	g.Go(func() error {
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.engine.Close(closeCtx); err != nil {
				s.p.Warning(fmt.Sprintf("Transcript could not be saved: %v", err))
			}
		}()
		return s.handleInput(gctx, lines)
	})

	return g.Wait()
}

// readLines forwards input lines until EOF. It is not tied to the context
// because a blocked read cannot be interrupted.
func (s *chatSession) readLines(lines chan<- string) {
	defer close(lines)
	for {
		line, err := s.in.ReadString('\n')
		if line != "" {
			lines <- strings.TrimRight(line, "\r\n")
		}
		if err != nil {
			return
		}
	}
}

// handleInput dispatches each line. Sends run in the background so input
// keeps being read; lines arriving while a reply is pending are refused.
func (s *chatSession) handleInput(ctx context.Context, lines <-chan string) error {
	defer s.sends.Wait()

	fmt.Fprint(s.out, "> ")
	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return nil
		case line, ok = <-lines:
			if !ok {
				return nil
			}
		}

		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return nil
		case "/history":
			fmt.Fprint(s.out, s.renderer.RenderTranscript(s.engine.Transcript()))
			fmt.Fprint(s.out, "> ")
			continue
		case "/logout":
			if s.logout(ctx, lines) {
				return nil
			}
			fmt.Fprint(s.out, "> ")
			continue
		case "":
			if s.pending.Load() == 0 {
				fmt.Fprint(s.out, "> ")
			}
			continue
		}

		if s.pending.Load() != 0 {
			s.p.Warning("Still waiting for the previous reply, message not sent")
			continue
		}
		s.send(ctx, line)
	}
}

// send starts one exchange in the background. s.pending holds its id until
// the reply is rendered or the send ends.
func (s *chatSession) send(ctx context.Context, text string) {
	s.lastSend++
	id := s.lastSend
	s.pending.Store(id)

	s.sends.Add(1)
	go func() {
		defer s.sends.Done()
		defer s.pending.CompareAndSwap(id, 0)

		switch s.engine.Send(ctx, text) {
		case internal.SendBusy:
			s.p.Warning("Still waiting for the previous reply, message not sent")
		case internal.SendClosed:
			s.p.Warning("Chat is closed, message not sent")
		}
	}()
}

// logout asks for confirmation on the input stream and signs out
func (s *chatSession) logout(ctx context.Context, lines <-chan string) bool {
	fmt.Fprint(s.out, "Are you sure you want to log out? [y/N]: ")
	var answer string
	select {
	case <-ctx.Done():
		return false
	case answer = <-lines:
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
	default:
		s.p.Info("Logout cancelled")
		return false
	}

	if err := s.gate.SignOut(ctx); err != nil {
		s.p.Error(fmt.Sprintf("Failed to sign out: %v", err))
		return false
	}
	s.p.Success("Signed out")
	return true
}

// render prints assistant messages as they are appended and re-prompts
// once no reply is pending
func (s *chatSession) render(ctx context.Context, updates <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
		}

		tr := s.engine.Transcript()
		if len(tr) <= s.printed {
			continue
		}
		replied := false
		for _, msg := range tr[s.printed:] {
			if msg.Sender == internal.SenderAssistant {
				fmt.Fprint(s.out, s.renderer.RenderMessage(msg))
				replied = true
			}
		}
		s.printed = len(tr)
		if replied && !s.engine.IsLoading() {
			// the exchange has settled, accept the next line
			s.pending.Store(0)
			fmt.Fprint(s.out, "> ")
		}
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
