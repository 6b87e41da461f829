package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/danderson/multiqr"
	"github.com/danderson/multiqr/internal/display"
	"github.com/danderson/multiqr/specter"
	"github.com/danderson/multiqr/ur"
	"github.com/kr/pretty"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var globalArgs struct {
	Config   string `flag:"config,Load defaults from a .toml or .yaml file"`
	Verbose  bool   `flag:"verbose,Log transfer progress to stderr"`
	Dialect  string `flag:"dialect,Wire dialect: auto, raw, specter or ur"`
	Type     string `flag:"type,Payload type: auto, address, psbt, xpub, xprv, descriptor or bytes"`
	MaxLen   int    `flag:"max-len,Maximum frame length in characters"`
	Network  string `flag:"network,Bitcoin network: mainnet, testnet3, regtest or signet"`
	AllowRaw bool   `flag:"allow-raw,Accept an unframed frame as a complete payload"`
	FPS      int    `flag:"fps,Frames per second for show"`
}

var splitArgs struct {
	Count int `flag:"count,Number of frames to print (default one full cycle)"`
}

var joinArgs struct {
	Dump bool `flag:"dump,Print the decoded payload structure"`
}

func main() {
	root := &command.C{
		Name:     "multiqr",
		Usage:    "command args...",
		Help:     "Split Bitcoin artifacts into animated QR frames, and join them back.",
		SetFlags: command.Flags(flax.MustBind, &globalArgs),
		Commands: []*command.C{
			{
				Name:  "split",
				Usage: "split [file]",
				Help: `Split a payload into frames, one per line.

The payload is read from file, or stdin if no file is given. With
--type=auto, the payload type is detected from its text. With
--dialect=auto, frames use the Specter dialect.`,
				SetFlags: command.Flags(flax.MustBind, &splitArgs),
				Run:      runSplit,
			},
			{
				Name:  "join",
				Usage: "join [file]",
				Help: `Reassemble a payload from frames, one per line.

Frames are read from file, or stdin if no file is given, until the
payload is complete. Frames that do not belong to the transfer are
reported and skipped.`,
				SetFlags: command.Flags(flax.MustBind, &joinArgs),
				Run:      runJoin,
			},
			{
				Name:  "detect",
				Usage: "detect [file]",
				Help:  "Describe the dialect and contents of each frame, one per line.",
				Run:   runDetect,
			},
			{
				Name:  "show",
				Usage: "show [file]",
				Help: `Animate the frames of a payload in the terminal.

Space pauses, n shows the next frame, q quits.`,
				Run: runShow,
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	env := root.NewEnv(nil).SetContext(ctx)
	command.RunOrFail(env, os.Args[1:])
}

// setup applies the global flags and config file, and returns the
// resulting settings.
func setup() (settings, error) {
	if globalArgs.Verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			return settings{}, err
		}
		multiqr.SetLogger(log)
	}

	var cfg config
	if globalArgs.Config != "" {
		var err error
		cfg, err = loadConfig(globalArgs.Config)
		if err != nil {
			return settings{}, err
		}
	}
	cfg = cfg.merge(config{
		Dialect:  globalArgs.Dialect,
		Type:     globalArgs.Type,
		MaxLen:   globalArgs.MaxLen,
		Network:  globalArgs.Network,
		AllowRaw: globalArgs.AllowRaw,
		FPS:      globalArgs.FPS,
	})
	return cfg.settings()
}

func openInput(env *command.Env) (io.ReadCloser, error) {
	switch len(env.Args) {
	case 0:
		return io.NopCloser(os.Stdin), nil
	case 1:
		if env.Args[0] == "-" {
			return io.NopCloser(os.Stdin), nil
		}
		return os.Open(env.Args[0])
	default:
		return nil, env.Usagef("at most one input file")
	}
}

// newEncoder reads a payload from the command's input and returns an
// encoder for it.
func newEncoder(env *command.Env, s settings) (*multiqr.Encoder, error) {
	in, err := openInput(env)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	bs, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSuffix(string(bs), "\n")

	p, err := multiqr.ParsePayload(s.typ, text, s.net)
	if err != nil {
		return nil, err
	}
	dialect := s.dialect
	if dialect == multiqr.UnselectedDialect {
		dialect = multiqr.Specter
	}
	return multiqr.NewEncoder(p, dialect, &multiqr.EncoderOptions{
		MaxLen:  s.maxLen,
		Network: s.net,
	})
}

func runSplit(env *command.Env) error {
	s, err := setup()
	if err != nil {
		return err
	}
	enc, err := newEncoder(env, s)
	if err != nil {
		return err
	}
	n := splitArgs.Count
	if n <= 0 {
		n = enc.Parts()
	}
	out := bufio.NewWriter(os.Stdout)
	for range n {
		fmt.Fprintln(out, enc.Next())
	}
	return out.Flush()
}

func runJoin(env *command.Env) error {
	s, err := setup()
	if err != nil {
		return err
	}
	in, err := openInput(env)
	if err != nil {
		return err
	}
	defer in.Close()

	dec := multiqr.NewDecoder(&multiqr.DecoderOptions{
		Dialect:  s.dialect,
		AllowRaw: s.allowRaw,
		Type:     s.typ,
		Network:  s.net,
	})
	for f, err := range readFrames(in) {
		if err != nil {
			return err
		}
		if _, err := dec.Receive(f.text); err != nil {
			fmt.Fprintf(os.Stderr, "line %d: skipped: %v\n", f.line, err)
		}
		if dec.IsComplete() {
			break
		}
	}
	if !dec.IsComplete() {
		received, total := dec.Progress()
		return fmt.Errorf("%w: have %d of %d fragments", multiqr.ErrIncomplete, received, total)
	}

	p, err := dec.Result()
	if err != nil {
		return err
	}
	if joinArgs.Dump {
		out := &indenter{w: os.Stdout}
		out.f("%s payload via %s:", p.Type, dec.Dialect())
		out.indent(1)
		_, err := pretty.Fprintf(out, "%# v\n", p.Value)
		return err
	}
	text, err := multiqr.FormatPayload(p)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func runDetect(env *command.Env) error {
	s, err := setup()
	if err != nil {
		return err
	}
	in, err := openInput(env)
	if err != nil {
		return err
	}
	defer in.Close()

	for f, err := range readFrames(in) {
		if err != nil {
			return err
		}
		fmt.Println(describe(f.text, s))
	}
	return nil
}

// describe returns a one-line description of a frame.
func describe(data string, s settings) string {
	switch {
	case specter.Detect(data):
		index, total, rest, err := specter.DecodeHeader(data)
		if err != nil {
			return fmt.Sprintf("specter\tinvalid: %v", err)
		}
		return fmt.Sprintf("specter\tpart %d of %d\t%d bytes", index, total, len(rest))
	case ur.IsUR(data):
		t, err := ur.Classify(data)
		if err != nil {
			return fmt.Sprintf("ur\tinvalid: %v", err)
		}
		pt, _ := multiqr.URPayloadType(t)
		parts := "single-part"
		if ur.IsMultiPart(data) {
			parts = "multi-part " + strings.SplitN(data, "/", 3)[1]
		}
		return fmt.Sprintf("ur\t%s (%s)\t%s", t, pt, parts)
	default:
		return fmt.Sprintf("raw\t%s\t%d bytes", multiqr.DetectPayloadType(data, s.net), len(data))
	}
}

func runShow(env *command.Env) error {
	s, err := setup()
	if err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("show needs a terminal, use split to print frames")
	}
	if len(env.Args) == 0 && !term.IsTerminal(int(os.Stdin.Fd())) {
		// Stdin is the payload, so keyboard input cannot work.
		return errors.New("show reads keys from stdin, pass the payload as a file")
	}
	enc, err := newEncoder(env, s)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("multiqr %s, %d parts", enc.Dialect(), enc.Parts())
	prog := tea.NewProgram(display.New(enc, title, s.fps), tea.WithAltScreen(), tea.WithContext(env.Context()))
	_, err = prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) && env.Context().Err() != nil {
		return nil
	}
	return err
}
