// Package driver implements the main subprogram of tapec, which compiles a
// program file and either runs it or emits it in other languages.
package driver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"src.tapec.sh/pkg/config"
	"src.tapec.sh/pkg/diag"
	"src.tapec.sh/pkg/emit"
	"src.tapec.sh/pkg/eval"
	"src.tapec.sh/pkg/ir"
	"src.tapec.sh/pkg/logutil"
	"src.tapec.sh/pkg/optimize"
	"src.tapec.sh/pkg/parse"
	"src.tapec.sh/pkg/prog"
	"src.tapec.sh/pkg/store"
	"src.tapec.sh/pkg/store/storedefs"
	"src.tapec.sh/pkg/strutil"
	"src.tapec.sh/pkg/sys"
)

var logger = logutil.GetLogger("[driver] ")

// Program is the driver subprogram. It is always suitable, and should come
// last in a composite program.
var Program prog.Program = program{}

type program struct{}

func (program) Run(fds [3]*os.File, f *prog.Flags, args []string) error {
	switch len(args) {
	case 0:
		return prog.BadUsage("no program file given")
	case 1:
	default:
		return prog.BadUsage(fmt.Sprintf("expected one program file, got %d arguments", len(args)))
	}
	file := args[0]

	s, err := resolve(f, file)
	if err != nil {
		return err
	}

	code, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read program: %w", err)
	}
	tree, err := parse.Parse(parse.Source{Name: file, Code: string(code)})
	if err != nil {
		if f.JSON {
			fmt.Fprintf(fds[1], "%s\n", errorsToJSON(err))
		} else {
			diag.ShowError(fds[2], err)
		}
		return prog.Exit(2)
	}

	ops, err := compile(tree, s.level, s.cache)
	if err != nil {
		return err
	}

	if len(s.dialects) > 0 {
		return emitAll(ops, s)
	}
	return run(fds, ops, s, f)
}

// Settings after merging flags, the config file and defaults.
type settings struct {
	level    optimize.Level
	dialects []*emit.Dialect
	prefix   string
	cache    string
	tape     config.Tape
}

func resolve(f *prog.Flags, file string) (*settings, error) {
	cfgPath := f.Config
	if cfgPath == "" {
		var err error
		cfgPath, err = config.Find(file)
		if err != nil {
			return nil, fmt.Errorf("find config: %w", err)
		}
	}
	cfg := &config.Config{}
	if cfgPath != "" {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
	}

	s := &settings{level: optimize.DefaultLevel, cache: cfg.Cache, tape: cfg.Tape}
	switch {
	case f.OptLevel != "":
		level, err := optimize.ParseLevel(f.OptLevel)
		if err != nil {
			return nil, prog.BadUsage(err.Error())
		}
		s.level = level
	case cfg.OptLevel != nil:
		s.level = optimize.Level(*cfg.OptLevel)
	}

	if f.Emit != "" {
		for _, name := range strutil.SplitList(f.Emit) {
			d, err := emit.Lookup(name)
			if err != nil {
				return nil, prog.BadUsage(err.Error())
			}
			s.dialects = append(s.dialects, d)
		}
	} else {
		for _, name := range cfg.Emit {
			d, err := emit.Lookup(name)
			if err != nil {
				return nil, fmt.Errorf("config %s: %w", cfgPath, err)
			}
			s.dialects = append(s.dialects, d)
		}
	}

	s.prefix = f.Out
	if s.prefix == "" {
		s.prefix = strings.TrimSuffix(file, filepath.Ext(file))
	}
	if f.Cache != "" {
		s.cache = f.Cache
	}
	return s, nil
}

// Optimizes a tree, going through the cache when one is configured. Broken
// cache entries are recompiled; failing to write to the cache is not fatal.
func compile(tree parse.Tree, level optimize.Level, cache string) ([]ir.Op, error) {
	if cache == "" {
		return optimize.Optimize(tree, level), nil
	}
	st, err := store.NewStore(cache)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	code := tree.Source.Code
	ops, err := st.IR(code, int(level))
	if err == nil {
		logger.Printf("cache hit for %s at %v", tree.Source.Name, level)
		return ops, nil
	}
	if err != storedefs.ErrNoEntry {
		logger.Printf("discarding cache entry for %s: %v", tree.Source.Name, err)
	}
	ops = optimize.Optimize(tree, level)
	if err := st.PutIR(code, int(level), ops); err != nil {
		logger.Printf("cannot write cache entry for %s: %v", tree.Source.Name, err)
	}
	return ops, nil
}

func emitAll(ops []ir.Op, s *settings) error {
	for _, d := range s.dialects {
		path := s.prefix + d.Ext
		if err := emitFile(path, ops, d, emit.Config{TapeCells: s.tape.EmitCells}); err != nil {
			return fmt.Errorf("emit %s: %w", d.Name, err)
		}
		logger.Printf("wrote %s", path)
	}
	return nil
}

func emitFile(path string, ops []ir.Op, d *emit.Dialect, cfg emit.Config) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	err = emit.Emit(w, ops, d, cfg)
	if err == nil {
		err = w.Flush()
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return err
}

func run(fds [3]*os.File, ops []ir.Op, s *settings, f *prog.Flags) error {
	ctx := context.Background()
	if f.Timeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	ctx, stop := handleInterrupts(ctx)
	defer stop()

	out := bufio.NewWriter(fds[1])
	in := bufio.NewReader(flushingReader{fds[0], out})
	m := eval.New(eval.Config{InitialCells: s.tape.InitialCells, MaxCells: s.tape.MaxCells})
	err := m.Run(ctx, ops, in, out)
	if flushErr := out.Flush(); err == nil {
		err = flushErr
	}
	if f.DumpTape {
		fmt.Fprintf(fds[2], "pointer: %d\ntape: % x\n", m.Pointer(), m.Tape())
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("timed out after %v", f.Timeout)
	case errors.Is(err, context.Canceled):
		return errors.New("interrupted")
	default:
		var exc *eval.Exception
		if errors.As(err, &exc) {
			return fmt.Errorf("runtime error: %w", err)
		}
		return err
	}
}

// Cancels the context when an interrupt signal arrives. The returned
// function releases the signal handler.
func handleInterrupts(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	sigCh, stopSignals := sys.NotifyInterrupts()
	go func() {
		select {
		case sig := <-sigCh:
			logger.Println("got signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		stopSignals()
		cancel()
	}
}

// Flushes pending output before blocking on input, so that prompts show up
// in interactive programs.
type flushingReader struct {
	r   io.Reader
	out *bufio.Writer
}

func (fr flushingReader) Read(p []byte) (int, error) {
	if err := fr.out.Flush(); err != nil {
		return 0, err
	}
	return fr.r.Read(p)
}

// An auxiliary struct for converting parse errors to JSON.
type errorInJSON struct {
	FileName string `json:"fileName"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Message  string `json:"message"`
}

func errorsToJSON(err error) []byte {
	var converted []errorInJSON
	for _, e := range parse.UnpackErrors(err) {
		converted = append(converted,
			errorInJSON{e.Context.Name, e.Context.From, e.Context.To, e.Message})
	}
	jsonError, errMarshal := json.Marshal(converted)
	if errMarshal != nil {
		return []byte(`[{"message":"Unable to convert the errors to JSON"}]`)
	}
	return jsonError
}
