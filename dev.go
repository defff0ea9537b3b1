package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"
	"github.com/spf13/cobra"

	"github.com/nf/ic/intcode"
	"github.com/nf/ic/pipe"
)

func (a *app) devCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "dev <program>",
		Short: "Re-run a program whenever it changes",
		Long: `Run a program like the run command, then watch its file and run it
again each time the file is written. A run still in progress when the
file changes is stopped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return devMode(cmd.Context(), args[0], a.stdout, &f, a.options(f.trace))
		},
	}
	f.register(cmd)
	return cmd
}

func devMode(ctx context.Context, progFile string, w io.Writer, f *runFlags, opts []pipe.Option) error {
	progFile = filepath.Clean(progFile)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Watch(filepath.Dir(progFile)); err != nil {
		return err
	}

	var (
		stop context.CancelFunc = func() {}
		done                    = make(chan bool)
		run                     = time.After(1 * time.Millisecond)
		running                 bool
	)
	defer func() {
		stop()
		if running {
			<-done
		}
	}()
	for {
		select {
		case <-run:
			stop()
			if running {
				log.Printf("dev: stop")
				<-done
			}
			prog, err := intcode.LoadProgram(progFile)
			if err != nil {
				log.Printf("dev: %v", err)
				running = false
				break
			}
			log.Printf("dev: run %s", filepath.Base(progFile))
			var runCtx context.Context
			runCtx, stop = context.WithCancel(ctx)
			running = true
			go func() {
				devRun(runCtx, w, prog, f, opts)
				done <- true
			}()
		case <-done:
			running = false
		case ev := <-watcher.Event:
			if filepath.Clean(ev.Name) == progFile && !ev.IsAttrib() {
				run = time.After(100 * time.Millisecond)
			}
		case err := <-watcher.Error:
			log.Printf("dev: watcher: %v", err)
		case <-ctx.Done():
			return nil
		}
	}
}

func devRun(ctx context.Context, w io.Writer, prog []int64, f *runFlags, opts []pipe.Option) {
	start := time.Now()
	r, err := runProgram(ctx, prog, f, opts)
	r.print(w, f)
	switch {
	case err != nil:
		log.Printf("dev: %v", err)
	case ctx.Err() != nil:
		log.Printf("dev: stopped")
	default:
		log.Printf("dev: halt at %d after %d steps in %v", r.m.PC, r.m.Steps, time.Since(start).Round(time.Microsecond))
	}
	fmt.Fprintln(w)
}
