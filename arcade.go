package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/nf/ic/arcade"
	"github.com/nf/ic/intcode"
)

type arcadeFlags struct {
	quarters int64
	auto     bool
	gui      bool
	headless bool
	delay    time.Duration
	scale    int
}

func (a *app) arcadeCmd() *cobra.Command {
	var f arcadeFlags
	cmd := &cobra.Command{
		Use:   "arcade <program>",
		Short: "Play an arcade game",
		Long: `Run an arcade cabinet program, drawing its screen in the terminal or,
with --gui, in a window. The arrow keys move the joystick; q quits.

With --auto the joystick follows the ball by itself. With --headless
nothing is drawn and the final screen and score are printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := intcode.LoadProgram(args[0])
			if err != nil {
				return err
			}
			c := arcade.New(prog, a.options(false)...)
			if f.quarters > 0 {
				c.Quarters(f.quarters)
			}
			if f.auto {
				c.Control = arcade.Autopilot
			}
			switch {
			case f.headless:
				err = c.Run(cmd.Context())
			case f.gui:
				err = playWindow(cmd.Context(), c, &f)
			default:
				err = playTerminal(cmd.Context(), c, &f)
			}
			fmt.Fprint(a.stdout, c.Screen)
			fmt.Fprintf(a.stdout, "blocks %d score %d\n", c.Screen.Blocks(), c.Screen.Score())
			return err
		},
	}
	cmd.Flags().Int64Var(&f.quarters, "quarters", 0, "quarters to insert; 2 plays for free")
	cmd.Flags().BoolVar(&f.auto, "auto", false, "let the joystick follow the ball")
	cmd.Flags().BoolVar(&f.gui, "gui", false, "draw the screen in a window")
	cmd.Flags().BoolVar(&f.headless, "headless", false, "draw nothing, print the final screen")
	cmd.Flags().DurationVar(&f.delay, "delay", 50*time.Millisecond, "minimum time per frame")
	cmd.Flags().IntVar(&f.scale, "scale", 12, "window pixels per tile")
	return cmd
}

func playTerminal(ctx context.Context, c *arcade.Cabinet, f *arcadeFlags) error {
	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v := arcade.NewView(s, f.delay)
	v.Attach(c)
	go v.Poll(cancel)

	err = c.Run(ctx)
	s.Fini()
	if errors.Is(err, context.Canceled) {
		// The player quit.
		return nil
	}
	return err
}

func playWindow(ctx context.Context, c *arcade.Cabinet, f *arcadeFlags) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := arcade.NewWindow(f.scale, f.delay)
	w.Attach(c)
	var (
		exit = make(chan bool)
		errc = make(chan error, 1)
	)
	go func() {
		errc <- c.Run(ctx)
		close(exit)
	}()
	w.Run(c.Screen, exit, cancel)
	err := <-errc
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
