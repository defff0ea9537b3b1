package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nf/ic/intcode"
	"github.com/nf/ic/robot"
)

func (a *app) paintCmd() *cobra.Command {
	var white bool
	cmd := &cobra.Command{
		Use:   "paint <program>",
		Short: "Run a hull painting robot",
		Long: `Run a painting robot program over an empty hull, then print the
painted panels and how many were painted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := intcode.LoadProgram(args[0])
			if err != nil {
				return err
			}
			start := robot.Black
			if white {
				start = robot.White
			}
			r := robot.New(prog, start, a.options(false)...)
			err = r.Run(cmd.Context())
			fmt.Fprint(a.stdout, r.Hull)
			fmt.Fprintf(a.stdout, "painted %d\n", r.Hull.Painted())
			return err
		},
	}
	cmd.Flags().BoolVar(&white, "white", false, "start on a white panel")
	return cmd
}
