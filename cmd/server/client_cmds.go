package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/schedctl/internal/client"
)

const defaultServerURL = "http://localhost:8000"

func newPsCmd(serverURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ps",
		Short: "List the process table of a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(client.DefaultConfig(*serverURL))
			procs, err := c.Processes(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PID\tPPID\tNAME\tSTATE\tTICKETS\tSTRIDE\tFORK")
			for _, p := range procs {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\t%d\t%s\n",
					p.PID, p.ParentPID, p.Name, p.State, p.Tickets, p.Stride, p.ForkPolicy)
			}
			return w.Flush()
		},
	}
}

func newCallCmd(serverURL *string) *cobra.Command {
	var pid int

	cmd := &cobra.Command{
		Use:   "call <syscall> [args...]",
		Short: "Invoke a syscall on a running server",
		Long: `Invoke a syscall by name or number on behalf of --pid and print its
integer result. Negative results are the syscall's failure codes, not
command errors.`,
		Example: "  schedctl call transfer_tickets 3 10 --pid 2\n  schedctl call 14 3",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ints, err := parseArgs(args[1:])
			if err != nil {
				return err
			}

			c := client.New(client.DefaultConfig(*serverURL))
			res, err := c.Syscall(cmd.Context(), pid, args[0], ints...)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().IntVar(&pid, "pid", 1, "Calling process")

	return cmd
}

func parseArgs(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("argument %q is not an integer", a)
		}
		out = append(out, n)
	}
	return out, nil
}

func printResult(w io.Writer, res *client.Result) {
	if res.Success {
		fmt.Fprintln(w, res.Result)
		return
	}
	fmt.Fprintf(w, "%d (%s)\n", res.Result, res.Status)
}
