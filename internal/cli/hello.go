package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/b97tsk/minirt"
	"github.com/b97tsk/minirt/internal/config"
)

func newHelloCmd() *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "hello",
		Short: "Print hello, then world after a delay",
		Long: `A task spawns two more: one sleeps and then prints "world", the other
prints "hello" right away. The executor returns once both have completed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, e, err := setup(cmd, map[string]string{"delay": "hello.delay_ms"})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			e.Spawn(minirt.Func(func(cx *minirt.Context) {
				cx.Spawn(minirt.Then(
					minirt.Sleep(cfg.Hello.Delay()),
					minirt.Do(func() { fmt.Fprintln(out, "world") }),
				))
				cx.Spawn(minirt.Do(func() { fmt.Fprintln(out, "hello") }))
			}))

			return run(e)
		},
	}

	cmd.Flags().Int("delay", defaults.Hello.DelayMs, "Delay before \"world\", in milliseconds")

	return cmd
}
