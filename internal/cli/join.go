package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/b97tsk/minirt"
	"github.com/b97tsk/minirt/internal/config"
)

func newJoinCmd() *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join tasks that sleep the same duration",
		Long: `Spawns a task that joins N child tasks, each sleeping the same delay.
Without a limit the children sleep side by side and the join takes about
one delay. With --limit L, a semaphore lets at most L children sleep at
once, so the join takes about ceil(N/L) delays.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, e, err := setup(cmd, map[string]string{
				"tasks": "join.tasks",
				"delay": "join.delay_ms",
				"limit": "join.limit",
			})
			if err != nil {
				return err
			}

			var sema *minirt.Semaphore
			if cfg.Join.Limit > 0 {
				sema = minirt.NewSemaphore(int64(cfg.Join.Limit))
			}

			children := make([]minirt.Future, cfg.Join.Tasks)
			for i := range children {
				child := minirt.Sleep(cfg.Join.Delay())
				if sema != nil {
					child = minirt.Block(
						sema.Acquire(1),
						child,
						minirt.Do(func() { sema.Release(1) }),
					)
				}
				children[i] = child
			}

			out := cmd.OutOrStdout()

			var elapsed time.Duration

			e.Spawn(minirt.Lazy(func(cx *minirt.Context) minirt.Future {
				start := cx.Clock().Now()
				return minirt.Then(
					minirt.Join(children...),
					minirt.Func(func(cx *minirt.Context) { elapsed = cx.Clock().Now().Sub(start) }),
				)
			}))

			if err := run(e); err != nil {
				return err
			}

			fmt.Fprintf(out, "joined %d tasks in %v\n", len(children), elapsed.Round(time.Millisecond))

			return nil
		},
	}

	cmd.Flags().Int("tasks", defaults.Join.Tasks, "Number of child tasks")
	cmd.Flags().Int("delay", defaults.Join.DelayMs, "Sleep of each child, in milliseconds")
	cmd.Flags().Int("limit", defaults.Join.Limit, "Maximum number of children sleeping at once (0: no limit)")

	return cmd
}
