package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/b97tsk/minirt"
	"github.com/b97tsk/minirt/internal/config"
)

func newSleepCmd() *cobra.Command {
	defaults := config.Default()

	var fail bool

	cmd := &cobra.Command{
		Use:   "sleep",
		Short: "Spawn tasks sleeping staggered durations",
		Long: `Spawns N tasks in order; task i sleeps (N-i) steps, so the tasks wake up
in reverse order of spawning. Each prints its index when it wakes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, e, err := setup(cmd, map[string]string{
				"tasks": "sleep.tasks",
				"step":  "sleep.step_ms",
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			n := cfg.Sleep.Tasks
			step := cfg.Sleep.Step()

			for i := range n {
				d := time.Duration(n-i) * step
				e.Spawn(minirt.Then(
					minirt.Sleep(d),
					minirt.Do(func() {
						if fail && i == 0 {
							panic(errTaskFailed)
						}
						fmt.Fprintf(out, "task %d woke after %v\n", i, d)
					}),
				))
			}

			start := time.Now()

			if err := run(e); err != nil {
				return err
			}

			fmt.Fprintf(out, "%d tasks done in %v\n", n, time.Since(start).Round(time.Millisecond))

			return nil
		},
	}

	cmd.Flags().Int("tasks", defaults.Sleep.Tasks, "Number of tasks")
	cmd.Flags().Int("step", defaults.Sleep.StepMs, "Sleep step, in milliseconds")
	cmd.Flags().BoolVar(&fail, "fail", false, "Make the last task to wake panic")

	return cmd
}
