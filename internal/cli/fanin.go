package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/b97tsk/minirt"
	"github.com/b97tsk/minirt/internal/config"
)

func newFaninCmd() *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "fanin",
		Short: "Feed tasks to the executor from producer goroutines",
		Long: `Starts P producer goroutines, each holding its own Spawner, that spawn
K tasks each while the executor runs. Every task adds its number to a sum
that only tasks touch. Run returns once every producer has closed its
Spawner and every task has completed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, e, err := setup(cmd, map[string]string{
				"producers": "fanin.producers",
				"tasks":     "fanin.tasks",
			})
			if err != nil {
				return err
			}

			producers, tasks := cfg.Fanin.Producers, cfg.Fanin.Tasks

			var sum, count int // Only accessed by tasks.

			sp := e.Spawner()

			var g errgroup.Group
			for p := range producers {
				sp := sp.Clone()
				g.Go(func() error {
					defer sp.Close()
					for k := range tasks {
						n := p*tasks + k + 1
						sp.Spawn(minirt.Do(func() {
							sum += n
							count++
						}))
					}
					return nil
				})
			}

			sp.Close()

			runErr := run(e)

			if err := g.Wait(); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d tasks from %d producers, sum %d\n", count, producers, sum)

			return nil
		},
	}

	cmd.Flags().Int("producers", defaults.Fanin.Producers, "Number of producer goroutines")
	cmd.Flags().Int("tasks", defaults.Fanin.Tasks, "Tasks spawned by each producer")

	return cmd
}
