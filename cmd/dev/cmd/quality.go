package cmd

import (
	"fmt"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

// QualityCmds returns the test, lint and integration-test commands. Integration
// tests need a DS2482 on the host i2c bus.
func QualityCmds() []*cobra.Command {
	tasks := []struct {
		use, short, name string
		run              func() error
	}{
		{"test", "Run unit tests (the bridge is simulated)", "tests", test.Test},
		{"lint", "Run linters", "linting", test.Lint},
		{"integration-test", "Run tests against a bridge attached to the host", "integration tests", test.Integ},
	}
	cmds := make([]*cobra.Command, 0, len(tasks))
	for _, task := range tasks {
		cmds = append(cmds, &cobra.Command{
			Use:   task.use,
			Short: task.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := task.run(); err != nil {
					return fmt.Errorf("failed to run %s: %w", task.name, err)
				}
				return nil
			},
		})
	}
	return cmds
}
