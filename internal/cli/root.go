package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rowmap",
		Short:         "Reads database rows through rowmap mappers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newQueryCommand())

	return cmd
}

// Execute runs the root command; it is called once by main.main()
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
