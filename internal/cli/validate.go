package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"csvwarehouse/internal/config"
)

func (a *app) validateCmd() *cobra.Command {
	var (
		original    string
		incremental []string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the job and settings without connecting",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			job, err := a.loadJob(original, incremental)
			if err != nil {
				return err
			}
			issues := config.Validate(job)
			for _, iss := range issues {
				fmt.Fprintf(a.stdout, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
			}
			if config.HasErrors(issues) {
				return fmt.Errorf("job %s is invalid", job.Name)
			}
			fmt.Fprintf(a.stdout, "job %s is valid: %d table(s)\n", job.Name, len(job.Tables))
			return nil
		},
	}
	cmd.Flags().StringVar(&original, "original", "", "original extract of the built-in master_list job")
	cmd.Flags().StringArrayVar(&incremental, "incremental", nil, "incremental extract, repeatable")
	return cmd
}
