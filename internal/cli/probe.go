package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"csvwarehouse/internal/config"
	"csvwarehouse/internal/probe"
)

func (a *app) probeCmd() *cobra.Command {
	var (
		opt probe.Options
		out string
	)
	cmd := &cobra.Command{
		Use:   "probe <extract.csv>",
		Short: "Sample a CSV extract and draft a job file for it",
		Example: `  loader probe jan.csv --out master_list.yaml
  loader probe export.csv --delimiter ';' --encoding windows-1250 --schema dbo`,
		Args: cobra.ExactArgs(1),
		// settings are irrelevant here
		PersistentPreRun: func(*cobra.Command, []string) {},
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := probe.File(cmd.Context(), args[0], opt)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			enc := yaml.NewEncoder(&buf)
			enc.SetIndent(2)
			if err := enc.Encode(res.Job); err != nil {
				return fmt.Errorf("encode job: %w", err)
			}
			_ = enc.Close()

			if out == "" {
				_, err = a.stdout.Write(buf.Bytes())
			} else {
				err = os.WriteFile(out, buf.Bytes(), 0o644)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stderr, "probe: %d row(s) sampled, %d skipped, delimiter %q\n", res.Rows, res.Skipped, res.Delimiter)
			for _, iss := range config.Validate(res.Job) {
				fmt.Fprintf(a.stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opt.Name, "name", "", "table and source name (default: file base name)")
	cmd.Flags().StringVar(&opt.Delimiter, "delimiter", "", "field delimiter (default: sniffed)")
	cmd.Flags().StringVar(&opt.Encoding, "encoding", "", "source encoding (default: utf-8)")
	cmd.Flags().StringVar(&opt.Schema, "schema", "", "warehouse schema of the drafted table")
	cmd.Flags().Int64Var(&opt.MaxBytes, "sample-bytes", 0, "bytes to sample (default 1 MiB)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the job to this file instead of stdout")
	return cmd
}
