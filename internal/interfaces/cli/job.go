package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/chemtemplates/pkg/client"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

type jobSubmitOptions struct {
	file        string
	templateID  string
	queriesFile string
	noData      bool
	wait        bool
	interval    time.Duration
}

// NewJobCmd submits and follows asynchronous evaluation jobs.
func NewJobCmd() *cobra.Command {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Run large evaluations asynchronously",
	}

	var interval time.Duration
	waitCmd := &cobra.Command{
		Use:   "wait <id>",
		Short: "Block until a job finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := apiClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			job, err := c.Jobs().Wait(ctx, args[0], interval)
			if err != nil {
				return err
			}
			return PrintResult(cmd, jobTable{*job})
		},
	}
	waitCmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval")

	jobCmd.AddCommand(
		newJobSubmitCmd(),
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show the state of a job",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, ctx, cancel, err := apiClient(cmd)
				if err != nil {
					return err
				}
				defer cancel()

				job, err := c.Jobs().Get(ctx, args[0])
				if err != nil {
					return err
				}
				return PrintResult(cmd, jobTable{*job})
			},
		},
		waitCmd,
	)
	return jobCmd
}

func newJobSubmitCmd() *cobra.Command {
	opts := &jobSubmitOptions{}
	cmd := &cobra.Command{
		Use:   "submit [smiles...]",
		Short: "Queue an evaluation job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobSubmit(cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "template JSON file (- for stdin)")
	cmd.Flags().StringVar(&opts.templateID, "id", "", "saved template id")
	cmd.Flags().StringVar(&opts.queriesFile, "queries-file", "", "file with one SMILES per line (- for stdin)")
	cmd.Flags().BoolVar(&opts.noData, "no-data", false, "omit per-filter data from the results")
	cmd.Flags().BoolVar(&opts.wait, "wait", false, "wait for the job to finish")
	cmd.Flags().DurationVar(&opts.interval, "interval", 2*time.Second, "poll interval with --wait")
	cmd.MarkFlagsMutuallyExclusive("file", "id")
	cmd.MarkFlagsOneRequired("file", "id")
	return cmd
}

func runJobSubmit(cmd *cobra.Command, args []string, opts *jobSubmitOptions) error {
	if opts.file == "-" && opts.queriesFile == "-" {
		return errors.InvalidParam("--file and --queries-file cannot both read stdin")
	}
	queries, err := readLines(cmd, args, opts.queriesFile)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return errors.NewValidationError("queries", "at least one molecule is required")
	}

	req := &client.SubmitJobRequest{TemplateID: opts.templateID, Queries: queries}
	if opts.file != "" {
		if req.TemplateConfig, err = readJSONFile(cmd, opts.file); err != nil {
			return err
		}
	}
	if opts.noData {
		returnData := false
		req.ReturnData = &returnData
	}

	c, ctx, cancel, err := apiClient(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	job, err := c.Jobs().Submit(ctx, req)
	if err != nil {
		return err
	}
	if opts.wait {
		if job, err = c.Jobs().Wait(ctx, job.ID, opts.interval); err != nil {
			return err
		}
	}
	return PrintResult(cmd, jobTable{*job})
}

type jobTable []client.Job

func (t jobTable) TableHeaders() []string {
	return []string{"ID", "STATUS", "QUERIES", "CREATED", "RESULT"}
}

func (t jobTable) TableRows() [][]string {
	rows := make([][]string, len(t))
	for i, j := range t {
		result := j.ResultURL
		if j.Status == client.JobFailed {
			result = j.Error
		}
		rows[i] = []string{j.ID, j.Status, strconv.Itoa(j.Queries), formatTime(j.CreatedAt), result}
	}
	return rows
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}

//Personal.AI order the ending
