package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/pkg/client"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// NewFiltersCmd documents the available filters.
func NewFiltersCmd() *cobra.Command {
	filtersCmd := &cobra.Command{
		Use:   "filters",
		Short: "Inspect the available property, catalog and SMARTS filters",
	}

	filtersCmd.AddCommand(&cobra.Command{
		Use:   "describe",
		Short: "Show the documentation of every filter category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := apiClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			desc, err := c.Templates().Descriptions(ctx)
			if err != nil {
				return err
			}
			return PrintResult(cmd, desc)
		},
	})
	return filtersCmd
}

type templateEvalOptions struct {
	file        string
	templateID  string
	queriesFile string
	noData      bool
}

type templateSaveOptions struct {
	file    string
	name    string
	version int
}

// NewTemplateCmd groups template evaluation and saved-template management.
func NewTemplateCmd() *cobra.Command {
	templateCmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"tpl"},
		Short:   "Evaluate molecules against filter templates and manage saved templates",
	}

	templateCmd.AddCommand(
		&cobra.Command{
			Use:   "base",
			Short: "Print the default template with every filter inactive",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, ctx, cancel, err := apiClient(cmd)
				if err != nil {
					return err
				}
				defer cancel()

				tpl, err := c.Templates().Base(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, tpl)
			},
		},
		newTemplateStripCmd(),
		newTemplateEvalCmd(),
		newTemplateListCmd(),
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show a saved template",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, ctx, cancel, err := apiClient(cmd)
				if err != nil {
					return err
				}
				defer cancel()

				tpl, err := c.Templates().Get(ctx, args[0])
				if err != nil {
					return err
				}
				return PrintResult(cmd, templateTable{*tpl})
			},
		},
		newTemplateSaveCmd(false),
		newTemplateSaveCmd(true),
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a saved template",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, ctx, cancel, err := apiClient(cmd)
				if err != nil {
					return err
				}
				defer cancel()

				if err := c.Templates().Delete(ctx, args[0]); err != nil {
					return err
				}
				PrintSuccess(cmd, "template "+args[0]+" deleted")
				return nil
			},
		},
	)
	return templateCmd
}

func newTemplateStripCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "strip",
		Short: "Remove inactive filters from a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readJSONFile(cmd, file)
			if err != nil {
				return err
			}
			c, ctx, cancel, err := apiClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			res, err := c.Templates().Strip(ctx, cfg)
			if err != nil {
				return err
			}
			for _, d := range res.Dropped {
				fmt.Fprintf(cmd.ErrOrStderr(), "dropped %s.%s: %s\n", d.Category, d.Key, d.Reason)
			}
			return printJSON(cmd, res.Config)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "template JSON file (- for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newTemplateEvalCmd() *cobra.Command {
	opts := &templateEvalOptions{}
	cmd := &cobra.Command{
		Use:   "eval [smiles...]",
		Short: "Evaluate molecules against an inline or saved template",
		Long: "Evaluate molecules against a template given with --file or a saved template\n" +
			"given with --id. Molecules come from the arguments and --queries-file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplateEval(cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "template JSON file (- for stdin)")
	cmd.Flags().StringVar(&opts.templateID, "id", "", "saved template id")
	cmd.Flags().StringVar(&opts.queriesFile, "queries-file", "", "file with one SMILES per line (- for stdin)")
	cmd.Flags().BoolVar(&opts.noData, "no-data", false, "omit per-filter data from the results")
	cmd.MarkFlagsMutuallyExclusive("file", "id")
	cmd.MarkFlagsOneRequired("file", "id")
	return cmd
}

func runTemplateEval(cmd *cobra.Command, args []string, opts *templateEvalOptions) error {
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

	c, ctx, cancel, err := apiClient(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	cliCtx, _ := GetCLIContext(cmd)

	var results []client.FilterResult
	if opts.templateID != "" {
		results, err = c.Templates().EvaluateSaved(ctx, opts.templateID, queries, !opts.noData)
	} else {
		var cfg json.RawMessage
		if cfg, err = readJSONFile(cmd, opts.file); err != nil {
			return err
		}
		results, err = c.Templates().Evaluate(ctx, cfg, queries, !opts.noData)
	}
	if err != nil {
		return err
	}

	passed := 0
	for _, r := range results {
		if r.Result {
			passed++
		}
	}
	cliCtx.Logger.Debug("template evaluation finished",
		logging.Int("queries", len(queries)),
		logging.Int("passed", passed))

	return PrintResult(cmd, filterResultTable(results))
}

func newTemplateListCmd() *cobra.Command {
	var skip, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := apiClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			tpls, err := c.Templates().List(ctx, &client.ListOptions{Skip: skip, Limit: limit})
			if err != nil {
				return err
			}
			return PrintResult(cmd, templateTable(tpls))
		},
	}
	cmd.Flags().IntVar(&skip, "skip", 0, "number of templates to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of templates (server default when 0)")
	return cmd
}

// newTemplateSaveCmd builds "create", or "update <id>" when update is set.
func newTemplateSaveCmd(update bool) *cobra.Command {
	opts := &templateSaveOptions{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Save a template",
		Args:  cobra.NoArgs,
	}
	if update {
		cmd.Use = "update <id>"
		cmd.Short = "Replace a saved template"
		cmd.Args = cobra.ExactArgs(1)
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := readJSONFile(cmd, opts.file)
		if err != nil {
			return err
		}
		c, ctx, cancel, err := apiClient(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		req := &client.TemplateRequest{Name: opts.name, Config: cfg, Version: opts.version}
		var tpl *client.Template
		if update {
			tpl, err = c.Templates().Update(ctx, args[0], req)
		} else {
			tpl, err = c.Templates().Create(ctx, req)
		}
		if err != nil {
			return err
		}
		return PrintResult(cmd, templateTable{*tpl})
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "template JSON file (- for stdin)")
	cmd.Flags().StringVar(&opts.name, "name", "", "template name (defaults to the template_name of the config)")
	if update {
		cmd.Flags().IntVar(&opts.version, "version", 0, "expected current version; the update fails if it changed")
	}
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// NewMoleculeCmd exposes per-molecule property and catalog lookups.
func NewMoleculeCmd() *cobra.Command {
	moleculeCmd := &cobra.Command{
		Use:     "molecule",
		Aliases: []string{"mol"},
		Short:   "Compute properties and catalog memberships of molecules",
	}
	moleculeCmd.AddCommand(
		newLookupCmd("properties", "Compute molecular properties", func(c *client.Client) lookupFunc {
			return c.Templates().Properties
		}),
		newLookupCmd("catalogs", "Check catalog memberships", func(c *client.Client) lookupFunc {
			return c.Templates().Catalogs
		}),
	)
	return moleculeCmd
}

type lookupFunc = func(ctx context.Context, inputs, names []string) ([]client.MoleculeValues, error)

func newLookupCmd(use, short string, pick func(*client.Client) lookupFunc) *cobra.Command {
	var (
		names       []string
		queriesFile string
	)
	cmd := &cobra.Command{
		Use:   use + " [smiles...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := readLines(cmd, args, queriesFile)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return errors.NewValidationError("inputs", "at least one molecule is required")
			}
			c, ctx, cancel, err := apiClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			values, err := pick(c)(ctx, inputs, names)
			if err != nil {
				return err
			}
			return PrintResult(cmd, moleculeTable(values))
		},
	}
	cmd.Flags().StringSliceVar(&names, "name", nil, "restrict to these names (repeatable, comma separated)")
	cmd.Flags().StringVar(&queriesFile, "queries-file", "", "file with one SMILES per line (- for stdin)")
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// Table renderings
// ─────────────────────────────────────────────────────────────────────────────

type filterResultTable []client.FilterResult

func (t filterResultTable) TableHeaders() []string {
	return []string{"INDEX", "INPUT", "RESULT"}
}

func (t filterResultTable) TableRows() [][]string {
	rows := make([][]string, len(t))
	for i, r := range t {
		verdict := "fail"
		if r.Result {
			verdict = "pass"
		}
		rows[i] = []string{strconv.Itoa(r.Index), r.Input, verdict}
	}
	return rows
}

type templateTable []client.Template

func (t templateTable) TableHeaders() []string {
	return []string{"ID", "NAME", "VERSION", "UPDATED"}
}

func (t templateTable) TableRows() [][]string {
	rows := make([][]string, len(t))
	for i, tpl := range t {
		rows[i] = []string{tpl.ID, tpl.Name, strconv.Itoa(tpl.Version), formatTime(tpl.UpdatedAt)}
	}
	return rows
}

type moleculeTable []client.MoleculeValues

func (t moleculeTable) TableHeaders() []string {
	return []string{"INDEX", "INPUT", "VALID", "VALUES"}
}

func (t moleculeTable) TableRows() [][]string {
	rows := make([][]string, len(t))
	for i, m := range t {
		keys := make([]string, 0, len(m.Values))
		for k := range m.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for j, k := range keys {
			parts[j] = fmt.Sprintf("%s=%v", k, m.Values[k])
		}
		rows[i] = []string{strconv.Itoa(m.Index), m.Input, strconv.FormatBool(m.Valid), strings.Join(parts, " ")}
	}
	return rows
}

//Personal.AI order the ending
