package cli

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/chemtemplates/pkg/client"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// runInputs is the document read by --inputs.
type runInputs struct {
	InputSchema    map[string][]client.InputItem `json:"input_schema"`
	UnmappedInputs []client.InputItem            `json:"unmapped_inputs"`
}

type assemblyRunOptions struct {
	family   string
	file     string
	inputs   string
	unmapped []string
}

// load reads --inputs and appends every --unmapped molecule.
func (o *assemblyRunOptions) load(cmd *cobra.Command) (*runInputs, error) {
	in := &runInputs{}
	if o.inputs != "" {
		raw, err := readJSONFile(cmd, o.inputs)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, in); err != nil {
			return nil, errors.NewValidationError("inputs", "inputs file must hold input_schema and unmapped_inputs: "+err.Error())
		}
	}
	for _, smi := range o.unmapped {
		in.UnmappedInputs = append(in.UnmappedInputs, client.InputItem{Input: smi})
	}
	return in, nil
}

func (o *assemblyRunOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.inputs, "inputs", "", "JSON file with input_schema and unmapped_inputs")
	cmd.Flags().StringArrayVar(&o.unmapped, "unmapped", nil, "unmapped input molecule (repeatable)")
}

// NewAssemblyCmd groups building-block and fragment assembly.
func NewAssemblyCmd() *cobra.Command {
	assemblyCmd := &cobra.Command{
		Use:     "assembly",
		Aliases: []string{"asm"},
		Short:   "Assemble building blocks or fragments into products",
	}
	assemblyCmd.AddCommand(
		newSynthonsCmd(),
		&cobra.Command{
			Use:   "mechanisms",
			Short: "List the known reaction mechanisms",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, ctx, cancel, err := apiClient(cmd)
				if err != nil {
					return err
				}
				defer cancel()

				mechs, err := c.Assembly().Mechanisms(ctx)
				if err != nil {
					return err
				}
				return PrintResult(cmd, mechanismTable(mechs))
			},
		},
		newDescribeCmd(),
		&cobra.Command{
			Use:       "preset <2bb|3bb>",
			Short:     "Print a blank preset schema",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"2bb", "3bb"},
			RunE: func(cmd *cobra.Command, args []string) error {
				c, ctx, cancel, err := apiClient(cmd)
				if err != nil {
					return err
				}
				defer cancel()

				schema, err := c.Assembly().PresetSchema(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, schema)
			},
		},
		newAssemblePresetCmd(),
		newAssembleRunCmd(),
	)
	return assemblyCmd
}

func newSynthonsCmd() *cobra.Command {
	var queriesFile string
	cmd := &cobra.Command{
		Use:   "synthons [smiles...]",
		Short: "Derive the synthons of building blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := readLines(cmd, args, queriesFile)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return errors.NewValidationError("inputs", "at least one building block is required")
			}
			c, ctx, cancel, err := apiClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			sets, err := c.Assembly().Synthons(ctx, inputs)
			if err != nil {
				return err
			}
			return PrintResult(cmd, synthonTable(sets))
		},
	}
	cmd.Flags().StringVar(&queriesFile, "queries-file", "", "file with one SMILES per line (- for stdin)")
	return cmd
}

func newDescribeCmd() *cobra.Command {
	var family string
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Show the assembly schema documentation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := apiClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			desc, err := c.Assembly().Description(ctx, family)
			if err != nil {
				return err
			}
			return printJSON(cmd, desc)
		},
	}
	cmd.Flags().StringVar(&family, "family", client.FamilySynthon, "assembly family (synthon, fragment)")
	return cmd
}

func newAssemblePresetCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "run-preset <2bb|3bb>",
		Short: "Run a preset assembly request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readJSONFile(cmd, file)
			if err != nil {
				return err
			}
			c, ctx, cancel, err := apiClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			results, err := c.Assembly().AssemblePreset(ctx, args[0], req)
			if err != nil {
				return err
			}
			return PrintResult(cmd, assemblyTable(results))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "preset request JSON file (- for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newAssembleRunCmd() *cobra.Command {
	opts := &assemblyRunOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an inline assembly schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := readJSONFile(cmd, opts.file)
			if err != nil {
				return err
			}
			in, err := opts.load(cmd)
			if err != nil {
				return err
			}
			c, ctx, cancel, err := apiClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			results, err := c.Assembly().Assemble(ctx, opts.family, &client.AssembleRequest{
				Schema:         schema,
				InputSchema:    in.InputSchema,
				UnmappedInputs: in.UnmappedInputs,
			})
			if err != nil {
				return err
			}
			return PrintResult(cmd, assemblyTable(results))
		},
	}
	cmd.Flags().StringVar(&opts.family, "family", client.FamilySynthon, "assembly family (synthon, fragment)")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "assembly schema JSON file (- for stdin)")
	opts.bind(cmd)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// NewSchemaCmd manages saved assembly schemas.
func NewSchemaCmd() *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage saved assembly schemas",
	}

	var skip, limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved assembly schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cancel, err := apiClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			schemas, err := c.Assembly().ListSchemas(ctx, &client.ListOptions{Skip: skip, Limit: limit})
			if err != nil {
				return err
			}
			return PrintResult(cmd, schemaTable(schemas))
		},
	}
	listCmd.Flags().IntVar(&skip, "skip", 0, "number of schemas to skip")
	listCmd.Flags().IntVar(&limit, "limit", 0, "maximum number of schemas (server default when 0)")

	runOpts := &assemblyRunOptions{}
	runCmd := &cobra.Command{
		Use:   "run <id>",
		Short: "Assemble a saved schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := runOpts.load(cmd)
			if err != nil {
				return err
			}
			c, ctx, cancel, err := apiClient(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			results, err := c.Assembly().RunSchema(ctx, args[0], in.InputSchema, in.UnmappedInputs)
			if err != nil {
				return err
			}
			return PrintResult(cmd, assemblyTable(results))
		},
	}
	runOpts.bind(runCmd)

	schemaCmd.AddCommand(
		listCmd,
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show a saved assembly schema",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, ctx, cancel, err := apiClient(cmd)
				if err != nil {
					return err
				}
				defer cancel()

				s, err := c.Assembly().GetSchema(ctx, args[0])
				if err != nil {
					return err
				}
				return PrintResult(cmd, schemaTable{*s})
			},
		},
		newSchemaSaveCmd(false),
		newSchemaSaveCmd(true),
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a saved assembly schema",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, ctx, cancel, err := apiClient(cmd)
				if err != nil {
					return err
				}
				defer cancel()

				if err := c.Assembly().DeleteSchema(ctx, args[0]); err != nil {
					return err
				}
				PrintSuccess(cmd, "assembly schema "+args[0]+" deleted")
				return nil
			},
		},
		runCmd,
	)
	return schemaCmd
}

func newSchemaSaveCmd(update bool) *cobra.Command {
	var (
		file, name, family string
		version            int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Save an assembly schema",
		Args:  cobra.NoArgs,
	}
	if update {
		cmd.Use = "update <id>"
		cmd.Short = "Replace a saved assembly schema"
		cmd.Args = cobra.ExactArgs(1)
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		schema, err := readJSONFile(cmd, file)
		if err != nil {
			return err
		}
		c, ctx, cancel, err := apiClient(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		req := &client.SchemaRequest{Name: name, AssemblyType: family, Schema: schema, Version: version}
		var s *client.Schema
		if update {
			s, err = c.Assembly().UpdateSchema(ctx, args[0], req)
		} else {
			s, err = c.Assembly().CreateSchema(ctx, req)
		}
		if err != nil {
			return err
		}
		return PrintResult(cmd, schemaTable{*s})
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "assembly schema JSON file (- for stdin)")
	cmd.Flags().StringVar(&name, "name", "", "schema name")
	cmd.Flags().StringVar(&family, "family", client.FamilySynthon, "assembly family (synthon, fragment)")
	if update {
		cmd.Flags().IntVar(&version, "version", 0, "expected current version; the update fails if it changed")
	}
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// Table renderings
// ─────────────────────────────────────────────────────────────────────────────

type assemblyTable []client.AssemblyResult

func (t assemblyTable) TableHeaders() []string {
	return []string{"#", "PRODUCT", "INPUT"}
}

func (t assemblyTable) TableRows() [][]string {
	rows := make([][]string, len(t))
	for i, r := range t {
		rows[i] = []string{strconv.Itoa(i), r.Result, strconv.FormatBool(r.IsInput)}
	}
	return rows
}

type synthonTable []client.SynthonSet

func (t synthonTable) TableHeaders() []string {
	return []string{"INDEX", "INPUT", "SYNTHON", "REACTIONS"}
}

func (t synthonTable) TableRows() [][]string {
	var rows [][]string
	for _, set := range t {
		if !set.ValidInput || len(set.Synthons) == 0 {
			rows = append(rows, []string{strconv.Itoa(set.Index), set.Input, "-", ""})
			continue
		}
		for _, s := range set.Synthons {
			rows = append(rows, []string{strconv.Itoa(set.Index), set.Input, s.Synthon, strings.Join(s.ReactionTags, ",")})
		}
	}
	return rows
}

type mechanismTable []client.Mechanism

func (t mechanismTable) TableHeaders() []string {
	return []string{"NAME", "DESCRIPTION"}
}

func (t mechanismTable) TableRows() [][]string {
	rows := make([][]string, len(t))
	for i, m := range t {
		rows[i] = []string{m.Name, m.Description}
	}
	return rows
}

type schemaTable []client.Schema

func (t schemaTable) TableHeaders() []string {
	return []string{"ID", "NAME", "FAMILY", "VERSION", "UPDATED"}
}

func (t schemaTable) TableRows() [][]string {
	rows := make([][]string, len(t))
	for i, s := range t {
		rows[i] = []string{s.ID, s.Name, s.AssemblyType, strconv.Itoa(s.Version), formatTime(s.UpdatedAt)}
	}
	return rows
}

//Personal.AI order the ending
