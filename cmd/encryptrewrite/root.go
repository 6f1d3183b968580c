package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ai8future/encryptrewrite"
	"github.com/ai8future/encryptrewrite/pgsql"
)

var errNoConfig = errors.New("--config is required")

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "encryptrewrite",
		Short: "Rewrite SQL predicates on encrypted columns",
		Long: `Rewrite WHERE predicates that reference encrypted columns so they target the
physical cipher, plain or assisted query column configured in an encrypt rule.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to the encrypt rule YAML file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log rewrite decisions to stderr")

	cmd.AddCommand(newRewriteCmd(opts))
	cmd.AddCommand(newTokensCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))
	return cmd
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *rootOptions) loadRule() (*encryptrewrite.EncryptRule, error) {
	if o.configPath == "" {
		return nil, errNoConfig
	}
	rule, err := encryptrewrite.LoadEncryptRule(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load rule %s: %w", o.configPath, err)
	}
	return rule, nil
}

func (o *rootOptions) engine(cmd *cobra.Command, queryWithCipherColumn *bool) (*pgsql.Engine, error) {
	rule, err := o.loadRule()
	if err != nil {
		return nil, err
	}
	engineOpts := []pgsql.Option{pgsql.WithLogger(o.logger(cmd.ErrOrStderr()))}
	if queryWithCipherColumn != nil {
		engineOpts = append(engineOpts, pgsql.WithRewriteOptions(encryptrewrite.WithQueryWithCipherColumn(*queryWithCipherColumn)))
	}
	return pgsql.NewEngine(rule, engineOpts...), nil
}

func newRewriteCmd(opts *rootOptions) *cobra.Command {
	var queryWithCipherColumn bool

	cmd := &cobra.Command{
		Use:   "rewrite [sql...]",
		Short: "Rewrite SQL statements",
		Long: `Rewrite each SQL argument and print one result per line.
Without arguments, statements are read from stdin, one per line.`,
		Example: `  # Rewrite a single statement
  encryptrewrite rewrite -c encrypt.yaml "SELECT * FROM t_user WHERE ssn = $1"

  # Prefer plain columns where they exist
  encryptrewrite rewrite -c encrypt.yaml --query-with-cipher-column=false < queries.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var policy *bool
			if cmd.Flags().Changed("query-with-cipher-column") {
				policy = &queryWithCipherColumn
			}
			engine, err := opts.engine(cmd, policy)
			if err != nil {
				return err
			}

			sqls := args
			if len(sqls) == 0 {
				if sqls, err = readLines(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			out, err := engine.RewriteBatch(cmd.Context(), sqls)
			if err != nil {
				return err
			}
			for _, sql := range out {
				fmt.Fprintln(cmd.OutOrStdout(), sql)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&queryWithCipherColumn, "query-with-cipher-column", true,
		"Query the cipher column; when false, plain columns are used where configured")
	return cmd
}

func newTokensCmd(opts *rootOptions) *cobra.Command {
	var queryWithCipherColumn bool

	cmd := &cobra.Command{
		Use:   "tokens <sql>",
		Short: "Print the substitution tokens for a SQL statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var policy *bool
			if cmd.Flags().Changed("query-with-cipher-column") {
				policy = &queryWithCipherColumn
			}
			engine, err := opts.engine(cmd, policy)
			if err != nil {
				return err
			}
			tokens, err := engine.Tokens(args[0])
			if err != nil {
				return err
			}
			for _, t := range tokens {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d\t%s\n", t.StartIndex(), t.StopIndex(), t.Text())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&queryWithCipherColumn, "query-with-cipher-column", true,
		"Query the cipher column; when false, plain columns are used where configured")
	return cmd
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate an encrypt rule file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := opts.loadRule()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "query_with_cipher_column: %t\n", rule.QueryWithCipherColumn())
			for _, name := range rule.TableNames() {
				table, _ := rule.FindEncryptTable(name)
				fmt.Fprintf(w, "%s: %s\n", name, strings.Join(table.LogicColumns(), ", "))
			}
			return nil
		},
	}
}

// readLines returns the non-blank lines of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return lines, nil
}
