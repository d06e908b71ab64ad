package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/codec"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/layer"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/loader"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/notify"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/registry"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/scope"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit memento configuration",
		Long: `Inspect and edit memento configuration.

Writes go to the project's .memento/config.yaml, or to ~/.memento/config.yaml
with --global. Values are validated before they are written.

Examples:
  memento config get defaultMode
  memento config set ui.colorOutput false
  memento config set preferredWorkflows '["review","debug"]' --global
  memento config list --resolved --format json
  memento config hierarchy`,
	}

	cmd.AddCommand(
		newGetCommand(a),
		newSetCommand(a),
		newUnsetCommand(a),
		newListCommand(a),
		newValidateCommand(a),
		newFixCommand(a),
		newHierarchyCommand(a),
		newSampleCommand(a),
		newMigrateCommand(a),
		newWatchCommand(a),
		newKeysCommand(a),
	)
	return cmd
}

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Print the effective value of a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			v, ok := r.Get(args[0])
			if !ok {
				return fmt.Errorf("%s is not set", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatValue(v))
			return nil
		},
	}
}

func newSetCommand(a *app) *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Store a setting in the project or global config file",
		Long: `Store a setting in the project or global config file.

JSON literals keep their type: true, 42, ["a","b"]. Anything else is
stored as a string.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			v := codec.ParseScalar(args[1])
			if err := r.Set(args[0], v, global); err != nil {
				return err
			}
			st := newStyles(cmd.OutOrStdout(), r.UI().ColorOutput)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s %s\n",
				st.OK("Set"), st.Key(args[0]), formatValue(v), st.Muted("("+r.StructuredPath(global)+")"))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&global, "global", "g", false, "Write the global config file")
	return cmd
}

func newUnsetCommand(a *app) *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "unset <path>",
		Short: "Remove a setting from the project or global config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			if err := r.Unset(args[0], global); err != nil {
				return err
			}
			st := newStyles(cmd.OutOrStdout(), r.UI().ColorOutput)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
				st.OK("Unset"), st.Key(args[0]), st.Muted("("+r.StructuredPath(global)+")"))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&global, "global", "g", false, "Edit the global config file")
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	var (
		global   bool
		resolved bool
		flat     bool
		format   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print a config file or the merged configuration",
		Long: `Print the project (or --global) config file.

With --resolved the merged configuration of every source is printed instead.
The default format follows ui.outputFormat: json when it is "json", yaml
otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}

			var tree *value.Map
			if resolved {
				tree = r.Load()
			} else {
				tree = r.List(global)
			}

			out := cmd.OutOrStdout()
			if flat {
				st := newStyles(out, r.UI().ColorOutput)
				for _, path := range value.Flatten(tree) {
					v, _ := value.Get(tree, path)
					fmt.Fprintf(out, "%s = %s\n", st.Key(path), encodeValue(v))
				}
				return nil
			}

			f := codec.FormatYAML
			if cmd.Flags().Changed("format") {
				if f, err = codec.ParseFormat(format); err != nil {
					return err
				}
			} else if r.UI().OutputFormat == "json" {
				f = codec.FormatJSON
			}

			raw, err := codec.Serialize(tree, f)
			if err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}
			_, err = out.Write(raw)
			return err
		},
	}
	cmd.Flags().BoolVarP(&global, "global", "g", false, "List the global config file")
	cmd.Flags().BoolVar(&resolved, "resolved", false, "List the merged configuration")
	cmd.Flags().BoolVar(&flat, "flat", false, "Print one path = value line per setting")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml|json|toml)")
	return cmd
}

func newValidateCommand(a *app) *cobra.Command {
	var global, strict bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a config file against the known settings",
		Long: `Check the project (or --global) config file against the known settings.

Unknown top-level keys are reported as warnings, or as errors with --strict.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open(config.WithStrictValidation(strict))
			if err != nil {
				return err
			}
			res := r.ValidateFile(global)

			out := cmd.OutOrStdout()
			st := newStyles(out, r.UI().ColorOutput)
			for _, msg := range res.Errors {
				fmt.Fprintf(out, "%s %s\n", st.Bad("error:"), msg)
			}
			for _, msg := range res.Warnings {
				fmt.Fprintf(out, "%s %s\n", st.Warn("warning:"), msg)
			}
			if !res.Valid {
				return fmt.Errorf("%s configuration is invalid", scope.FromGlobal(global))
			}
			fmt.Fprintf(out, "%s %s\n", st.OK("valid"), st.Muted(r.StructuredPath(global)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&global, "global", "g", false, "Validate the global config file")
	cmd.Flags().BoolVar(&strict, "strict", false, "Treat unknown keys as errors")
	return cmd
}

func newFixCommand(a *app) *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Repair invalid values in a config file",
		Long: `Repair the project (or --global) config file.

Invalid values are replaced by their defaults or removed. A missing file is
created with the defaults. Files that do not parse are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			path := r.StructuredPath(global)
			st := newStyles(cmd.OutOrStdout(), r.UI().ColorOutput)
			changed, err := r.Repair(global)
			if err != nil {
				return fmt.Errorf("could not fix %s: %w", path, err)
			}
			if changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", st.OK("Fixed"), path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Nothing to fix in %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&global, "global", "g", false, "Fix the global config file")
	return cmd
}

func newHierarchyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hierarchy",
		Short: "Show every configuration source and which one supplies each value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			printHierarchy(cmd.OutOrStdout(), r.Hierarchy(), newStyles(cmd.OutOrStdout(), r.UI().ColorOutput))
			return nil
		},
	}
}

func printHierarchy(out io.Writer, h config.HierarchyReport, st styles) {
	fmt.Fprintln(out, st.Header("Sources (lowest to highest precedence)"))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, src := range h.Sources {
		location := src.Path
		switch src.Source {
		case layer.SourceDefaults:
			location = "built-in"
		case layer.SourceEnv:
			location = loader.EnvPrefix + "*"
		}
		fmt.Fprintf(w, "  %d.\t%s\t%s\t%s\n", i+1, src.Name, location, sourceStatus(src, len(h.Env), st))
	}
	w.Flush()

	if len(h.Env) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, st.Header("Environment"))
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, e := range h.Env {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", e.Var, st.Key(e.Path), encodeValue(e.Value))
		}
		w.Flush()
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, st.Header("Effective values"))
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, path := range value.Flatten(h.Merged) {
		v, _ := value.Get(h.Merged, path)
		fmt.Fprintf(w, "  %s\t%s\t%s\n", st.Key(path), encodeValue(v), st.Muted(h.Attribution[path].String()))
	}
	w.Flush()
}

func sourceStatus(src config.SourceReport, envCount int, st styles) string {
	switch {
	case src.Source == layer.SourceEnv:
		if envCount == 0 {
			return st.Muted("none set")
		}
		return st.OK(fmt.Sprintf("%d set", envCount))
	case src.Err != nil:
		return st.Bad("skipped: " + src.Err.Error())
	case src.Loaded:
		return st.OK("loaded")
	default:
		return st.Muted("missing")
	}
}

func newSampleCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print a commented config file with every known setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := codec.ParseFormat(format)
			if err != nil {
				return err
			}
			text, err := config.Sample(f)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml|json)")
	return cmd
}

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Convert legacy .memento/config.json files to YAML",
		Long: `Convert legacy .memento/config.json files of both scopes to YAML.

Migration also runs before every other config command; this command reports
what was done. The legacy file is kept as config.json.backup-<millis>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			st := newStyles(out, r.UI().ColorOutput)
			var failed error
			for _, res := range a.migrated {
				switch {
				case res.Err != nil:
					fmt.Fprintf(out, "%s %s: %v\n", st.Bad("failed"), res.Scope, res.Err)
					failed = res.Err
				case res.Migrated:
					fmt.Fprintf(out, "%s %s: %s -> %s %s\n", st.OK("migrated"), res.Scope, res.Legacy, res.Target,
						st.Muted("(backup "+res.Backup+")"))
				default:
					fmt.Fprintf(out, "%s: nothing to migrate\n", res.Scope)
				}
			}
			return failed
		},
	}
}

func newWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print configuration changes as source files are edited",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			st := newStyles(out, r.UI().ColorOutput)
			sub := r.Subscribe(func(c notify.Change) {
				fmt.Fprintln(out, formatChange(c, st))
			})
			defer sub.Unsubscribe()

			fmt.Fprintf(out, "Watching %d configuration files. Press Ctrl+C to stop.\n", len(r.SourcePaths()))
			return r.Watch(ctx)
		},
	}
}

func formatChange(c notify.Change, st styles) string {
	switch c.Type {
	case notify.ChangeAdded:
		return fmt.Sprintf("%s %s = %s", st.OK("+"), st.Key(c.Path), encodeValue(c.New))
	case notify.ChangeRemoved:
		return fmt.Sprintf("%s %s", st.Bad("-"), st.Key(c.Path))
	case notify.ChangeModified:
		return fmt.Sprintf("%s %s: %s -> %s", st.Warn("~"), st.Key(c.Path), encodeValue(c.Old), encodeValue(c.New))
	default:
		return st.Muted("reloaded after change to " + c.Source)
	}
}

func newKeysCommand(a *app) *cobra.Command {
	var tag string
	cmd := &cobra.Command{
		Use:   "keys [query]",
		Short: "List the known settings",
		Long: `List the known settings with their type, default and environment variable.

A query filters by path, description, environment variable or tag.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}

			reg := registry.NewWithDefaults()
			var settings []*registry.Setting
			switch {
			case tag != "":
				settings = reg.ByTag(tag)
			case len(args) == 1:
				settings = reg.Search(args[0])
			default:
				settings = reg.All()
			}
			if len(settings) == 0 {
				return fmt.Errorf("no settings match %q", strings.TrimSpace(strings.Join(append(args, tag), " ")))
			}

			out := cmd.OutOrStdout()
			st := newStyles(out, r.UI().ColorOutput)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tTYPE\tDEFAULT\tENV\tDESCRIPTION")
			for _, s := range settings {
				typ := s.Type.String()
				if len(s.Enum) > 0 {
					typ = strings.Join(s.Enum, "|")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", st.Key(s.Path), typ, orDash(s.Default), orDash(s.Env), s.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Only list settings with this tag")
	return cmd
}

// formatValue prints strings bare and everything else as JSON.
func formatValue(v value.Value) string {
	if s, ok := v.AsString(); ok {
		return s
	}
	return encodeValue(v)
}

func encodeValue(v value.Value) string {
	out, err := codec.EncodeValue(v)
	if err != nil {
		return v.String()
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
