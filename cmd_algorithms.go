package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/session"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List algorithms",
	Long: `Lists the algorithms of the service. Downloaded algorithms come first
and are marked with *. Offline only downloaded algorithms are listed.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var detailsCmd = &cobra.Command{
	Use:   "details [name]",
	Short: "Show an algorithm's parameters and outputs",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetails,
}

var downloadCmd = &cobra.Command{
	Use:   "download [name]",
	Short: "Download an algorithm for offline use",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, args[0], (*session.DetailsSession).Download)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a downloaded algorithm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, args[0], (*session.DetailsSession).Delete)
	},
}

var runCmd = &cobra.Command{
	Use:   "run [name] [param=value ...]",
	Short: "Run an algorithm",
	Long: `Runs an algorithm with one param=value argument per parameter.

Values are typed by the parameter declaration: lists are comma separated and
matrices separate rows with ';'.

Example:
  algolab run sum xs=1,2,3 scale=0.5
  algolab run det m="1,2;3,4"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

// withApp builds the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(context.Background()); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, a)
}

func runList(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		ls := session.NewList(a.lists, nil)
		defer ls.Close()
		ls.Refresh(ctx)
		ls.Wait()

		st := ls.State()
		if st.ErrorMessage != "" {
			return errors.New(st.ErrorMessage)
		}
		printAlgorithms(cmd.OutOrStdout(), st.Algorithms)
		return nil
	})
}

func printAlgorithms(w io.Writer, algorithms []models.Algorithm) {
	if len(algorithms) == 0 {
		fmt.Fprintln(w, "No algorithms.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, a := range algorithms {
		mark := " "
		if a.IsDownloaded {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%s\n", mark, a.Name, a.Title)
	}
	tw.Flush()
}

func runDetails(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		ds := a.openDetails(args[0], nil)
		defer ds.Close()
		ds.Load(ctx)
		ds.Wait()

		st := ds.State()
		if st.ErrorMessage != "" {
			return errors.New(st.ErrorMessage)
		}
		printDetails(cmd.OutOrStdout(), st)
		return nil
	})
}

func printDetails(w io.Writer, st session.DetailsState) {
	d := st.Details
	fmt.Fprintf(w, "%s (%s)\n", d.Title, d.Name)
	if st.IsDownloaded {
		fmt.Fprintln(w, "downloaded")
	}
	if d.Description != "" {
		fmt.Fprintf(w, "\n%s\n", d.Description)
	}
	printElements(w, "Parameters", d.Parameters, true)
	printElements(w, "Outputs", d.Outputs, false)
}

func printElements(w io.Writer, heading string, elements []models.DataElement, defaults bool) {
	if len(elements) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", heading)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range elements {
		line := fmt.Sprintf("  %s\t%s %s\t%s", e.Name, e.DataShape, e.DataType, e.Title)
		if defaults && e.DefaultValue.IsSet() {
			line += "\t(default " + e.DefaultValue.Text() + ")"
		}
		fmt.Fprintln(tw, line)
	}
	tw.Flush()
}

func runAction(cmd *cobra.Command, name string, op func(*session.DetailsSession, context.Context)) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		var msgs []string
		ds := a.openDetails(name, func(msg string) { msgs = append(msgs, msg) })
		defer ds.Close()
		op(ds, ctx)
		ds.Wait()

		text := strings.Join(msgs, "\n")
		if !ds.State().Changed {
			return errors.New(text)
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	})
}

func runRun(cmd *cobra.Command, args []string) error {
	inputs, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		var msgs []string
		ds := a.openDetails(args[0], func(msg string) { msgs = append(msgs, msg) })
		defer ds.Close()

		ds.Load(ctx)
		ds.Wait()
		if msg := ds.State().ErrorMessage; msg != "" {
			return errors.New(msg)
		}

		if err := ds.Execute(ctx, inputs); err != nil {
			return err
		}
		ds.Wait()
		if len(msgs) > 0 {
			return errors.New(strings.Join(msgs, "\n"))
		}

		w := cmd.OutOrStdout()
		for _, o := range ds.State().Details.Outputs {
			if o.Value.IsSet() {
				fmt.Fprintf(w, "%s = %s\n", o.Name, o.Value.Text())
			}
		}
		return nil
	})
}

// parseAssignments turns param=value arguments into a map. A value may
// itself contain '='.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		name, val, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid argument %q: want param=value", arg)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("parameter %q given twice", name)
		}
		out[name] = val
	}
	return out, nil
}
