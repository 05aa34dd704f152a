package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kiliankoe/cdrintake/internal/delivery"
	"github.com/kiliankoe/cdrintake/internal/intake"
	"github.com/kiliankoe/cdrintake/internal/store"
	"github.com/kiliankoe/cdrintake/internal/tui"
	"github.com/spf13/cobra"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the intake steps in order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for i, st := range intake.DefaultSteps() {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, st.ID, st.Kind, st.Prompt)
			if len(st.Options) > 0 {
				fmt.Fprintf(w, "\t\t\t%s\n", strings.Join(st.Options, ", "))
			}
		}
		return w.Flush()
	},
}

var countriesCmd = &cobra.Command{
	Use:   "countries [query]",
	Short: "List dialling countries, optionally filtered by name, code or calling code",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := intake.NewDirectory(intake.DefaultDirectory().All(), cfg.DefaultCountry)
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		matches := dir.Filter(query)
		if len(matches) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no countries match %q\n", query)
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, c := range matches {
			mark := ""
			if c.Code == dir.Default().Code {
				mark = "*"
			}
			fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\n", c.Code, mark, c.CallingCode, c.Name, c.ExampleFormat)
		}
		return w.Flush()
	},
}

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill in an enquiry interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer st.Close()

		var opts []delivery.Option
		if cfg.ExportEnabled {
			opts = append(opts, delivery.WithExport(cfg.ExportFile, intake.DefaultSteps()))
		}
		d := delivery.NewDispatcher(st, opts...)

		dir := intake.NewDirectory(intake.DefaultDirectory().All(), cfg.DefaultCountry)
		sm := intake.NewManager(intake.WithDirectory(dir))
		sess := sm.Create()
		defer sm.Close(sess.ID)

		var submitted *intake.Submission
		model := tui.New(sess, sm.Steps(), func(sub intake.Submission) error {
			if err := d.Dispatch(context.Background(), sub); err != nil {
				return err
			}
			submitted = &sub
			return nil
		})
		if _, err := tea.NewProgram(model).Run(); err != nil {
			return fmt.Errorf("run form: %w", err)
		}
		if submitted == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "enquiry not submitted")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored submission %s\n", submitted.ID)
		return nil
	},
}

var submissionsLimit int

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "List stored submissions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is empty, nothing is persisted")
		}
		st, err := store.NewSQLiteStore(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer st.Close()
		subs, err := st.ListSubmissions(cmd.Context(), submissionsLimit)
		if err != nil {
			return err
		}
		return printSubmissions(cmd, subs)
	},
}

func printSubmissions(cmd *cobra.Command, subs []intake.Submission) error {
	if len(subs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no submissions")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUBMITTED\tNAME\tEMAIL\tPHONE\tFIELD")
	for _, sub := range subs {
		a := sub.Answers
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", sub.SubmittedAt.Local().Format("2006-01-02 15:04"), a["name"], a["email"], a["phone"], a["field"])
	}
	return w.Flush()
}
