package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dgallion1/wordspira/internal/parser"
	"github.com/dgallion1/wordspira/internal/pipeline"
	"github.com/dgallion1/wordspira/internal/stylemap"
)

func loginCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check Spira credentials and list the visible projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := signalContext()
			defer cancel()
			projects, err := client.Projects(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, p := range projects {
				fmt.Fprintf(tw, "%d\t%s\n", p.ProjectID, p.Name)
			}
			return tw.Flush()
		},
	}
}

func stylesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "styles FILE",
		Short: "Show the styles used in a document and the current mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := opts.artifactKind()
			if err != nil {
				return err
			}
			path := args[0]
			ext, err := parser.ForFile(path)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			sel, err := ext.Extract(bytes.NewReader(data), filepath.Base(path), opts.selection())
			if err != nil {
				return err
			}
			store, err := opts.store(path)
			if err != nil {
				return err
			}
			m := stylemap.Resolve(store, kind)
			if err := store.Save(); err != nil {
				return err
			}

			used := parser.UsedStyles(sel.Lines)
			candidates := stylemap.Candidates(kind, used)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Used styles: %s\n\n", strings.Join(used, ", "))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ROLE\tSTYLE\tOPTIONS")
			for i, r := range m.Roles {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, r, strings.Join(head(candidates[i], 8), ", "))
			}
			return tw.Flush()
		},
	}
}

func head(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return append(s[:n:n], "...")
}

func mapCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "map FILE ROLE1 ROLE2 ROLE3 ROLE4 ROLE5",
		Short: "Save the style of each role for a document",
		Args:  cobra.ExactArgs(1 + stylemap.RoleCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := opts.artifactKind()
			if err != nil {
				return err
			}
			store, err := opts.store(args[0])
			if err != nil {
				return err
			}
			m, err := stylemap.Confirm(store, kind, args[1:])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s mapping to %s: %s\n", kind.Name(), store.Path(), strings.Join(m.Roles[:], ", "))
			return nil
		},
	}
}

func pushCmd(opts *options) *cobra.Command {
	var projectID int
	cmd := &cobra.Command{
		Use:   "push FILE",
		Short: "Assemble a document and create its artifacts in Spira",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID <= 0 {
				return fmt.Errorf("--project is required")
			}
			plan, err := opts.plan(args[0])
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()
			if plan.Suite != nil {
				for _, issue := range plan.Suite.Issues {
					fmt.Fprintf(errOut, "warning: %s: %s\n", issue.TestCase, issue.Reason)
				}
			}

			pusher := pipeline.NewPusher(client, projectID, opts.cfg.SpiraRequirementTypeID, opts.logger())
			pusher.OnProgress = func(current, total int) {
				fmt.Fprintf(errOut, "\r%d/%d", current, total)
			}
			pusher.OnFailure = func(err *pipeline.ArtifactError) {
				fmt.Fprintf(errOut, "\n%s\n", err.Error())
			}

			ctx, cancel := signalContext()
			defer cancel()
			var rep pipeline.Report
			if plan.Suite != nil {
				rep = pusher.PushTestCases(ctx, plan.Suite)
			} else {
				rep = pusher.PushRequirements(ctx, plan.Requirements)
			}
			fmt.Fprintln(errOut)

			for _, r := range rep.Results {
				if r.Err == nil {
					fmt.Fprintf(out, "%s\t%d\t%s\n", r.Kind, r.ID, r.Name)
				}
			}
			if rep.Err != nil {
				return fmt.Errorf("%d of %d %s failed", rep.Failed(), plan.Total(), plan.Kind.Name())
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&projectID, "project", "p", opts.cfg.SpiraProjectID, "Spira project ID (SPIRA_PROJECT_ID)")
	return cmd
}
