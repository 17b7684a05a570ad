package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tendant/edu-content/pkg/educontent"
	"github.com/tendant/edu-content/pkg/educontent/export"
)

// ServiceFactory builds the services a command runs against and a func releasing them
type ServiceFactory func(ctx context.Context) (*educontent.Service, func() error, error)

func NewRootCommand(factory ServiceFactory, out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "admin",
		Short: "edu-content admin CLI",
		Long: `Administrative commands for applications and stories.

Configuration is read from the same environment variables as the server.
A .env file in the current directory is loaded when present.`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)

	rootCmd.AddCommand(newApplicationsCommand(factory))
	rootCmd.AddCommand(newStoriesCommand(factory))
	return rootCmd
}

func withService(cmd *cobra.Command, factory ServiceFactory, run func(ctx context.Context, svc *educontent.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, closeFn, err := factory(ctx)
	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}
	defer func() { _ = closeFn() }()
	return run(ctx, svc)
}

func newApplicationsCommand(factory ServiceFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "applications",
		Short: "Inspect and export student applications",
	}
	cmd.AddCommand(newApplicationsListCommand(factory))
	cmd.AddCommand(newApplicationsExportCommand(factory))
	return cmd
}

func newApplicationsListCommand(factory ServiceFactory) *cobra.Command {
	var status string
	var limit, offset int
	var useJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, factory, func(ctx context.Context, svc *educontent.Service) error {
				res, err := svc.Applications.List(ctx, educontent.ListApplicationsRequest{
					Page:   educontent.Page{Limit: limit, Offset: offset},
					Status: status,
				})
				if err != nil {
					return err
				}

				if useJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(map[string]any{"documents": res.Items, "total": res.Total})
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tEMAIL\tDESTINATIONS\tSTATUS\tCREATED")
				for _, app := range res.Items {
					dests := make([]string, len(app.StudyDestinations))
					for i, d := range app.StudyDestinations {
						dests[i] = string(d)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						app.ID, app.FullName, app.Email, strings.Join(dests, ", "), app.Status,
						app.CreatedAt.Format(educontent.DateLayout))
				}
				fmt.Fprintf(w, "\n%d of %d\n", len(res.Items), res.Total)
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, responded)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results (default 50, max 100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Pagination offset")
	cmd.Flags().BoolVar(&useJSON, "json", false, "Output as JSON")
	return cmd
}

func newApplicationsExportCommand(factory ServiceFactory) *cobra.Command {
	var status, search, sortBy, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export applications as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			by, err := export.ParseSort(sortBy)
			if err != nil {
				return err
			}
			return withService(cmd, factory, func(ctx context.Context, svc *educontent.Service) error {
				apps, err := allApplications(ctx, svc)
				if err != nil {
					return err
				}
				data, err := export.Apply(apps, export.Criteria{Search: search, Status: status}, by)
				if err != nil {
					return err
				}

				if outPath == "" || outPath == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(outPath, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outPath, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", outPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only export applications with this status")
	cmd.Flags().StringVar(&search, "search", "", "Match name, email, phone number or destination")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort as field[:asc|desc] (createdAt, fullName, status)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	return cmd
}

// allApplications pages through the whole collection
func allApplications(ctx context.Context, svc *educontent.Service) ([]educontent.Application, error) {
	var apps []educontent.Application
	page := educontent.Page{Limit: 100}
	for {
		res, err := svc.Applications.List(ctx, educontent.ListApplicationsRequest{Page: page})
		if err != nil {
			return nil, err
		}
		for _, app := range res.Items {
			apps = append(apps, *app)
		}
		page.Offset += len(res.Items)
		if len(res.Items) == 0 || page.Offset >= res.Total {
			return apps, nil
		}
	}
}

func newStoriesCommand(factory ServiceFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stories",
		Short: "Moderate student stories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "approve <story-id>",
		Short: "Approve a pending story so it appears on the site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, factory, func(ctx context.Context, svc *educontent.Service) error {
				st, err := svc.Stories.Moderate(ctx, args[0], string(educontent.StoryStatusApproved))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Story %s by %s is %s\n", st.ID, st.Name, st.Status)
				return nil
			})
		},
	})
	return cmd
}
