package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fastygo/tasks/client"
	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/internal/config"
)

var listFlags struct {
	baseURL   string
	priority  string
	category  string
	completed string
	search    string
	sortBy    string
	sortOrder string
	page      int
	limit     int
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Query a running server and print one page of tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile(envFile)
		if err != nil {
			return err
		}
		baseURL := listFlags.baseURL
		if baseURL == "" {
			baseURL = cfg.Client.BaseURL
		}

		params := domain.QueryParams{
			Filters: domain.Filters{
				Priority:  domain.Priority(listFlags.priority),
				Category:  listFlags.category,
				Completed: listFlags.completed,
				Search:    listFlags.search,
			},
			SortBy:    domain.SortField(listFlags.sortBy),
			SortOrder: domain.SortOrder(listFlags.sortOrder),
			Page:      listFlags.page,
			Limit:     listFlags.limit,
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Client.Timeout)
		defer cancel()

		api := client.New(baseURL, client.WithTimeout(cfg.Client.Timeout))
		page, err := api.ListTasks(ctx, params)
		if err != nil {
			return err
		}
		return printPage(cmd.OutOrStdout(), page)
	},
}

func init() {
	f := listCmd.Flags()
	f.StringVar(&listFlags.baseURL, "url", "", "API base URL (defaults to API_BASE_URL)")
	f.StringVar(&listFlags.priority, "priority", "", "filter by priority")
	f.StringVar(&listFlags.category, "category", "", "filter by category")
	f.StringVar(&listFlags.completed, "completed", "", "filter by completion: true or false")
	f.StringVar(&listFlags.search, "search", "", "case-sensitive search term")
	f.StringVar(&listFlags.sortBy, "sort-by", "", "title, priority or due_date")
	f.StringVar(&listFlags.sortOrder, "sort-order", "", "asc or desc")
	f.IntVar(&listFlags.page, "page", 0, "page number")
	f.IntVar(&listFlags.limit, "limit", 0, "page size")
	rootCmd.AddCommand(listCmd)
}

func printPage(w io.Writer, page domain.Page) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRIORITY\tCATEGORY\tDONE\tDUE")
	for _, t := range page.Data {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\n", t.ID, t.Title, t.Priority, t.Category, t.Completed, due)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	p := page.Pagination
	nav := []string{fmt.Sprintf("page %d/%d", p.CurrentPage, p.TotalPages), fmt.Sprintf("%d items", p.TotalItems)}
	if p.HasPreviousPage {
		nav = append(nav, "has previous")
	}
	if p.HasNextPage {
		nav = append(nav, "has next")
	}
	_, err := fmt.Fprintln(w, strings.Join(nav, " · "))
	return err
}
