package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/fastygo/tasks/client"
	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/internal/config"
)

var browseURL string

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Interactively search and page through tasks",
	Long: `Each input line replaces the search text and is committed after the debounce delay.
Commands:
  :sort <title|priority|due_date> [asc|desc]
  :filter <priority|category|completed> <value>   (empty value clears)
  :page <n>
  :quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile(envFile)
		if err != nil {
			return err
		}
		baseURL := browseURL
		if baseURL == "" {
			baseURL = cfg.Client.BaseURL
		}

		out := &syncWriter{w: cmd.OutOrStdout()}
		coord := client.NewCoordinator(
			client.New(baseURL, client.WithTimeout(cfg.Client.Timeout)),
			client.WithDebounce(cfg.Client.Debounce),
			client.WithOnChange(func(s client.State) { out.render(s) }),
		)
		defer coord.Close()

		coord.Refresh()
		return browseLoop(cmd.InOrStdin(), coord)
	},
}

func init() {
	browseCmd.Flags().StringVar(&browseURL, "url", "", "API base URL (defaults to API_BASE_URL)")
	rootCmd.AddCommand(browseCmd)
}

func browseLoop(in io.Reader, coord *client.Coordinator) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, ":") {
			coord.Type(line)
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case ":quit", ":q":
			return nil
		case ":page":
			if len(fields) == 2 {
				if n, err := strconv.Atoi(fields[1]); err == nil {
					coord.SetPage(n)
				}
			}
		case ":sort":
			if len(fields) >= 2 {
				order := domain.SortAsc
				if len(fields) == 3 {
					order = domain.SortOrder(strings.ToLower(fields[2]))
				}
				coord.SetSort(domain.SortField(fields[1]), order)
			}
		case ":filter":
			if len(fields) >= 2 {
				value := ""
				if len(fields) == 3 {
					value = fields[2]
				}
				f := coord.State().Filters
				switch fields[1] {
				case "priority":
					f.Priority = domain.Priority(value)
				case "category":
					f.Category = value
				case "completed":
					f.Completed = value
				}
				coord.SetFilters(f)
			}
		}
	}
	return scanner.Err()
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) render(state client.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case state.Loading:
		fmt.Fprintf(s.w, "searching %q ...\n", state.Search)
	case state.Err != nil:
		fmt.Fprintf(s.w, "error: %v\n", state.Err)
	default:
		_ = printPage(s.w, state.Result)
	}
}
