package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/admin-console/internal/listsync"
	"github.com/noah-isme/admin-console/internal/service"
	"github.com/noah-isme/admin-console/pkg/listclient"
)

type listOptions struct {
	status  string
	search  string
	role    string
	preset  string
	start   string
	end     string
	pages   int
	perPage int
	json    bool
}

type listResult struct {
	Screen        string               `json:"screen"`
	HeadlineTotal int                  `json:"headline_total"`
	Paging        listsync.PagingState `json:"paging"`
	Applied       listsync.FilterState `json:"applied_filter"`
	Headers       []string             `json:"headers"`
	Rows          []map[string]string  `json:"rows"`
	Notifications []string             `json:"notifications,omitempty"`
}

func newListCmd(app *App) *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list <screen>",
		Short: "Fetch a screen, apply one filter and load extra pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := runList(cmd.Context(), app, args[0], opts)
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd, app, result)
			}
			return writeTable(cmd, result)
		},
	}
	cmd.Flags().StringVar(&opts.status, "status", "", "Status filter")
	cmd.Flags().StringVar(&opts.search, "search", "", "Search term")
	cmd.Flags().StringVar(&opts.role, "role", "", "Role filter")
	cmd.Flags().StringVar(&opts.preset, "preset", "", "Date preset (today|week|month|custom)")
	cmd.Flags().StringVar(&opts.start, "start", "", "Custom range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.end, "end", "", "Custom range end (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.pages, "pages", 0, "Extra pages to load after the first")
	cmd.Flags().IntVar(&opts.perPage, "per-page", 0, "Page size (default: LIST_PER_PAGE)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Emit JSON instead of a table")
	cmd.MarkFlagsMutuallyExclusive("status", "search", "role", "preset")
	return cmd
}

func runList(ctx context.Context, app *App, name string, opts *listOptions) (*listResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(app.BaseURL) == "" {
		return nil, errors.New("remote base URL is required (--base-url or REMOTE_BASE_URL)")
	}
	client := listclient.New(listclient.Config{BaseURL: app.BaseURL, Token: app.Token, Timeout: app.Timeout, Logger: app.logger})
	catalog := service.DefaultCatalog(client)
	spec, ok := catalog.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown screen %q (known: %s)", name, strings.Join(catalog.Names(), ", "))
	}

	perPage := opts.perPage
	location := time.Local
	if app.cfg != nil {
		if perPage <= 0 {
			perPage = app.cfg.List.PerPage
		}
		location = app.cfg.Location()
	}
	screen := spec.Build(listsync.Options{Resource: spec.Name, PerPage: perPage, Location: location, Logger: app.logger})
	defer screen.Close()

	result := &listResult{Screen: spec.Name}
	note := func(err error) error {
		var opErr *listsync.OperationError
		if errors.As(err, &opErr) {
			result.Notifications = append(result.Notifications, opErr.Notification.Message)
			return nil
		}
		return err
	}

	if err := note(screen.Mount(ctx)); err != nil {
		return nil, err
	}
	if err := note(applyFilter(ctx, screen, opts, location)); err != nil {
		return nil, err
	}
	for i := 0; i < opts.pages && screen.State().Paging.HasMore; i++ {
		if err := note(screen.LoadMore(ctx)); err != nil {
			return nil, err
		}
	}

	state := screen.State()
	result.HeadlineTotal = state.HeadlineTotal
	result.Paging = state.Paging
	result.Applied = state.Applied
	result.Headers, result.Rows = screen.Dataset()
	return result, nil
}

func applyFilter(ctx context.Context, screen listsync.Screen, opts *listOptions, location *time.Location) error {
	switch {
	case opts.status != "":
		return screen.ApplyStatusFilter(ctx, opts.status)
	case opts.search != "":
		return screen.ApplySearch(ctx, opts.search)
	case opts.role != "":
		return screen.ApplyRoleFilter(ctx, opts.role)
	case opts.preset != "":
		start, err := parseDay(opts.start, location)
		if err != nil {
			return err
		}
		end, err := parseDay(opts.end, location)
		if err != nil {
			return err
		}
		return screen.ApplyDateRangeFilter(ctx, listsync.DatePreset(opts.preset), start, end)
	}
	return nil
}

func parseDay(raw string, location *time.Location) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, location)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return &day, nil
}

func writeTable(cmd *cobra.Command, result *listResult) error {
	out := cmd.OutOrStdout()
	for _, msg := range result.Notifications {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", msg)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(result.Headers, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(result.Headers))
		for i, header := range result.Headers {
			cells[i] = row[header]
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	more := ""
	if result.Paging.HasMore {
		more = ", more available"
	}
	_, err := fmt.Fprintf(out, "\n%d of %d %s%s\n", len(result.Rows), result.HeadlineTotal, result.Screen, more)
	return err
}
