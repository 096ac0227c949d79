package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tOgg1/trainwatch/internal/data"
	"github.com/tOgg1/trainwatch/internal/listview"
	"github.com/tOgg1/trainwatch/internal/models"
)

type listOptions struct {
	sort     string
	desc     bool
	page     int
	pageSize int
	json     bool
}

func (o *listOptions) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.sort, "sort", "", "sort by column")
	flags.BoolVar(&o.desc, "desc", false, "sort descending")
	flags.IntVar(&o.page, "page", 1, "page to print (clamped)")
	flags.IntVar(&o.pageSize, "page-size", 0, "rows per page (default: dashboard.page_size)")
	flags.BoolVar(&o.json, "json", false, "output as JSON")
}

// catalog describes how one record type is listed.
type catalog[T any, K ~string] struct {
	columns []K
	fields  map[K]listview.Field[T]
	title   func(K) string
	cell    func(T, K) string
	load    func(context.Context, data.Provider) ([]T, error)
}

func (c catalog[T, K]) sortable() []string {
	out := make([]string, 0, len(c.fields))
	for _, col := range c.columns {
		if _, ok := c.fields[col]; ok {
			out = append(out, string(col))
		}
	}
	return out
}

var jobCatalog = catalog[models.Job, models.JobColumn]{
	columns: models.JobColumns,
	fields:  models.JobSortFields(),
	title:   models.JobColumn.Title,
	cell:    models.Job.Cell,
	load:    func(ctx context.Context, p data.Provider) ([]models.Job, error) { return p.Jobs(ctx) },
}

var reservationCatalog = catalog[models.Reservation, models.ReservationColumn]{
	columns: models.ReservationColumns,
	fields:  models.ReservationSortFields(),
	title:   models.ReservationColumn.Title,
	cell:    models.Reservation.Cell,
	load: func(ctx context.Context, p data.Provider) ([]models.Reservation, error) {
		return p.Reservations(ctx)
	},
}

func newJobsCmd(a *app) *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job"},
		Short:   "List training jobs",
		Example: "  trainwatch jobs --sort loss --desc\n  trainwatch jobs --page 2 --page-size 5",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, a, opts, jobCatalog)
		},
	}
	opts.bind(cmd)
	return cmd
}

func newReservationsCmd(a *app) *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:     "reservations",
		Aliases: []string{"res"},
		Short:   "List GPU reservations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, a, opts, reservationCatalog)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runList[T any, K ~string](cmd *cobra.Command, a *app, opts *listOptions, c catalog[T, K]) error {
	ctx := cmd.Context()
	provider, err := a.provider(ctx)
	if err != nil {
		return err
	}
	defer provider.Close()

	items, err := c.load(ctx, provider)
	if err != nil {
		return err
	}

	pageSize := opts.pageSize
	if pageSize <= 0 {
		pageSize = a.cfg.Dashboard.PageSize
	}
	list := listview.New(pageSize, c.fields)
	list.SetSource(items)
	if opts.sort != "" {
		col := K(opts.sort)
		if !list.SortBy(col) {
			return unknownError("column", opts.sort, c.sortable())
		}
		if opts.desc {
			list.SortBy(col)
		}
	}
	list.GoToPage(opts.page)
	view := list.View()

	out := cmd.OutOrStdout()
	if opts.json {
		return writeJSON(out, view)
	}
	return writePage(out, view, c)
}

type pageJSON[T any] struct {
	Items      []T    `json:"items"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
	Total      int    `json:"total"`
	SortColumn string `json:"sort_column,omitempty"`
	SortDir    string `json:"sort_direction,omitempty"`
}

func writeJSON[T any, K ~string](out io.Writer, view listview.View[T, K]) error {
	payload := pageJSON[T]{
		Items:      view.Items,
		Page:       view.CurrentPage,
		TotalPages: view.TotalPages,
		Total:      view.Total,
	}
	if payload.Items == nil {
		payload.Items = []T{}
	}
	if view.Sort.Active {
		payload.SortColumn = string(view.Sort.Column)
		payload.SortDir = view.Sort.Direction.String()
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writePage[T any, K ~string](out io.Writer, view listview.View[T, K], c catalog[T, K]) error {
	headers := make([]string, len(c.columns))
	for i, col := range c.columns {
		headers[i] = c.title(col)
		if view.Sort.Active && view.Sort.Column == col {
			headers[i] += " " + view.Sort.Direction.String()
		}
	}
	rows := make([][]string, 0, len(view.Items))
	for _, item := range view.Items {
		row := make([]string, len(c.columns))
		for i, col := range c.columns {
			row[i] = c.cell(item, col)
		}
		rows = append(rows, row)
	}
	if err := writeTable(out, headers, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\npage %d/%d · %d records\n", view.CurrentPage, view.TotalPages, view.Total)
	return err
}
