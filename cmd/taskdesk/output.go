package main

import (
	"flag"
	"strconv"

	"github.com/target/taskdesk/internal/domain/model"
	"github.com/target/taskdesk/internal/render"
)

type outputOptions struct {
	Output string
	Query  string
}

func addOutputFlags(fs *flag.FlagSet) *outputOptions {
	opts := &outputOptions{}
	fs.StringVar(&opts.Output, "output", "table", "Output format: table or json")
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the JSON result")
	return opts
}

func (cc *commandContext) renderer(opts *outputOptions) (*render.Renderer, error) {
	format, err := render.ParseFormat(opts.Output)
	if err != nil {
		return nil, usagef("%v", err)
	}
	r, err := render.New(cc.Out, format, opts.Query)
	if err != nil {
		return nil, usagef("%v", err)
	}
	return r, nil
}

func userTable(users []model.User) render.Table {
	t := render.Table{Header: []string{"ID", "NAME", "EMAIL", "ROLE"}}
	for _, u := range users {
		t.Rows = append(t.Rows, []string{strconv.Itoa(u.ID), u.Name, u.Email, string(u.Role)})
	}
	return t
}

func pageFooter[T any](p model.Page[T]) string {
	if p.TotalCount == 0 {
		return "No results."
	}
	return "Showing " + strconv.Itoa(p.StartIndex) + "-" + strconv.Itoa(p.EndIndex) +
		" of " + strconv.Itoa(p.TotalCount) +
		" (page " + strconv.Itoa(p.Page) + "/" + strconv.Itoa(p.TotalPages()) + ")"
}

// pagedResult is the JSON shape of a paginated listing.
type pagedResult[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	TotalCount int  `json:"totalCount"`
	HasPrev    bool `json:"hasPrev"`
	HasNext    bool `json:"hasNext"`
}

func newPagedResult[T any](p model.Page[T]) pagedResult[T] {
	return pagedResult[T]{
		Items:      p.Items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalCount: p.TotalCount,
		HasPrev:    p.HasPrev,
		HasNext:    p.HasNext,
	}
}
