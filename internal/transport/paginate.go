package transport

import (
	"context"
	"net/url"
	"strconv"
)

// GetAll follows Link rel="next" headers from path until the last page and
// returns every item. The first request carries limit=pageSize.
func GetAll[T any](ctx context.Context, c *Client, path string, query url.Values, pageSize int) ([]T, error) {
	q := cloneValues(query)
	if pageSize > 0 {
		q.Set("limit", strconv.Itoa(pageSize))
	}

	var all []T
	next := c.URL(path, q)
	for next != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var page []T
		resp, err := c.Get(ctx, next, nil, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		next = NextLink(resp.Header)
	}
	return all, nil
}

// GetAllCounted pages through path with explicit page numbers until the
// number of items seen reaches the X-Total-Count of the first response. It
// is used for endpoints that report a total but send no Link header. Without
// a total it falls back to stopping at the first short page.
func GetAllCounted[T any](ctx context.Context, c *Client, path string, query url.Values, pageSize int) ([]T, error) {
	q := cloneValues(query)
	q.Set("limit", strconv.Itoa(pageSize))

	var all []T
	total := -1
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q.Set("page", strconv.Itoa(page))
		var items []T
		resp, err := c.Get(ctx, path, q, &items)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if page == 1 {
			total = TotalCount(resp.Header)
		}

		switch {
		case len(items) == 0:
			return all, nil
		case total >= 0 && len(all) >= total:
			return all, nil
		case total < 0 && len(items) < pageSize:
			return all, nil
		}
	}
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+2)
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
