package ceic

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/wexinc/sourcecheck/internal/errors"
	"github.com/wexinc/sourcecheck/internal/logging"
)

// SearchParams selects series to search for.
type SearchParams struct {
	Sources []string
	Keyword string
	Limit   int
	Offset  int
}

// ProgressFunc receives the cumulative number of processed series and the
// expected total. It may be called from several goroutines.
type ProgressFunc func(done, total int)

// Search fetches a single page of results.
func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchPage, error) {
	token, err := c.currentToken()
	if err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = c.opts.PageSize
	}

	q := url.Values{}
	if len(params.Sources) > 0 {
		q.Set("source", strings.Join(params.Sources, ","))
	}
	if params.Keyword != "" {
		q.Set("keyword", params.Keyword)
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(params.Offset))
	q.Set("token", token)

	var resp envelope[*SearchPage]
	if err := c.do(ctx, http.MethodGet, "/search", q, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return &SearchPage{}, nil
	}
	return resp.Data, nil
}

// FirstPage returns the first page of results for a source. Its Total is
// the number of series the source publishes.
func (c *Client) FirstPage(ctx context.Context, sourceID string) (*SearchPage, error) {
	return c.Search(ctx, SearchParams{Sources: []string{sourceID}})
}

// FetchAll retrieves the metadata of every series of sourceID, expecting
// total results. Pages are fetched concurrently but returned in page order.
// A page the server answers short is re-requested from the first missing
// offset; an empty answer before total is reached is an ErrAPI error.
// progress, when non-nil, sees a cumulative count capped at total and always
// ends with (total, total).
func (c *Client) FetchAll(ctx context.Context, sourceID string, total int, progress ProgressFunc) ([]*SeriesMetadata, error) {
	if _, err := c.currentToken(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(int, int) {}
	}
	if total <= 0 {
		progress(0, 0)
		return nil, nil
	}

	pageSize := c.opts.PageSize
	pages := (total + pageSize - 1) / pageSize
	results := make([][]*SeriesMetadata, pages)

	log := logging.With("source_id", sourceID)
	log.Info("fetching series metadata", "total", total, "pages", pages, "concurrency", c.opts.Concurrency)

	var processed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for i := 0; i < pages; i++ {
		g.Go(func() error {
			offset := i * pageSize
			want := min(pageSize, total-offset)
			for fetched := 0; fetched < want; {
				page, err := c.Search(gctx, SearchParams{
					Sources: []string{sourceID},
					Limit:   want - fetched,
					Offset:  offset + fetched,
				})
				if err != nil {
					return err
				}
				if len(page.Items) == 0 {
					return apperrors.IncompletePage(sourceID, offset+fetched, want-fetched)
				}
				if len(page.Items) > want-fetched {
					page.Items = page.Items[:want-fetched]
				}
				fetched += len(page.Items)
				results[i] = append(results[i], page.Metadata()...)

				done := int(processed.Add(int64(len(page.Items))))
				progress(min(done, total), total)
				log.Debug("fetched page", "page", i, "offset", offset, "items", len(page.Items))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("metadata fetch failed", "error", err)
		return nil, err
	}

	all := make([]*SeriesMetadata, 0, total)
	for _, r := range results {
		all = append(all, r...)
	}
	progress(total, total)
	log.Info("fetched series metadata", "count", len(all))
	return all, nil
}
