package portal

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zjrosen/portal/internal/log"
)

// ListSites returns the user's saved sites. Rows failing validation are dropped.
func (c *Client) ListSites(ctx context.Context) ([]Site, error) {
	var raw []Site
	if err := c.sendJSON(ctx, request{op: "sites", method: "GET", url: c.apiBase + "/api/user/sites"}, &raw); err != nil {
		return nil, err
	}

	sites := make([]Site, 0, len(raw))
	for _, s := range raw {
		if err := c.validate.Struct(s); err != nil {
			log.Warn(log.CatHTTP, "Dropping invalid site", "id", s.ID, "error", err.Error())
			continue
		}
		sites = append(sites, s)
	}
	return sites, nil
}

// SetDefaultSite marks a site as the user's default.
func (c *Client) SetDefaultSite(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("invalid site id %d", id)
	}
	return c.sendJSON(ctx, request{
		op:     "site_default",
		method: "PATCH",
		url:    c.apiBase + "/api/user/sites/" + strconv.Itoa(id) + "/default",
	}, nil)
}

// DeleteSite removes a saved site.
func (c *Client) DeleteSite(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("invalid site id %d", id)
	}
	return c.sendJSON(ctx, request{
		op:     "site_delete",
		method: "DELETE",
		url:    c.apiBase + "/api/user/sites/" + strconv.Itoa(id),
	}, nil)
}
