package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vango-dev/breadcrumbs/internal/errors"
	"github.com/vango-dev/breadcrumbs/pkg/breadcrumbs"
	"github.com/vango-dev/breadcrumbs/pkg/router"
)

// RouteConfig declares one route and the crumb it contributes.
//
// Strings in Title, Data, ActivePath and Fail may reference route
// parameters as {name}.
type RouteConfig struct {
	// Path is the route pattern (/users/:id, /docs/*page).
	Path string `json:"path" toml:"path"`

	// Title is the crumb title. Ignored when Data is set.
	Title string `json:"title,omitempty" toml:"title,omitempty"`

	// Data is the raw handle value. A record with a "content" key is a
	// shaped crumb; anything else is used as the title.
	Data any `json:"data,omitempty" toml:"data,omitempty"`

	// ActivePath sets the crumb's active path.
	ActivePath *string `json:"activePath,omitempty" toml:"activePath,omitempty"`

	// Delay makes the crumb load asynchronously after the given time.
	Delay Duration `json:"delay,omitempty" toml:"delay,omitempty"`

	// Revalidate recomputes the crumb on every pass.
	Revalidate bool `json:"revalidate,omitempty" toml:"revalidate,omitempty"`

	// Fail makes the fetch reject with this message.
	Fail string `json:"fail,omitempty" toml:"fail,omitempty"`

	// Hidden registers the route without a crumb.
	Hidden bool `json:"hidden,omitempty" toml:"hidden,omitempty"`
}

func (r RouteConfig) validate() error {
	switch {
	case !strings.HasPrefix(r.Path, "/"):
		return fmt.Errorf("path %q must start with '/'", r.Path)
	case r.Delay < 0:
		return fmt.Errorf("delay must not be negative")
	case !r.Hidden && r.Title == "" && r.Data == nil:
		return fmt.Errorf("route %q needs a title or data", r.Path)
	}
	return nil
}

// Handle builds the breadcrumbs handle for the route. It is nil for hidden
// routes.
func (r RouteConfig) Handle() breadcrumbs.Handle[any] {
	if r.Hidden {
		return nil
	}
	return breadcrumbs.HandleFunc[any](func(match breadcrumbs.Match[any], routeContext any) breadcrumbs.Descriptor[any] {
		params, _ := routeContext.(router.Params)
		data := r.resolveData(match, params)

		if r.Delay == 0 && r.Fail == "" {
			if !r.Revalidate {
				return breadcrumbs.Value[any]{Data: data}
			}
			return breadcrumbs.Compute(func() breadcrumbs.Data[any] { return data }).Revalidate()
		}

		delay := r.Delay.Std()
		fail := expand(r.Fail, params)
		req := breadcrumbs.Fetch(func(ctx context.Context) (breadcrumbs.Data[any], error) {
			if delay > 0 {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-ctx.Done():
					return breadcrumbs.Data[any]{}, ctx.Err()
				case <-timer.C:
				}
			}
			if fail != "" {
				return breadcrumbs.Data[any]{}, errors.New("B001").Wrap(fmt.Errorf("%s", fail))
			}
			return data, nil
		})
		if r.Revalidate {
			req.Revalidate()
		}
		return req
	})
}

// resolveData expands parameters and classifies the result.
func (r RouteConfig) resolveData(match breadcrumbs.Match[any], params router.Params) breadcrumbs.Data[any] {
	var payload any = r.Title
	if r.Data != nil {
		payload = r.Data
	}
	data := breadcrumbs.DataOf(expandValue(payload, params))
	if r.ActivePath == nil {
		return data
	}

	active := breadcrumbs.ActivePathTo(expand(*r.ActivePath, params))
	if p, ok := data.Path(); ok {
		if p.ActivePath.IsZero() {
			p.ActivePath = active
		}
		return breadcrumbs.Shaped(p)
	}
	return breadcrumbs.Shaped(breadcrumbs.CrumbPath[any]{
		ActivePath: active,
		Content:    breadcrumbs.Single(breadcrumbs.CrumbContent[any]{Title: data.Raw(), URL: match.Pathname}),
	})
}

// BuildTable registers every route on a new table.
func (c *Config) BuildTable() (*router.Table[any], error) {
	table := router.NewTable[any]()
	for _, r := range c.Routes {
		if err := table.Add(r.Path, r.Handle()); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// expand replaces {name} with the value of the named parameter.
func expand(s string, params router.Params) string {
	if len(params) == 0 || !strings.Contains(s, "{") {
		return s
	}
	pairs := make([]string, 0, 2*len(params))
	for _, k := range params.Keys() {
		pairs = append(pairs, "{"+k+"}", params[k])
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// expandValue returns a copy of v with every string expanded.
func expandValue(v any, params router.Params) any {
	switch x := v.(type) {
	case string:
		return expand(x, params)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = expandValue(x[i], params)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = expandValue(val, params)
		}
		return out
	}
	return v
}
