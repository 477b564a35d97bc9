package routes

import "net/http"

// Group organizes routes under a common prefix. Children inherit the
// parent's prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Walk visits every route in g and its children with the route's full path.
func (g Group) Walk(fn func(path string, r Route)) {
	g.walk("", fn)
}

func (g Group) walk(parent string, fn func(path string, r Route)) {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		fn(prefix+r.Pattern, r)
	}
	for _, child := range g.Children {
		child.walk(prefix, fn)
	}
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		g.Walk(func(path string, r Route) {
			mux.HandleFunc(r.Method+" "+path, r.Handler)
		})
	}
}
