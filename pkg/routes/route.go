package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler. Summary, Query and
// Body are optional and only feed generated API descriptions: Query names
// the accepted query parameters and Body names the request schema.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	Summary string
	Query   []string
	Body    string
}
