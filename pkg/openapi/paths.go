package openapi

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/JaimeStill/quill/pkg/routes"
)

var pathParam = regexp.MustCompile(`\{([a-z_]+)(?:\.\.\.)?\}`)

// AddGroups describes every route of groups, keyed by its full path. Each
// group's top-level prefix becomes the operation tag.
func (s *Spec) AddGroups(groups ...routes.Group) {
	for _, g := range groups {
		tag := tagFor(g.Prefix)
		s.addTag(tag)
		g.Walk(func(path string, r routes.Route) {
			if path == "" {
				path = "/"
			}

			item, ok := s.Paths[path]
			if !ok {
				item = &PathItem{}
				s.Paths[path] = item
			}

			op := &Operation{
				Summary:    r.Summary,
				Tags:       []string{tag},
				Parameters: append(pathParams(path), queryParams(r.Query)...),
				Responses:  defaultResponses(r.Method),
			}
			if r.Body != "" {
				op.RequestBody = RequestBodyJSON(r.Body, true)
			}
			item.set(r.Method, op)
		})
	}
}

func (p *PathItem) set(method string, op *Operation) {
	switch method {
	case http.MethodGet:
		p.Get = op
	case http.MethodPost:
		p.Post = op
	case http.MethodPut:
		p.Put = op
	case http.MethodDelete:
		p.Delete = op
	}
}

func tagFor(prefix string) string {
	return strings.TrimPrefix(prefix, "/")
}

// pathParams declares one parameter per {name} segment. Names ending in id
// are UUIDs, page is a page number, anything else is a plain string.
func pathParams(path string) []*Parameter {
	var params []*Parameter
	for _, m := range pathParam.FindAllStringSubmatch(path, -1) {
		name := m[1]
		switch {
		case name == "id" || strings.HasSuffix(name, "_id"):
			params = append(params, PathParam(name, ""))
		case name == "page":
			params = append(params, &Parameter{Name: name, In: "path", Required: true, Schema: &Schema{Type: "integer"}})
		default:
			params = append(params, &Parameter{Name: name, In: "path", Required: true, Schema: &Schema{Type: "string"}})
		}
	}
	return params
}

// queryParams declares optional query parameters. Pagination counts are
// integers; id-like names are UUIDs.
func queryParams(names []string) []*Parameter {
	params := make([]*Parameter, 0, len(names))
	for _, name := range names {
		p := QueryParam(name, "string", "", false)
		switch {
		case name == "page" || name == "page_size":
			p.Schema.Type = "integer"
		case strings.HasSuffix(name, "_id") && name != "contract_id":
			p.Required = true
			p.Schema.Format = "uuid"
		}
		params = append(params, p)
	}
	return params
}

func defaultResponses(method string) map[int]*Response {
	ok := &Response{Description: "Success"}
	responses := map[int]*Response{
		http.StatusBadRequest:          ResponseRef("BadRequest"),
		http.StatusUnauthorized:        ResponseRef("Unauthorized"),
		http.StatusNotFound:            ResponseRef("NotFound"),
		http.StatusInternalServerError: {Description: "Internal error"},
	}

	switch method {
	case http.MethodPost:
		responses[http.StatusOK] = ok
		responses[http.StatusCreated] = &Response{Description: "Created"}
		responses[http.StatusConflict] = ResponseRef("Conflict")
		responses[http.StatusUnprocessableEntity] = ResponseRef("UnprocessableEntity")
	case http.MethodDelete:
		responses[http.StatusNoContent] = &Response{Description: "Deleted"}
		responses[http.StatusOK] = ok
	default:
		responses[http.StatusOK] = ok
	}
	return responses
}
