package openapi

var errorBody = map[string]*MediaType{
	"application/json": {
		Schema: SchemaRef("Error"),
	},
}

// NewComponents creates Components with shared schemas and error responses.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type: "object",
				Properties: map[string]*Schema{
					"error": {Type: "string", Description: "Error message"},
				},
				Required: []string{"error"},
			},
			"PageRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"page":      {Type: "integer", Description: "Page number (1-indexed)", Example: 1},
					"page_size": {Type: "integer", Description: "Results per page", Example: 20},
					"search":    {Type: "string", Description: "Search query"},
					"sort":      {Type: "string", Description: "Comma-separated sort fields. Prefix with - for descending. Example: Filename,-UploadedAt"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":          {Description: "Invalid request", Content: errorBody},
			"Unauthorized":        {Description: "Missing or invalid bearer token", Content: errorBody},
			"Forbidden":           {Description: "Operator lacks the required role", Content: errorBody},
			"NotFound":            {Description: "Resource not found", Content: errorBody},
			"Conflict":            {Description: "Request conflicts with the resource's current state", Content: errorBody},
			"UnprocessableEntity": {Description: "Request failed validation", Content: errorBody},
			"BadGateway":          {Description: "A downstream collaborator rejected the request", Content: errorBody},
		},
	}
}
