package capture

import (
	"errors"
	"net/http"
)

// Capture validation errors. Each one means the place action stays disabled.
var (
	ErrEmptyDrawing  = errors.New("drawing has no strokes")
	ErrBlankText     = errors.New("typed text is blank")
	ErrNoFile        = errors.New("no image file uploaded")
	ErrInvalidImage  = errors.New("uploaded file is not a supported image")
	ErrImageTooLarge = errors.New("uploaded image exceeds size limit")
	ErrUnknownFont   = errors.New("unknown signature font")
	ErrInvalidMode   = errors.New("mode must be draw, type, or upload")
	ErrWrongMode     = errors.New("operation does not apply to the current capture mode")
	ErrClosed        = errors.New("capture session is closed")
	ErrInvalidStroke = errors.New("stroke points must be finite numbers")
	ErrStrokeLimit   = errors.New("drawing exceeds the stroke limit")
)

// MapHTTPStatus maps capture errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrClosed):
		return http.StatusConflict
	case errors.Is(err, ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrEmptyDrawing),
		errors.Is(err, ErrBlankText),
		errors.Is(err, ErrNoFile),
		errors.Is(err, ErrInvalidImage),
		errors.Is(err, ErrUnknownFont),
		errors.Is(err, ErrInvalidMode),
		errors.Is(err, ErrWrongMode),
		errors.Is(err, ErrInvalidStroke),
		errors.Is(err, ErrStrokeLimit):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
