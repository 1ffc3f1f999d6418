package handler // handler implements the HTTP endpoints of the service

import "github.com/labstack/echo/v4"

// envelope is the stable JSON error/status shape every non-2xx response
// uses: {"status":"error","statusCode":403,"message":"FORBIDDEN"}.
type envelope struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// fail writes the error envelope with the given status and message.
func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Status: "error", StatusCode: status, Message: message})
}

// created writes the success envelope used by write endpoints that return
// no body.
func created(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Status: "success", StatusCode: status, Message: message})
}

// pageResponse wraps paged list payloads.
type pageResponse struct {
	Items interface{} `json:"items"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
	Total uint64      `json:"total"`
}
