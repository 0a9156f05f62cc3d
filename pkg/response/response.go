package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with detail message.
func BadRequest(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Detail: detail})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, detail string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Detail: detail})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, detail string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Detail: detail})
}

// NotFound sends 404.
func NotFound(c *gin.Context, detail string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Detail: detail})
}

// Conflict sends 409.
func Conflict(c *gin.Context, detail string) {
	c.JSON(http.StatusConflict, Body{Success: false, Detail: detail})
}

// Unprocessable sends 422 for validation failures.
func Unprocessable(c *gin.Context, detail string) {
	c.JSON(http.StatusUnprocessableEntity, Body{Success: false, Detail: detail})
}

// Internal sends 500. No internal detail is leaked to the client.
func Internal(c *gin.Context, detail string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Detail: detail})
}
