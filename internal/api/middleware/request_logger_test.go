package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger_AssignsRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger())

	var seen string
	router.GET("/test", func(c *gin.Context) {
		seen = c.GetString(RequestIDKey)
		c.JSON(http.StatusOK, gin.H{})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	require.Equal(t, http.StatusOK, w.Code)
	header := w.Header().Get(RequestIDHeader)
	assert.Equal(t, seen, header)
	_, err := uuid.Parse(header)
	assert.NoError(t, err)
}

func TestRequestLogger_KeepsIncomingID(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "upstream-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "upstream-42", w.Header().Get(RequestIDHeader))
}
