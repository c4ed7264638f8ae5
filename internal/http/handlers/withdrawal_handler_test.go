package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestWithdrawalHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewWithdrawalHandler(nil)
	r.POST("/withdrawals", handler.Create)

	req, _ := http.NewRequest("POST", "/withdrawals", strings.NewReader(`{"amount":100}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWithdrawalHandler_Create_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withUser(uuid.New(), "artisan"))
	handler := NewWithdrawalHandler(nil)
	r.POST("/withdrawals", handler.Create)

	req, _ := http.NewRequest("POST", "/withdrawals", strings.NewReader(`{"amount":-5}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWithdrawalHandler_Get_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withUser(uuid.New(), "artisan"))
	handler := NewWithdrawalHandler(nil)
	r.GET("/withdrawals/:id", handler.Get)

	req, _ := http.NewRequest("GET", "/withdrawals/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWithdrawalHandler_Reject_MissingReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withUser(uuid.New(), "admin"))
	handler := NewWithdrawalHandler(nil)
	r.POST("/admin/withdrawals/:id/reject", handler.Reject)

	req, _ := http.NewRequest("POST", "/admin/withdrawals/"+uuid.New().String()+"/reject", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
