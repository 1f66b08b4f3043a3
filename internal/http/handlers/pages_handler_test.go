package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-gatedchat-backend/internal/http/middleware"
)

func TestAccessDeniedPage_ShowsBlockedIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/access-denied", AccessDeniedPage)

	req := httptest.NewRequest(http.MethodGet, "/access-denied", nil)
	req.AddCookie(&http.Cookie{Name: middleware.BlockedIPCookie, Value: "203.0.113.5"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "203.0.113.5") {
		t.Fatal("blocked IP not shown on denial page")
	}
}

func TestAccessDeniedPage_EscapesForgedCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/access-denied", AccessDeniedPage)

	req := httptest.NewRequest(http.MethodGet, "/access-denied", nil)
	req.AddCookie(&http.Cookie{Name: middleware.BlockedIPCookie, Value: "<script>alert(1)</script>"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if strings.Contains(w.Body.String(), "<script>") {
		t.Fatal("forged cookie value rendered unescaped")
	}
}

func TestAccessDeniedPage_WithoutCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/access-denied", AccessDeniedPage)

	req := httptest.NewRequest(http.MethodGet, "/access-denied", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "your IP address") {
		t.Fatalf("fallback denial page wrong: %d %s", w.Code, w.Body.String())
	}
}
