// Page handlers.
//
// This file serves the handful of minimal HTML pages the service renders
// itself: the chat page, login, signup, admin login, and the access-denied
// explanation page. The pages are deliberately bare; the production front
// end is expected to replace them. The access-denied page reads the
// blocked_ip cookie set by the gate so the visitor sees which address was
// refused.
package handlers

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-gatedchat-backend/internal/http/middleware"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Body}}</p>
</body>
</html>
`))

type pageData struct {
	Title string
	Body  string
}

func renderPage(c *gin.Context, status int, data pageData) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(c.Writer, data); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("page render failed")
	}
}

// ChatPage serves the gated chat page.
func ChatPage(c *gin.Context) {
	renderPage(c, http.StatusOK, pageData{
		Title: "Chat",
		Body:  "Send messages to POST /api/chat.",
	})
}

// LoginPage serves the login form placeholder.
func LoginPage(c *gin.Context) {
	renderPage(c, http.StatusOK, pageData{
		Title: "Log in",
		Body:  "Authenticate via POST /api/auth/login.",
	})
}

// SignupPage serves the signup form placeholder.
func SignupPage(c *gin.Context) {
	renderPage(c, http.StatusOK, pageData{
		Title: "Sign up",
		Body:  "Create an account via POST /api/auth/signup.",
	})
}

// AdminLoginPage serves the admin login placeholder.
func AdminLoginPage(c *gin.Context) {
	renderPage(c, http.StatusOK, pageData{
		Title: "Admin login",
		Body:  "Authenticate via POST /api/admin/login.",
	})
}

// AdminPage serves the admin dashboard placeholder. The gate has already
// required both a session and the admin_key cookie by the time this runs.
func AdminPage(c *gin.Context) {
	renderPage(c, http.StatusOK, pageData{
		Title: "Admin",
		Body:  "Dashboard data is served under /api/admin.",
	})
}

// AccessDeniedPage explains the denial and shows the blocked address from
// the cookie the gate set. Template execution escapes the value, so a
// forged cookie cannot inject markup.
func AccessDeniedPage(c *gin.Context) {
	ip, err := c.Cookie(middleware.BlockedIPCookie)
	if err != nil || ip == "" {
		ip = "your IP address"
	}
	renderPage(c, http.StatusOK, pageData{
		Title: "Access denied",
		Body:  "Access from " + ip + " is not permitted. Contact the site administrator to request access.",
	})
}
