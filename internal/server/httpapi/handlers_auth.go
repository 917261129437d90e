package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/profdocs/internal/server/services"
	"github.com/gin-gonic/gin"
)

// pathID parses the :id route parameter. On failure the response is
// written and ok is false.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func (s *HTTPServer) startSession(c *gin.Context, status int, res *services.LoginResult) {
	if err := s.setSessionCookie(c, res.Token, res.ExpiresAt); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, principalResponse{Kind: res.Identity.Kind.String(), ID: res.Identity.ID})
}

// POST /api/auth/login
func (s *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name and password are required")
		return
	}

	res, err := s.svc.Sessions.Login(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	s.startSession(c, http.StatusOK, res)
}

// POST /api/auth/logout
func (s *HTTPServer) logout(c *gin.Context) {
	if err := s.svc.Sessions.Logout(c.Request.Context(), c.GetString(sessionTokenKey)); err != nil {
		writeError(c, err)
		return
	}
	s.clearSessionCookie(c)
	c.Status(http.StatusNoContent)
}

// POST /api/auth/register
func (s *HTTPServer) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name, password and passphrase are required")
		return
	}

	res, err := s.svc.Users.Register(c.Request.Context(), req.Name, req.Password, req.Passphrase)
	if err != nil {
		writeError(c, err)
		return
	}
	s.startSession(c, http.StatusCreated, res)
}

// GET /api/auth/me
func (s *HTTPServer) me(c *gin.Context) {
	p, err := s.svc.Users.Profile(c.Request.Context(), identity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, principalResponse{Kind: p.Kind.String(), ID: p.ID, Name: p.Name})
}
