package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/profdocs/internal/server/services"
	"github.com/gin-gonic/gin"
)

// GET /api/admin/overview
func (s *HTTPServer) overview(c *gin.Context) {
	o, err := s.svc.Settings.Overview(c.Request.Context(), identity(c))
	if err != nil {
		writeError(c, err)
		return
	}

	out := overviewResponse{Settings: toSettings(o.Settings), Professors: make([]professorOverview, 0, len(o.Professors))}
	for _, p := range o.Professors {
		out.Professors = append(out.Professors, professorOverview{ID: p.ID, Name: p.Name, Classes: toClasses(p.Classes)})
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/admin/settings
func (s *HTTPServer) getSettings(c *gin.Context) {
	v, err := s.svc.Settings.Get(c.Request.Context(), identity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSettings(*v))
}

// PUT /api/admin/settings
func (s *HTTPServer) updateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	v, err := s.svc.Settings.Update(c.Request.Context(), identity(c), services.SettingsUpdate{
		Passphrase:             req.Passphrase,
		MaxProfessors:          req.MaxProfessors,
		MaxClassesPerProfessor: req.MaxClassesPerProfessor,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSettings(*v))
}

// PATCH /api/admin/profile
func (s *HTTPServer) renameAdmin(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}
	if err := s.svc.Users.RenameAdmin(c.Request.Context(), identity(c), req.Name); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /api/admin/professors/:id
func (s *HTTPServer) deleteProfessor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Users.DeleteProfessor(c.Request.Context(), identity(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
