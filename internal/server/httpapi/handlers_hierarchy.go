package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/professors
func (s *HTTPServer) listProfessors(c *gin.Context) {
	profs, err := s.svc.Catalog.ListProfessors(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]professorResponse, 0, len(profs))
	for _, p := range profs {
		out = append(out, professorResponse{ID: p.ID, Name: p.Name})
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/professors/:id/classes
func (s *HTTPServer) listClasses(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	classes, err := s.svc.Catalog.ListClasses(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClasses(classes))
}

// GET /api/me/classes
func (s *HTTPServer) myClasses(c *gin.Context) {
	id := identity(c)
	classes, err := s.svc.Catalog.MyClasses(c.Request.Context(), id, id.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClasses(classes))
}

// GET /api/classes/:id/progression
func (s *HTTPServer) progression(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := s.svc.Catalog.Progression(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progressionResponse{Professor: p.ProfessorName, Class: toClass(p.Class)})
}

// GET /api/chapters/:id/documents
func (s *HTTPServer) chapterDocuments(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	docs, err := s.svc.Catalog.ChapterDocuments(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocument(d))
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/classes
func (s *HTTPServer) createClass(c *gin.Context) {
	var req createClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}
	class, err := s.svc.Hierarchy.CreateClass(c.Request.Context(), identity(c), req.Name, req.ChapterTitles)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toClass(class))
}

// PATCH /api/classes/:id
func (s *HTTPServer) renameClass(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}
	if err := s.svc.Hierarchy.RenameClass(c.Request.Context(), identity(c), id, req.Name); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /api/classes/:id
func (s *HTTPServer) deleteClass(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Hierarchy.DeleteClass(c.Request.Context(), identity(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/classes/:id/chapters
func (s *HTTPServer) addChapter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req chapterRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}
	}
	ch, err := s.svc.Hierarchy.AddChapter(c.Request.Context(), identity(c), id, req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toChapter(ch))
}

// PATCH /api/chapters/:id
func (s *HTTPServer) renameChapter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req chapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	if err := s.svc.Hierarchy.RenameChapter(c.Request.Context(), identity(c), id, req.Title); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /api/chapters/:id
func (s *HTTPServer) deleteChapter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Hierarchy.DeleteChapter(c.Request.Context(), identity(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
