package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/server/services"
	"github.com/gin-gonic/gin"
)

const ticketHeader = "X-Unlock-Ticket"

// candidatePassword returns nil when no usable password was sent; a blank
// value counts as absent.
func candidatePassword(c *gin.Context) *string {
	p, ok := c.GetQuery("password")
	if !ok || strings.TrimSpace(p) == "" {
		return nil
	}
	return &p
}

// POST /api/upload (multipart: file, chapterId, type, title, isProtected, password)
func (s *HTTPServer) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes+multipartSlack)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, common.ErrDocumentTooLarge)
			return
		}
		badRequest(c, "file is required")
		return
	}
	chapterID, err := strconv.ParseInt(c.PostForm("chapterId"), 10, 64)
	if err != nil {
		badRequest(c, "chapterId is required")
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, fmt.Errorf("%w: %v", common.ErrInternal, err))
		return
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, s.opts.MaxUploadBytes+1))
	if err != nil {
		writeError(c, fmt.Errorf("%w: %v", common.ErrInternal, err))
		return
	}

	res, err := s.svc.Documents.Upload(c.Request.Context(), identity(c), services.UploadRequest{
		ChapterID:   chapterID,
		Type:        c.PostForm("type"),
		Title:       c.PostForm("title"),
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        body,
		Protected:   c.PostForm("isProtected") == "true",
		Password:    c.PostForm("password"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, uploadResponse{
		Success:    true,
		DocumentID: res.Document.ID,
		Pages:      res.Pages,
		Document:   toDocument(res.Document),
	})
}

// GET /api/documents/:id?password=
func (s *HTTPServer) documentMetadata(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	md, err := s.svc.Documents.Metadata(c.Request.Context(), id, candidatePassword(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMetadata(md))
}

// POST /api/documents/check-password
func (s *HTTPServer) checkPassword(c *gin.Context) {
	var req checkPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "documentId is required")
		return
	}

	ticket, err := s.svc.Documents.CheckPassword(c.Request.Context(), req.DocumentID, req.Password)
	if errors.Is(err, common.ErrWrongPassword) {
		c.JSON(http.StatusOK, checkPasswordResponse{})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkPasswordResponse{OK: true, Unlocked: true, Ticket: ticket})
}

// GET /api/documents/:id/download?password=&ticket=
func (s *HTTPServer) download(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ticket := c.GetHeader(ticketHeader)
	if ticket == "" {
		ticket = c.Query("ticket")
	}

	d, err := s.svc.Delivery.Deliver(c.Request.Context(), id, candidatePassword(c), ticket)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename}))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, d.ContentType, d.Body)
}

// DELETE /api/documents/:id
func (s *HTTPServer) deleteDocument(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Documents.Delete(c.Request.Context(), identity(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
