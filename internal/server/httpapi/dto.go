package httpapi

import (
	"time"

	"github.com/dmitrijs2005/profdocs/internal/server/models"
	"github.com/dmitrijs2005/profdocs/internal/server/services"
)

type loginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Name       string `json:"name" binding:"required"`
	Password   string `json:"password" binding:"required"`
	Passphrase string `json:"passphrase" binding:"required"`
}

type principalResponse struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

type createClassRequest struct {
	Name          string   `json:"name" binding:"required"`
	ChapterTitles []string `json:"chapterTitles"`
}

type renameRequest struct {
	Name string `json:"name" binding:"required"`
}

type chapterRequest struct {
	Title string `json:"title"`
}

type checkPasswordRequest struct {
	DocumentID int64  `json:"documentId" binding:"required"`
	Password   string `json:"password"`
}

type checkPasswordResponse struct {
	OK       bool   `json:"ok"`
	Unlocked bool   `json:"unlocked"`
	Ticket   string `json:"ticket,omitempty"`
}

type settingsRequest struct {
	Passphrase             *string `json:"passphrase"`
	MaxProfessors          *int    `json:"maxProfessors"`
	MaxClassesPerProfessor *int    `json:"maxClassesPerProfessor"`
}

type professorResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type documentResponse struct {
	ID          int64  `json:"id"`
	ChapterID   int64  `json:"chapterId"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	IsProtected bool   `json:"isProtected"`
}

type chapterResponse struct {
	ID        int64              `json:"id"`
	ClassID   int64              `json:"classId"`
	Number    int                `json:"number"`
	Title     string             `json:"title"`
	Deletable bool               `json:"deletable"`
	Documents []documentResponse `json:"documents,omitempty"`
}

type classResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	ProfessorID int64             `json:"professorId"`
	Chapters    []chapterResponse `json:"chapters,omitempty"`
}

type progressionResponse struct {
	Professor string        `json:"professor"`
	Class     classResponse `json:"class"`
}

type uploadResponse struct {
	Success    bool             `json:"success"`
	DocumentID int64            `json:"documentId"`
	Pages      int              `json:"pages"`
	Document   documentResponse `json:"document"`
}

type metadataResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	IsProtected bool   `json:"isProtected"`
	BlobLocator string `json:"blobLocator,omitempty"`
	Chapter     struct {
		Title  string `json:"title"`
		Number int    `json:"number"`
		Class  struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
			Prof struct {
				Name string `json:"name"`
			} `json:"prof"`
		} `json:"class"`
	} `json:"chapter"`
}

type settingsResponse struct {
	MaxProfessors          int       `json:"maxProfessors"`
	MaxClassesPerProfessor int       `json:"maxClassesPerProfessor"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

type overviewResponse struct {
	Professors []professorOverview `json:"professors"`
	Settings   settingsResponse    `json:"settings"`
}

type professorOverview struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Classes []classResponse `json:"classes"`
}

func toDocument(d *models.DocumentSummary) documentResponse {
	return documentResponse{ID: d.ID, ChapterID: d.ChapterID, Type: string(d.Type), Title: d.Title, IsProtected: d.IsProtected}
}

func toChapter(ch *models.Chapter) chapterResponse {
	out := chapterResponse{ID: ch.ID, ClassID: ch.ClassID, Number: ch.Number, Title: ch.Title, Deletable: ch.Deletable()}
	for _, d := range ch.Documents {
		out.Documents = append(out.Documents, toDocument(d))
	}
	return out
}

func toClass(c *models.Class) classResponse {
	out := classResponse{ID: c.ID, Name: c.Name, ProfessorID: c.ProfessorID}
	for _, ch := range c.Chapters {
		out.Chapters = append(out.Chapters, toChapter(ch))
	}
	return out
}

func toClasses(cs []*models.Class) []classResponse {
	out := make([]classResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toClass(c))
	}
	return out
}

func toSettings(v services.SettingsView) settingsResponse {
	return settingsResponse{
		MaxProfessors:          v.MaxProfessors,
		MaxClassesPerProfessor: v.MaxClassesPerProfessor,
		UpdatedAt:              v.UpdatedAt,
	}
}

func toMetadata(md *services.DocumentMetadata) metadataResponse {
	var out metadataResponse
	out.ID = md.Document.ID
	out.Title = md.Document.Title
	out.Type = string(md.Document.Type)
	out.IsProtected = md.Document.IsProtected
	out.BlobLocator = md.BlobLocator
	out.Chapter.Title = md.ChapterTitle
	out.Chapter.Number = md.ChapterNumber
	out.Chapter.Class.ID = md.ClassID
	out.Chapter.Class.Name = md.ClassName
	out.Chapter.Class.Prof.Name = md.ProfessorName
	return out
}
