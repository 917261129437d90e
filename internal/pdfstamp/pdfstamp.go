// Package pdfstamp parses uploaded PDFs and stamps the provenance footer
// onto every page of a delivered copy.
package pdfstamp

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func init() {
	// Keep pdfcpu from creating a config directory under $HOME.
	api.DisableConfigDir()
}

const (
	footerDesc    = "fontname:Helvetica, points:7, position:bc, offset:0 14, scalefactor:1 abs, rotation:0, fillcolor:#808080, aligntext:center"
	separatorDesc = "fontname:Helvetica, points:6, position:bc, offset:0 32, scalefactor:0.85 rel, rotation:0, fillcolor:#b0b0b0"
	separatorText = "________________________________________________________________________________________________"
)

// Footer carries what is printed at the bottom of every page.
type Footer struct {
	ProfessorName string
	ClassName     string
	ChapterNumber int
	ChapterTitle  string
	DocumentTitle string
	RetrievedAt   time.Time
}

// Text returns the two footer lines. %p and %P are expanded per page.
func (f Footer) Text() string {
	line1 := fmt.Sprintf("%s - %s - Chapitre %d: %s - %s",
		f.ProfessorName, f.ClassName, f.ChapterNumber, f.ChapterTitle, f.DocumentTitle)
	line2 := fmt.Sprintf("Téléchargé le %s - Page %%p/%%P", f.RetrievedAt.Format("02/01/2006"))
	return line1 + "\n" + line2
}

// Stamper wraps a pdfcpu configuration. It is safe for concurrent use:
// every call works on its own copy of the document.
type Stamper struct {
	conf *model.Configuration
}

func New() *Stamper {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Stamper{conf: conf}
}

// config returns a per-call copy; pdfcpu mutates the configuration it is given.
func (s *Stamper) config() *model.Configuration {
	c := *s.conf
	return &c
}

// PageCount parses pdf and returns its number of pages.
func (s *Stamper) PageCount(pdf []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(pdf), s.config())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrMalformedDocument, err)
	}
	return n, nil
}

// Stamp returns a copy of pdf with the separator and footer drawn on every
// page. The input is left untouched.
func (s *Stamper) Stamp(pdf []byte, f Footer) ([]byte, error) {
	sep, err := api.TextWatermark(separatorText, separatorDesc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("separator: %w", err)
	}
	footer, err := api.TextWatermark(f.Text(), footerDesc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("footer: %w", err)
	}

	var withSep bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(pdf), &withSep, nil, sep, s.config()); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedDocument, err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(withSep.Bytes()), &out, nil, footer, s.config()); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedDocument, err)
	}
	return out.Bytes(), nil
}
