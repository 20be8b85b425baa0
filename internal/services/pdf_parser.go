package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// DocumentParser pulls plain text out of an uploaded job description.
type DocumentParser interface {
	ExtractText(filePath string) (string, error)
	ExtractTextWithMetaData(filePath string) (*DocumentContent, error)
}

type DocumentContent struct {
	Text      string `json:"text"`
	PageCount int    `json:"pageCount"`
	FilePath  string `json:"-"`
}

type documentParser struct {
	log *zap.Logger
}

func NewDocumentParser(log *zap.Logger) DocumentParser {
	return &documentParser{log: log}
}

// ExtractText implements DocumentParser. PDF pages are joined by blank
// lines; .txt and .md files are read as they are.
func (p *documentParser) ExtractText(filePath string) (string, error) {
	content, err := p.ExtractTextWithMetaData(filePath)
	if err != nil {
		return "", err
	}
	return content.Text, nil
}

// ExtractTextWithMetaData implements DocumentParser.
func (p *documentParser) ExtractTextWithMetaData(filePath string) (*DocumentContent, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".txt", ".md":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		text := CleanText(string(data))
		if text == "" {
			return nil, fmt.Errorf("no text content found in %s", filepath.Base(filePath))
		}
		return &DocumentContent{Text: text, PageCount: 1, FilePath: filePath}, nil
	default:
		return p.extractPDF(filePath)
	}
}

func (p *documentParser) extractPDF(filePath string) (*DocumentContent, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var pages []string
	totalPage := r.NumPage()
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			p.log.Warn("⚠️ Skipping unreadable PDF page",
				zap.String("file", filepath.Base(filePath)),
				zap.Int("page", pageIndex),
				zap.Error(err))
			continue
		}
		if cleaned := CleanText(text); cleaned != "" {
			pages = append(pages, cleaned)
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no text content found in PDF")
	}

	return &DocumentContent{
		Text:      strings.Join(pages, "\n\n"),
		PageCount: totalPage,
		FilePath:  filePath,
	}, nil
}

// CleanText trims every line and drops empty ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
