package pipeline

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/extraction"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/gcs"
)

// Document is one source file or page handed to the extraction model.
type Document struct {
	Name     string
	MIMEType string
	Data     []byte
}

func (d Document) part() extraction.Part {
	mt := d.MIMEType
	if mt == "" {
		mt = DetectMIMEType(d.Name)
	}
	return extraction.Part{MIMEType: mt, Data: d.Data}
}

// DetectMIMEType guesses the content type from the file extension.
func DetectMIMEType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return DefaultMIMEType
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if i := strings.Index(mt, ";"); i != -1 {
			mt = mt[:i]
		}
		return mt
	}
	return DefaultMIMEType
}

// FetchDocuments downloads every uri in order.
func FetchDocuments(ctx context.Context, storage StorageService, uris []string) ([]Document, error) {
	docs := make([]Document, 0, len(uris))
	for _, uri := range uris {
		data, err := storage.Fetch(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("FetchDocuments: %s: %w", uri, err)
		}
		name := gcs.FilenameFromURI(uri)
		docs = append(docs, Document{
			Name:     name,
			MIMEType: DetectMIMEType(name),
			Data:     data,
		})
	}
	return docs, nil
}
