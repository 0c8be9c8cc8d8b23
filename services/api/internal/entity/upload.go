package entity

import "io"

// UploadFile is one file part of a multipart request. Open may be called
// more than once.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func (f UploadFile) Valid() bool {
	return f.Open != nil && f.Size > 0
}

type UploadRequest struct {
	Files   []UploadFile
	Caption string
	Tag     string
}

// StagedBlob is a file already written to the blob store.
type StagedBlob struct {
	Key         string
	URL         string
	ContentType string
	Type        MediaType
}
