package models

import "strings"

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaPDF   MediaKind = "pdf"
	MediaAudio MediaKind = "audio"
)

var MediaKinds = []MediaKind{MediaImage, MediaVideo, MediaPDF, MediaAudio}

func ParseMediaKind(s string) (MediaKind, bool) {
	k := MediaKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case MediaImage, MediaVideo, MediaPDF, MediaAudio:
		return k, true
	}
	return "", false
}

// Folder is the storage folder uploads of this kind are written to.
func (k MediaKind) Folder() string {
	switch k {
	case MediaImage:
		return "images"
	case MediaVideo:
		return "videos"
	case MediaPDF:
		return "pdfs"
	case MediaAudio:
		return "audios"
	}
	return "uploads"
}

// Field is the lesson field a finished upload of this kind is written to.
func (k MediaKind) Field() string {
	switch k {
	case MediaImage:
		return FieldImageURL
	case MediaVideo:
		return FieldVideoURL
	case MediaPDF:
		return FieldPDFURL
	case MediaAudio:
		return FieldAudioURL
	}
	return ""
}

type UploadState string

const (
	UploadPending   UploadState = "pending"
	UploadUploading UploadState = "uploading"
	UploadSucceeded UploadState = "succeeded"
	UploadFailed    UploadState = "failed"
)

// InFlight reports whether the upload has not reached a terminal state.
func (s UploadState) InFlight() bool {
	return s == UploadPending || s == UploadUploading
}

// UploadStatus is a point-in-time view of an upload task.
type UploadStatus struct {
	ID          string      `json:"id"`
	Kind        MediaKind   `json:"kind"`
	Source      string      `json:"source"`
	Destination string      `json:"destination"`
	Percent     int         `json:"percent"`
	State       UploadState `json:"state"`
	URL         string      `json:"url,omitempty"`
	Error       string      `json:"error,omitempty"`
}
