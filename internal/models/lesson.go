package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	FieldTitle      = "title"
	FieldVideoURL   = "videoUrl"
	FieldAudioURL   = "audioUrl"
	FieldPDFURL     = "pdfUrl"
	FieldImageURL   = "imageUrl"
	FieldAnswersURL = "answersUrl"
	FieldComment    = "comment"
	FieldCreatedAt  = "createdAt"
)

// Lesson is the leaf content entity of a lesson collection.
// CreatedAt stays nil until the backend has confirmed the write.
type Lesson struct {
	ID         string     `json:"id"`
	Collection string     `json:"collection"`
	Title      string     `json:"title"`
	VideoURL   string     `json:"videoUrl,omitempty"`
	AudioURL   string     `json:"audioUrl,omitempty"`
	PDFURL     string     `json:"pdfUrl,omitempty"`
	ImageURL   string     `json:"imageUrl,omitempty"`
	AnswersURL string     `json:"answersUrl,omitempty"`
	Comment    Comment    `json:"comment,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// UnmarshalJSON also accepts the legacy "url" key as the video URL.
func (l *Lesson) UnmarshalJSON(data []byte) error {
	type plain Lesson
	var aux struct {
		plain
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*l = Lesson(aux.plain)
	if l.VideoURL == "" {
		l.VideoURL = aux.URL
	}
	return nil
}

// Fields returns every editable attribute of l as present fields.
func (l Lesson) Fields() LessonFields {
	comment := append(Comment(nil), l.Comment...)
	return LessonFields{
		Title:      ptr(l.Title),
		VideoURL:   ptr(l.VideoURL),
		AudioURL:   ptr(l.AudioURL),
		PDFURL:     ptr(l.PDFURL),
		ImageURL:   ptr(l.ImageURL),
		AnswersURL: ptr(l.AnswersURL),
		Comment:    &comment,
	}
}

// Apply merges the present fields of f into l.
func (l Lesson) Apply(f LessonFields) Lesson {
	if f.Title != nil {
		l.Title = *f.Title
	}
	if f.VideoURL != nil {
		l.VideoURL = *f.VideoURL
	}
	if f.AudioURL != nil {
		l.AudioURL = *f.AudioURL
	}
	if f.PDFURL != nil {
		l.PDFURL = *f.PDFURL
	}
	if f.ImageURL != nil {
		l.ImageURL = *f.ImageURL
	}
	if f.AnswersURL != nil {
		l.AnswersURL = *f.AnswersURL
	}
	if f.Comment != nil {
		l.Comment = append(Comment(nil), (*f.Comment)...)
	}
	return l
}

// LessonFields carries the editable attributes of a lesson. A nil field is
// absent: updates keep the stored value, creates store it empty.
type LessonFields struct {
	Title      *string  `json:"title,omitempty" validate:"omitnil,max=300"`
	VideoURL   *string  `json:"videoUrl,omitempty" validate:"omitnil,media_url"`
	AudioURL   *string  `json:"audioUrl,omitempty" validate:"omitnil,media_url"`
	PDFURL     *string  `json:"pdfUrl,omitempty" validate:"omitnil,media_url"`
	ImageURL   *string  `json:"imageUrl,omitempty" validate:"omitnil,media_url"`
	AnswersURL *string  `json:"answersUrl,omitempty" validate:"omitnil,media_url"`
	Comment    *Comment `json:"comment,omitempty"`
}

// Merge returns f with the present fields of other laid over it.
func (f LessonFields) Merge(other LessonFields) LessonFields {
	if other.Title != nil {
		f.Title = other.Title
	}
	if other.VideoURL != nil {
		f.VideoURL = other.VideoURL
	}
	if other.AudioURL != nil {
		f.AudioURL = other.AudioURL
	}
	if other.PDFURL != nil {
		f.PDFURL = other.PDFURL
	}
	if other.ImageURL != nil {
		f.ImageURL = other.ImageURL
	}
	if other.AnswersURL != nil {
		f.AnswersURL = other.AnswersURL
	}
	if other.Comment != nil {
		f.Comment = other.Comment
	}
	return f
}

// Empty reports whether no field is present.
func (f LessonFields) Empty() bool {
	return f == LessonFields{}
}

// Comment is a lesson comment stored either as one string or as a list.
type Comment []string

func (c Comment) MarshalJSON() ([]byte, error) {
	switch len(c) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(c[0])
	default:
		return json.Marshal([]string(c))
	}
}

func (c *Comment) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*c = nil
		return nil
	case strings.HasPrefix(trimmed, "["):
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("comment list: %w", err)
		}
		*c = list
		return nil
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("comment: %w", err)
		}
		if s == "" {
			*c = nil
			return nil
		}
		*c = Comment{s}
		return nil
	}
}

// Lines drops blank entries.
func (c Comment) Lines() []string {
	lines := make([]string, 0, len(c))
	for _, line := range c {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func ptr[T any](v T) *T {
	return &v
}

// StringPtr is a helper for building LessonFields literals.
func StringPtr(s string) *string {
	return &s
}

// CommentPtr builds a present comment field.
func CommentPtr(lines ...string) *Comment {
	c := Comment(lines)
	return &c
}
