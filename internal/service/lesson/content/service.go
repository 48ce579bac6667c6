package content

import (
	"context"
	"strings"
	"time"

	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

const storageScheme = "storage://"

type mediaStorage interface {
	ObjectURL(ctx context.Context, objectKey string) (string, error)
}

// LessonView is a lesson as shown to students.
type LessonView struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	VideoURL   string     `json:"videoUrl,omitempty"`
	EmbedURL   string     `json:"embedUrl,omitempty"`
	AudioURL   string     `json:"audioUrl,omitempty"`
	PDFURL     string     `json:"pdfUrl,omitempty"`
	ImageURL   string     `json:"imageUrl,omitempty"`
	AnswersURL string     `json:"answersUrl,omitempty"`
	Comments   []string   `json:"comments"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// LessonContentService turns snapshots into student views: storage
// references become download URLs and YouTube links become embeds.
type LessonContentService struct {
	log          logger.Log
	mediaStorage mediaStorage
}

func NewLessonContentService(log logger.Log, m mediaStorage) *LessonContentService {
	return &LessonContentService{
		log:          log,
		mediaStorage: m,
	}
}

func (s *LessonContentService) Present(ctx context.Context, lessons []models.Lesson) []LessonView {
	views := make([]LessonView, 0, len(lessons))
	for _, l := range lessons {
		views = append(views, s.present(ctx, l))
	}
	return views
}

func (s *LessonContentService) present(ctx context.Context, l models.Lesson) LessonView {
	v := LessonView{
		ID:         l.ID,
		Title:      l.Title,
		VideoURL:   s.resolve(ctx, l.VideoURL),
		AudioURL:   s.resolve(ctx, l.AudioURL),
		PDFURL:     s.resolve(ctx, l.PDFURL),
		ImageURL:   s.resolve(ctx, l.ImageURL),
		AnswersURL: s.resolve(ctx, l.AnswersURL),
		Comments:   l.Comment.Lines(),
		CreatedAt:  l.CreatedAt,
	}
	if embed, ok := YouTubeEmbed(l.VideoURL); ok {
		v.EmbedURL = embed
	}
	return v
}

// resolve maps a storage reference to a download URL. Web URLs pass through;
// a reference that cannot be resolved is kept as is.
func (s *LessonContentService) resolve(ctx context.Context, ref string) string {
	key, ok := strings.CutPrefix(strings.TrimSpace(ref), storageScheme)
	if !ok || s.mediaStorage == nil {
		return ref
	}
	url, err := s.mediaStorage.ObjectURL(ctx, key)
	if err != nil {
		s.log.ErrorErr("resolve media url", err, "key", key)
		return ref
	}
	return url
}
