package services

import (
	"fmt"

	yt "github.com/kkdai/youtube/v2"
)

// YouTubeService resolves lesson metadata from a YouTube URL so
// instructors only have to paste the link when building a course.
type YouTubeService struct {
	ytClient *yt.Client
}

type VideoMetadata struct {
	Title           string
	ChannelName     string
	ThumbnailURL    string
	DurationSeconds int
}

func NewYouTubeService() *YouTubeService {
	return &YouTubeService{ytClient: &yt.Client{}}
}

func (s *YouTubeService) GetVideoMetadata(videoURL string) (*VideoMetadata, error) {
	video, err := s.ytClient.GetVideo(videoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch YouTube video metadata: %w", err)
	}

	meta := &VideoMetadata{
		Title:           video.Title,
		ChannelName:     video.Author,
		ThumbnailURL:    fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", video.ID),
		DurationSeconds: int(video.Duration.Seconds()),
	}
	return meta, nil
}
