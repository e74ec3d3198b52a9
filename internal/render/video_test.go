package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/livetemplate/pageforge"
)

func TestEmbedURL(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		provider Provider
		want     string
	}{
		{"youtube watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", ProviderYouTube,
			"https://www.youtube.com/embed/dQw4w9WgXcQ?autoplay=0&controls=1&loop=0&mute=0"},
		{"youtube embed", "https://youtube.com/embed/abc", ProviderYouTube,
			"https://www.youtube.com/embed/abc?autoplay=0&controls=1&loop=0&mute=0"},
		{"youtube shorts", "https://youtube.com/shorts/xyz", ProviderYouTube,
			"https://www.youtube.com/embed/xyz?autoplay=0&controls=1&loop=0&mute=0"},
		{"youtu.be", "https://youtu.be/short1", ProviderYouTube,
			"https://www.youtube.com/embed/short1?autoplay=0&controls=1&loop=0&mute=0"},
		{"vimeo", "https://vimeo.com/123", ProviderVimeo,
			"https://player.vimeo.com/video/123?autoplay=0&loop=0&muted=0"},
		{"vimeo player", "https://player.vimeo.com/video/456", ProviderVimeo,
			"https://player.vimeo.com/video/456?autoplay=0&loop=0&muted=0"},
		{"plain file", "https://cdn.example.com/clip.mp4", ProviderNone, ""},
		{"relative", "/media/clip.mp4", ProviderNone, ""},
		{"empty", "", ProviderNone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &pageforge.Element{Type: pageforge.TypeVideo, Src: tt.src, Controls: true}
			got, provider := EmbedURL(e)
			assert.Equal(t, tt.provider, provider)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmbedURLFlags(t *testing.T) {
	e := &pageforge.Element{Type: pageforge.TypeVideo, Src: "https://youtu.be/a", Autoplay: true, Loop: true, Muted: true}
	got, _ := EmbedURL(e)
	assert.Equal(t, "https://www.youtube.com/embed/a?autoplay=1&controls=0&loop=1&mute=1", got)
}

func TestRenderNativeVideo(t *testing.T) {
	e := &pageforge.Element{ID: "v", Type: pageforge.TypeVideo, Src: "/clip.mp4", Controls: true, Muted: true}
	assert.Equal(t, `<video src="/clip.mp4" controls muted></video>`, New().RenderElement(e))

	e.Src = "javascript:alert(1)"
	assert.Equal(t, `<video src="" controls muted></video>`, New().RenderElement(e))
}
