package render

import (
	"net/url"
	"strings"

	"github.com/livetemplate/pageforge"
	"github.com/livetemplate/pageforge/internal/security"
)

// Provider identifies a video host that is embedded through an iframe.
type Provider string

const (
	ProviderNone    Provider = ""
	ProviderYouTube Provider = "youtube"
	ProviderVimeo   Provider = "vimeo"
)

const (
	youTubeAllow = "accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture"
	vimeoAllow   = "autoplay; fullscreen; picture-in-picture"
)

// EmbedURL returns the iframe URL for a video element whose src points at a
// known provider, with the playback flags as query parameters.
func EmbedURL(e *pageforge.Element) (string, Provider) {
	provider, id := videoID(e.Src)
	switch provider {
	case ProviderYouTube:
		return "https://www.youtube.com/embed/" + url.PathEscape(id) +
			"?autoplay=" + boolParam(e.Autoplay) +
			"&controls=" + boolParam(e.Controls) +
			"&loop=" + boolParam(e.Loop) +
			"&mute=" + boolParam(e.Muted), provider
	case ProviderVimeo:
		return "https://player.vimeo.com/video/" + url.PathEscape(id) +
			"?autoplay=" + boolParam(e.Autoplay) +
			"&loop=" + boolParam(e.Loop) +
			"&muted=" + boolParam(e.Muted), provider
	}
	return "", ProviderNone
}

// videoID extracts the provider video id from youtube.com/embed/ID,
// youtube.com/watch?v=ID, youtube.com/shorts/ID, youtu.be/ID,
// vimeo.com/ID and player.vimeo.com/video/ID.
func videoID(src string) (Provider, string) {
	u, err := url.Parse(strings.TrimSpace(src))
	if err != nil || u.Host == "" {
		return ProviderNone, ""
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	segments := pathSegments(u.Path)

	switch host {
	case "youtube.com", "youtube-nocookie.com":
		if v := u.Query().Get("v"); v != "" && len(segments) > 0 && segments[0] == "watch" {
			return ProviderYouTube, v
		}
		if len(segments) == 2 && (segments[0] == "embed" || segments[0] == "shorts" || segments[0] == "v") {
			return ProviderYouTube, segments[1]
		}
	case "youtu.be":
		if len(segments) == 1 {
			return ProviderYouTube, segments[0]
		}
	case "vimeo.com", "player.vimeo.com":
		if len(segments) > 0 {
			return ProviderVimeo, segments[len(segments)-1]
		}
	}
	return ProviderNone, ""
}

func pathSegments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (w *writer) video(e *pageforge.Element) {
	if embed, provider := EmbedURL(e); provider != ProviderNone {
		allow := youTubeAllow
		if provider == ProviderVimeo {
			allow = vimeoAllow
		}
		w.WriteString("<iframe")
		w.attr("src", embed)
		w.attr("title", e.Name)
		w.classes(e, nil)
		w.style(e.Styles)
		w.attr("frameborder", "0")
		w.attr("allow", allow)
		w.WriteString(" allowfullscreen></iframe>")
		return
	}

	w.WriteString("<video")
	w.attr("src", security.SafeMedia(e.Src))
	if e.Controls {
		w.WriteString(" controls")
	}
	if e.Autoplay {
		w.WriteString(" autoplay")
	}
	if e.Loop {
		w.WriteString(" loop")
	}
	if e.Muted {
		w.WriteString(" muted")
	}
	w.classes(e, nil)
	w.style(e.Styles)
	w.WriteString("></video>")
}
