package addon

import "fillerinfo/internal/classifier"

// ExternalURL is linked from every stream.
const ExternalURL = "https://www.animefillerlist.com"

// Stream is one entry of a stream response.
type Stream struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	ExternalURL string `json:"externalUrl"`
}

// StreamResponse is the body of GET /stream/{type}/{id}.json.
type StreamResponse struct {
	Streams []Stream `json:"streams"`
}

// StreamTitle returns the two-line title shown for status.
func StreamTitle(status classifier.Status) string {
	switch status {
	case classifier.StatusFiller:
		return "🚫 FILLER EPISODE\nNot canon - Safe to skip"
	case classifier.StatusMixed:
		return "⚡ MIXED CONTENT\nPartial canon content"
	case classifier.StatusCanon:
		return "✅ CANON EPISODE\nMain storyline"
	default:
		return "ℹ️ NO DATA AVAILABLE\nFiller info not found for this anime"
	}
}

// StreamFor builds the single-stream response for status.
func StreamFor(status classifier.Status) StreamResponse {
	return StreamResponse{Streams: []Stream{{
		Name:        addonName,
		Title:       StreamTitle(status),
		ExternalURL: ExternalURL,
	}}}
}

func emptyStreams() StreamResponse {
	return StreamResponse{Streams: []Stream{}}
}
