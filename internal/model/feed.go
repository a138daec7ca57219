package model

// Video is one YouTube upload from a whitelisted channel.
type Video struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	Thumbnail   string `json:"thumbnail"`
	Description string `json:"description"`
	PublishedAt string `json:"publishedAt"`
}

// Paper is one research paper discovered from arXiv.
type Paper struct {
	URL     string   `json:"url"`
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Date    string   `json:"date"`
	Summary string   `json:"summary"`
}

// FeedSnapshot is the persisted output of a forge run. It is read once at
// the start of a run and written once, atomically, at the end.
type FeedSnapshot struct {
	Items       []*Article `json:"items"`
	Videos      []Video    `json:"videos"`
	Research    []Paper    `json:"research"`
	LastUpdated string     `json:"last_updated"`
}

// EmptySnapshot returns a snapshot with all sections initialized, for
// first runs with no prior history.
func EmptySnapshot() *FeedSnapshot {
	return &FeedSnapshot{
		Items:    []*Article{},
		Videos:   []Video{},
		Research: []Paper{},
	}
}
