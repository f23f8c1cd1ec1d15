package request

type TrackVisitRequest struct {
	URL      string `json:"url"`
	Referrer string `json:"referrer"`
}
