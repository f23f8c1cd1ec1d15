package visitdto

type TrackVisitInput struct {
	VisitorID   string
	URL         string // landing page, absolute or path with query
	ReferrerURL string
	UserAgent   string
}

type CurrentAttributionInput struct {
	VisitorID string
}

type ClearAttributionInput struct {
	VisitorID string
	Channel   string
}
