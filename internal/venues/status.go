package venues

type VenueStatus string

const (
	StatusDraft     VenueStatus = "draft"
	StatusPublished VenueStatus = "published"
	StatusArchived  VenueStatus = "archived"
)
