package domain

// Photo is one image of a media group. Caption is set on the first photo only.
type Photo struct {
	Path    string
	Caption string
}
