//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// MaxItems is how many published posts a feed carries.
const MaxItems = 50

// Format is the serialization of a channel feed
// ENUM(rss,atom,json)
type Format string

// ContentType returns the HTTP content type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatAtom:
		return "application/atom+xml; charset=utf-8"
	case FormatJson:
		return "application/feed+json; charset=utf-8"
	}
	return "application/rss+xml; charset=utf-8"
}
