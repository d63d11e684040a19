//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// PostStatus represents how a publication attempt ended
// ENUM(published,failed,rejected)
type PostStatus string
