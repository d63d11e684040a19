//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// ParseMode is the text formatting mode used when sending captions
// ENUM(html,markdown,markdownv2)
type ParseMode string
