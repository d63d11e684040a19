//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package files

// Folder is one of the three lifecycle directories of a channel
// ENUM(source,done,except)
type Folder string
