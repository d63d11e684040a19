//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// Outcome is the result of publishing one file group
// ENUM(published,routed_to_except)
type Outcome string

// CycleResult is how a posting cycle ended
// ENUM(completed,starved,not_found,unexpected,skipped)
type CycleResult string
