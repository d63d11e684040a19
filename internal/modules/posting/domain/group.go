package domain

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// MaxImages is how many images one post may carry.
const MaxImages = 3

// CaptionExtensions and ImageExtensions decide how group members are classified.
var (
	CaptionExtensions = []string{".txt"}
	ImageExtensions   = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".bmp"}
)

// Group is the set of source files sharing a numeric key.
type Group struct {
	Key     string
	Members []string
}

// Publication is a group prepared for sending.
type Publication struct {
	Key string
	// Captions holds every caption member; the first one is sent.
	Captions []string
	// Images are the selected images, at most the configured maximum.
	Images []string
	// Excess are images beyond the maximum.
	Excess []string
	// Unknown are members with an unrecognised extension.
	Unknown []string
}

// Caption returns the caption file that is sent, or "" when there is none.
func (p Publication) Caption() string {
	if len(p.Captions) == 0 {
		return ""
	}
	return p.Captions[0]
}

// Prepared lists the files that take part in the send.
func (p Publication) Prepared() []string {
	return append(append([]string{}, p.Captions...), p.Images...)
}

// Leftovers lists members that are not sent.
func (p Publication) Leftovers() []string {
	return append(append([]string{}, p.Excess...), p.Unknown...)
}

// GroupKey returns the part of a filename before the first "_" or ".".
func GroupKey(filename string) string {
	if i := strings.IndexAny(filename, "._"); i >= 0 {
		return filename[:i]
	}
	return filename
}

// GroupFiles partitions filenames by GroupKey. Members keep input order.
func GroupFiles(filenames []string) map[string]*Group {
	buckets := lo.GroupBy(filenames, GroupKey)
	return lo.MapValues(buckets, func(members []string, key string) *Group {
		return &Group{Key: key, Members: members}
	})
}

// Keys returns group keys in lexicographic order.
func Keys(groups map[string]*Group) []string {
	keys := lo.Keys(groups)
	sort.Strings(keys)
	return keys
}

// Classify splits members by extension into captions, images and the rest.
func Classify(members []string) (captions, images, unknown []string) {
	for _, m := range members {
		ext := strings.ToLower(filepath.Ext(m))
		switch {
		case lo.Contains(CaptionExtensions, ext):
			captions = append(captions, m)
		case lo.Contains(ImageExtensions, ext):
			images = append(images, m)
		default:
			unknown = append(unknown, m)
		}
	}
	return captions, images, unknown
}

// Prepare classifies the group and selects at most maxImages images in
// lexicographic order.
func (g *Group) Prepare(maxImages int) Publication {
	if maxImages <= 0 {
		maxImages = MaxImages
	}

	captions, images, unknown := Classify(g.Members)
	sort.Strings(captions)
	sort.Strings(images)
	sort.Strings(unknown)

	pub := Publication{Key: g.Key, Captions: captions, Unknown: unknown}
	if len(images) > maxImages {
		pub.Images = images[:maxImages]
		pub.Excess = images[maxImages:]
	} else {
		pub.Images = images
	}
	return pub
}
