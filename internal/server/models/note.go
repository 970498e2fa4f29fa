package models

import (
	"strings"
	"unicode/utf8"
)

type Note struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Category string   `json:"category"`
}

// CharCount is the number of characters (not bytes) in Content.
func (n Note) CharCount() int {
	return utf8.RuneCountInString(n.Content)
}

// ParseTags splits a comma separated list, trimming blanks.
func ParseTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
