package engine

import (
	"fmt"
	"io"
)

// ListingDescRunes is how much of a description the console listing shows.
const ListingDescRunes = 50

// FormatListingLine renders one numbered console line for a search hit.
func FormatListingLine(n int, item VideoItem) string {
	return fmt.Sprintf("[%d] %s... - author: %s - likes: %d",
		n, TruncateRunes(OneLine(item.Desc), ListingDescRunes, ""), item.Author, item.LikeCount)
}

// WriteListing prints every item as a numbered line, starting at 1.
func WriteListing(w io.Writer, items []VideoItem) error {
	for i, item := range items {
		if _, err := fmt.Fprintln(w, FormatListingLine(i+1, item)); err != nil {
			return err
		}
	}
	return nil
}
