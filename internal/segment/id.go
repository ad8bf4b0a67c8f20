package segment

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// IDLength is the number of hex characters kept from the digest.
const IDLength = 12

// ID returns the content-addressed identifier of text: the lowercase hex MD5
// digest of its UTF-8 bytes truncated to IDLength characters.
// Identifiers are stable across runs and platforms; file names and ingestion
// metadata depend on that.
func ID(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])[:IDLength]
}

// PageID returns the identifier of the page at url.
func PageID(url string) string {
	return ID(url)
}

// SectionID returns the identifier of the ordinal-th section of url.
func SectionID(url string, ordinal int, title string) string {
	return ID(fmt.Sprintf("%s#%d#%s", url, ordinal, title))
}

// ParagraphID returns the identifier of the ordinal-th paragraph of url.
func ParagraphID(url string, ordinal int) string {
	return ID(fmt.Sprintf("%s#para#%d", url, ordinal))
}
