package domain

import (
	"fmt"
	"strings"
	"sync"
)

// filenameSanitizer removes characters that are illegal in Windows filenames,
// the strictest target filesystem the renamer has to satisfy.
var filenameSanitizer = strings.NewReplacer(
	"<", "-", ">", "-", ":", "-", `"`, "-",
	"/", "-", `\`, "-", "|", "-", "?", "-", "*", "-",
)

// SanitizeFilename replaces filesystem-hostile characters with hyphens.
func SanitizeFilename(name string) string {
	return filenameSanitizer.Replace(name)
}

// BaseName assembles the descriptive filename stem for a receipt. The three
// segments are always present; missing extractions fall back to their
// placeholder forms so every receipt in a batch shares one shape.
func BaseName(category Category, date *Date, amount *Amount) string {
	return SanitizeFilename(fmt.Sprintf("%s - %s - $%s", category, DisplayDate(date), DisplayAmount(amount)))
}

// CollisionRegistry tracks base names issued within one batch so duplicate
// stems resolve deterministically. One registry serves exactly one batch and
// must see every finalized name, in batch order.
type CollisionRegistry struct {
	mu     sync.Mutex
	issued map[string]int
}

func NewCollisionRegistry() *CollisionRegistry {
	return &CollisionRegistry{issued: make(map[string]int)}
}

// Resolve finalizes a name for the given stem and extension. The first
// request for a stem gets it untouched; request n gets " (n-1)" appended
// before the extension. The second return reports whether a collision was
// resolved.
func (r *CollisionRegistry) Resolve(base, ext string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.issued[base]
	r.issued[base] = n + 1
	if n == 0 {
		return base + ext, false
	}
	return fmt.Sprintf("%s (%d)%s", base, n, ext), true
}

// Issued reports how many names have been finalized for a stem.
func (r *CollisionRegistry) Issued(base string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.issued[base]
}
