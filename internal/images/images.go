// Package images builds CDN image URLs. Course covers and blog images are
// referenced in the database by asset ID or full URL; this package turns
// them into Cloudflare-resized URLs with srcset variants for responsive
// rendering.
package images

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// resizerPath is Cloudflare's on-the-fly image resizing prefix.
const resizerPath = "/cdn-cgi/image"

// defaultWidths are the srcset variants generated when the caller does not
// ask for specific widths.
var defaultWidths = []int{240, 360, 480, 640, 960}

// extensionRe matches a trailing file extension like .jpg or .webp.
var extensionRe = regexp.MustCompile(`\.[a-z0-9]{2,4}$`)

// Builder constructs image URLs against a configured CDN origin.
// Create one at startup and share it; it is immutable and goroutine safe.
type Builder struct {
	cdnBase string
}

// NewBuilder creates a Builder for the given CDN origin
// (e.g., "https://assets.jadihebat.com").
func NewBuilder(cdnBase string) *Builder {
	return &Builder{cdnBase: strings.TrimRight(cdnBase, "/")}
}

// Options controls resizing parameters.
type Options struct {
	// Widths overrides the default srcset widths.
	Widths []int

	// Quality is the JPEG/WebP quality (default 75).
	Quality int

	// Format is the output format: "auto", "webp", "avif", "jpeg"
	// (default "auto").
	Format string

	// SkipCDN returns the raw asset URL without resizing parameters.
	SkipCDN bool
}

// Sources is a src/srcset pair ready for an <img> element.
type Sources struct {
	Src    string `json:"src"`
	SrcSet string `json:"srcset"`
}

// Sources builds a responsive src/srcset pair for an asset ID or URL.
// External URLs pass through untouched with an empty srcset, since the
// resizer only serves assets from our own CDN.
func (b *Builder) Sources(idOrURL string, opts Options) Sources {
	if idOrURL == "" {
		return Sources{}
	}

	base := b.normalize(idOrURL)
	if base == "" || b.isExternal(base) {
		return Sources{Src: base}
	}

	widths := opts.Widths
	if len(widths) == 0 {
		widths = defaultWidths
	}
	quality := opts.Quality
	if quality == 0 {
		quality = 75
	}
	format := opts.Format
	if format == "" {
		format = "auto"
	}

	if opts.SkipCDN {
		return Sources{Src: base}
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return Sources{Src: base}
	}

	variants := make([]string, 0, len(widths))
	for _, w := range widths {
		variants = append(variants,
			fmt.Sprintf("%s %dw", b.resizeURL(parsed.Path, w, quality, format), w))
	}

	// The middle width is a reasonable default for browsers that ignore
	// srcset.
	mid := widths[len(widths)/2]

	return Sources{
		Src:    b.resizeURL(parsed.Path, mid, quality, format),
		SrcSet: strings.Join(variants, ", "),
	}
}

// URL returns a plain CDN URL for an asset ID, or the input unchanged when
// it is already a full URL. Used for avatars and other images that don't
// need a srcset.
func (b *Builder) URL(idOrURL string) string {
	if idOrURL == "" {
		return ""
	}
	if strings.HasPrefix(idOrURL, "http://") || strings.HasPrefix(idOrURL, "https://") {
		return idOrURL
	}
	return b.cdnBase + "/" + idOrURL
}

// normalize turns a bare asset ID into a full CDN URL. IDs without an
// extension get .jpg appended, matching how assets are stored.
func (b *Builder) normalize(idOrURL string) string {
	if strings.HasPrefix(idOrURL, "http://") || strings.HasPrefix(idOrURL, "https://") {
		return idOrURL
	}
	path := idOrURL
	if !extensionRe.MatchString(path) {
		path += ".jpg"
	}
	return b.cdnBase + "/" + path
}

// isExternal reports whether the URL points outside our CDN.
func (b *Builder) isExternal(rawURL string) bool {
	return (strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")) &&
		!strings.HasPrefix(rawURL, b.cdnBase)
}

// resizeURL builds a Cloudflare resizer URL for one width variant.
func (b *Builder) resizeURL(assetPath string, width, quality int, format string) string {
	params := fmt.Sprintf("width=%d,quality=%d,format=%s", width, quality, format)
	return b.cdnBase + resizerPath + "/" + params + "/" + strings.TrimPrefix(assetPath, "/")
}
