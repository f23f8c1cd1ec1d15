package attribution

import "strings"

const productPathPrefix = "/product/"

// ProductSlug extracts :slug from a /product/:slug path.
func ProductSlug(path string) (string, bool) {
	if !strings.HasPrefix(path, productPathPrefix) {
		return "", false
	}
	slug := strings.TrimPrefix(path, productPathPrefix)
	if i := strings.IndexByte(slug, '/'); i >= 0 {
		slug = slug[:i]
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return "", false
	}
	return slug, true
}
