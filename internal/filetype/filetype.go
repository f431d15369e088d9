// Package filetype classifies uploaded bytes into a trustworthy MIME type and
// extension. Client-declared content types are never consulted: the sniffed
// type wins, with the client filename used only as a fallback hint.
package filetype

import (
	"net/http"
	"path/filepath"
	"strings"
)

// DefaultMime is the generic binary type used when nothing better is known.
const DefaultMime = "application/octet-stream"

// sniffLimit caps how many leading bytes are fed to the sniffer.
const sniffLimit = 512

// allowedMimes is the upload allow-list: text, a fixed set of image formats,
// common archives and generic binary.
var allowedMimes = map[string]bool{
	"text/markdown":               true,
	"text/x-markdown":             true,
	"text/plain":                  true,
	"image/svg+xml":               true,
	"image/webp":                  true,
	"image/png":                   true,
	"image/jpeg":                  true,
	"image/gif":                   true,
	"application/zip":             true,
	"application/gzip":            true,
	"application/x-gzip":          true,
	"application/x-tar":           true,
	"application/x-7z-compressed": true,
	"application/octet-stream":    true,
}

// allowedExts gates uploads whose sniffed type is inconclusive.
var allowedExts = map[string]bool{
	"md": true, "svg": true, "webp": true, "png": true, "jpeg": true,
	"jpg": true, "gif": true, "txt": true, "zip": true, "gz": true,
	"tgz": true, "tar": true, "7z": true, "bin": true, "exe": true,
}

// forbiddenAttachmentExts are executable/script-like extensions that must
// never be stored as public trick attachments, even when the general
// allow-list would accept them.
var forbiddenAttachmentExts = map[string]bool{
	"html": true, "htm": true, "js": true, "php": true, "py": true,
	"pl": true, "sh": true, "bash": true, "cgi": true,
}

// extByMime maps known types to their canonical extension.
var extByMime = map[string]string{
	"image/png":                   "png",
	"image/jpeg":                  "jpg",
	"image/gif":                   "gif",
	"image/webp":                  "webp",
	"image/svg+xml":               "svg",
	"text/plain":                  "txt",
	"text/markdown":               "md",
	"text/x-markdown":             "md",
	"application/zip":             "zip",
	"application/gzip":            "gz",
	"application/x-gzip":          "gz",
	"application/x-tar":           "tar",
	"application/x-7z-compressed": "7z",
}

// mimeByExt resolves filename extensions when sniffing is inconclusive.
var mimeByExt = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"txt":  "text/plain",
	"md":   "text/markdown",
	"zip":  "application/zip",
	"gz":   "application/gzip",
	"tgz":  "application/gzip",
	"tar":  "application/x-tar",
	"7z":   "application/x-7z-compressed",
}

// Detect sniffs the content type from the leading bytes and derives a
// matching extension. When the sniffer reports only a generic type, the
// client-supplied filename extension is used as a hint; the final fallback is
// application/octet-stream with extension "bin".
func Detect(data []byte, clientName string) (mime, ext string) {
	sample := data
	if len(sample) > sniffLimit {
		sample = sample[:sniffLimit]
	}

	mime = baseMime(http.DetectContentType(sample))
	nameExt := Ext(clientName)

	// text/plain and octet-stream are the sniffer's "don't know" answers;
	// trust the filename over them when it names a known type.
	if mime == DefaultMime || mime == "text/plain" {
		if byName, ok := mimeByExt[nameExt]; ok {
			mime = byName
		} else if mime != "text/plain" {
			mime = DefaultMime
		}
	}

	if e, ok := extByMime[mime]; ok {
		ext = e
	} else if nameExt != "" {
		ext = nameExt
	} else {
		ext = "bin"
	}

	return mime, ext
}

// Allowed reports whether the (sniffed mime, client filename) pair passes the
// upload allow-list.
func Allowed(mime, clientName string) bool {
	if allowedMimes[mime] {
		return true
	}
	return allowedExts[Ext(clientName)]
}

// ForbiddenAttachment reports whether the extension is barred from the public
// trick-attachment path.
func ForbiddenAttachment(ext string) bool {
	return forbiddenAttachmentExts[strings.ToLower(ext)]
}

// IsImage reports whether the mime is any image type.
func IsImage(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}

// Ext returns the lowercased filename extension without the dot.
func Ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// baseMime strips parameters such as "; charset=utf-8".
func baseMime(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.TrimSpace(mime)
}
