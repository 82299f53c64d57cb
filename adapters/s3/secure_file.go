package s3

// SecureImageMIMETypesExtension lists the image MIME types accepted for lot
// photos together with the file extension used for the stored object.
var SecureImageMIMETypesExtension = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/bmp":  "bmp",
	"image/tiff": "tiff",
	"image/webp": "webp",
}

// DocumentMIMETypesExtension lists the MIME types accepted for user
// documents: PDFs and the two photo formats the review desk can open.
var DocumentMIMETypesExtension = map[string]string{
	"application/pdf": "pdf",
	"image/jpeg":      "jpeg",
	"image/png":       "png",
}

// CheckSecureImageAndGetExtension reports whether mimeType is an allowed lot
// photo type and returns the matching extension.
func CheckSecureImageAndGetExtension(mimeType string) (bool, string) {
	ext, ok := SecureImageMIMETypesExtension[mimeType]
	return ok, ext
}

// CheckDocumentAndGetExtension reports whether mimeType is an allowed user
// document type and returns the matching extension.
func CheckDocumentAndGetExtension(mimeType string) (bool, string) {
	ext, ok := DocumentMIMETypesExtension[mimeType]
	return ok, ext
}
