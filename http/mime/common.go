package mime

type MIME = string

const (
	OctetStream    MIME = "application/octet-stream"
	Plain          MIME = "text/plain"
	HTML           MIME = "text/html"
	XML            MIME = "text/xml"
	JSON           MIME = "application/json"
	YAML           MIME = "application/yaml"
	FormUrlencoded MIME = "application/x-www-form-urlencoded"
	Multipart      MIME = "multipart/form-data"
)

// WithCharset returns the value of Content-Type header of the MIME with the charset parameter.
func WithCharset(mime MIME, charset Charset) string {
	if len(charset) == 0 {
		return mime
	}

	return mime + "; charset=" + charset
}
