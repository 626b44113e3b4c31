package models

// UploadRecord is a file staged by the upload client. DerivedURL stays empty
// until the upload endpoint answered with a gateway URL.
type UploadRecord struct {
	FileName   string `json:"file_name"`
	Data       []byte `json:"-"`
	DerivedURL string `json:"derived_url,omitempty"`
}

// UploadResponse is the body returned by the upload endpoint.
type UploadResponse struct {
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}
