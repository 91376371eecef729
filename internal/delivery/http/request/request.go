package request

type SubmitMirrorRequest struct {
	URL         string `json:"url"`
	OnlyHost    string `json:"only_host"`
	OnPageError string `json:"on_page_error"` // "abort" or "skip", empty uses the server default
}
