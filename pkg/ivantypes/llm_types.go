package ivantypes

// ServiceResponse is the reply contract of the model invocation service.
// Text is the conversational reply shown in the transcript. Code carries a
// pre-extracted artifact when the upstream service already separated it; an
// empty Code means the caller must run extraction over Text itself. Both
// upstream modes are supported.
type ServiceResponse struct {
	Text string `json:"text"`
	Code string `json:"code,omitempty"`
}

// HasCode reports whether the upstream service pre-extracted an artifact.
func (r ServiceResponse) HasCode() bool {
	return r.Code != ""
}
