package domain

// ChatResult is what a chat turn produces. Provider failures are folded into
// Success=false with a human-readable Response; callers never see a raw
// provider error.
type ChatResult struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}
