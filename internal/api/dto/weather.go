package dto

type BackfillResponse struct {
	Done      int    `json:"done"`
	Remaining int    `json:"remaining"`
	Error     string `json:"error,omitempty"`
}

type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}
