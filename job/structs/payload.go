package structs

import weibo "github.com/ncobase/weibo-agent/weibo/structs"

// LoginPayload starts a QR login, or a password login when UsePassword is
// set.
type LoginPayload struct {
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	UsePassword bool   `json:"use_password"`
}

// Redacted hides the password for logs.
func (p LoginPayload) Redacted() LoginPayload {
	if p.Password != "" {
		p.Password = "******"
	}
	return p
}

// AnalyzePayload selects the posts to score.
type AnalyzePayload struct {
	Criteria weibo.Criteria `json:"criteria"`
}

// DeletePayload lists the posts to delete.
type DeletePayload struct {
	PostIDs []string `json:"post_ids"`
}
