package structs

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// QR login statuses reported by the status check.
const (
	QRWaiting   = "waiting"
	QRScanned   = "scanned"
	QRConfirmed = "confirmed"
	QRExpired   = "expired"
	QRError     = "error"
)

// Login methods
const (
	LoginMethodQR       = "qr"
	LoginMethodPassword = "password"
)

// UserInfo is the account profile scraped after login (nickname,
// followers_count, following_count, weibo_count).
type UserInfo map[string]string

// Nickname returns the account nickname or "unknown".
func (u UserInfo) Nickname() string {
	if n := u["nickname"]; n != "" {
		return n
	}
	return "unknown"
}

// LoginResult is the result of a successful login job.
type LoginResult struct {
	Success     bool     `json:"success"`
	UserInfo    UserInfo `json:"user_info"`
	Message     string   `json:"message"`
	LoginMethod string   `json:"login_method"`
	Username    string   `json:"username,omitempty"`
}

// TimeRange limits listed posts by publish date (YYYY-MM-DD).
type TimeRange struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Criteria selects posts for analysis.
type Criteria struct {
	TimeRange *TimeRange `json:"time_range,omitempty"`
	Keywords  []string   `json:"keywords,omitempty"`
	MaxPosts  int        `json:"max_posts"`
}

// Post is one item of the account's timeline.
type Post struct {
	ID           string `json:"id"`
	Content      string `json:"content"`
	PublishTime  string `json:"publish_time"`
	RepostCount  int    `json:"repost_count"`
	CommentCount int    `json:"comment_count"`
	LikeCount    int    `json:"like_count"`
	HasMedia     bool   `json:"has_media"`
	URL          string `json:"url"`
}

// RiskAssessment scores a post. Score is always within [0, 10].
type RiskAssessment struct {
	Score      float64  `json:"risk_score"`
	Reasons    []string `json:"risk_reasons"`
	Category   string   `json:"risk_category"`
	Suggestion string   `json:"suggestion"`
}

// AnalyzedPost is the reporting view of an assessed post.
type AnalyzedPost struct {
	PostID       string  `json:"post_id"`
	Content      string  `json:"content"`
	Date         string  `json:"date"`
	RiskScore    float64 `json:"risk_score"`
	RiskReason   string  `json:"risk_reason"`
	RiskCategory string  `json:"risk_category,omitempty"`
	Suggestion   string  `json:"suggestion,omitempty"`
	URL          string  `json:"url,omitempty"`
	Original     Post    `json:"original_weibo"`
}

// ContentPreviewLength is the number of characters kept in reports.
const ContentPreviewLength = 200

// NewAnalyzedPost joins a post with its assessment.
func NewAnalyzedPost(p Post, a RiskAssessment) AnalyzedPost {
	return AnalyzedPost{
		PostID:       p.ID,
		Content:      Preview(p.Content, ContentPreviewLength),
		Date:         p.PublishTime,
		RiskScore:    ClampScore(a.Score),
		RiskReason:   strings.Join(a.Reasons, "; "),
		RiskCategory: a.Category,
		Suggestion:   a.Suggestion,
		URL:          p.URL,
		Original:     p,
	}
}

// Preview cuts s to n characters and marks the cut with "...".
func Preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// ClampScore limits a score to [0, 10].
func ClampScore(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 10:
		return 10
	}
	return v
}

// Risk bands
const (
	HighRiskThreshold   = 7.0
	MediumRiskThreshold = 4.0
)

// AnalysisReport is the result of an analyze job.
type AnalysisReport struct {
	Success       bool           `json:"success"`
	TotalAnalyzed int            `json:"total_analyzed"`
	HighRisk      int            `json:"high_risk_count"`
	MediumRisk    int            `json:"medium_risk_count"`
	LowRisk       int            `json:"low_risk_count"`
	AnalyzedPosts []AnalyzedPost `json:"analyzed_posts"`
	Criteria      Criteria       `json:"criteria"`
}

// NewAnalysisReport counts risk bands over posts, which are expected sorted.
func NewAnalysisReport(posts []AnalyzedPost, criteria Criteria) *AnalysisReport {
	r := &AnalysisReport{
		Success:       true,
		TotalAnalyzed: len(posts),
		AnalyzedPosts: posts,
		Criteria:      criteria,
	}
	if r.AnalyzedPosts == nil {
		r.AnalyzedPosts = []AnalyzedPost{}
	}
	for _, p := range posts {
		switch {
		case p.RiskScore >= HighRiskThreshold:
			r.HighRisk++
		case p.RiskScore >= MediumRiskThreshold:
			r.MediumRisk++
		default:
			r.LowRisk++
		}
	}
	return r
}

// AccountState is the login state shared by every process serving an
// account.
type AccountState struct {
	LoggedIn bool     `json:"logged_in"`
	UserInfo UserInfo `json:"user_info,omitempty"`
}

// DeleteOutcome is the result of one deletion attempt.
type DeleteOutcome struct {
	PostID    string `json:"post_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// NewDeleteOutcome stamps an outcome with the current time.
func NewDeleteOutcome(id string, err error) DeleteOutcome {
	o := DeleteOutcome{PostID: id, Success: err == nil, Timestamp: time.Now().Format(time.RFC3339)}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

// BatchDeleteResult partitions a batch. SuccessfulCount + FailedCount always
// equals TotalRequested.
type BatchDeleteResult struct {
	Success         bool            `json:"success"`
	TotalRequested  int             `json:"total_requested"`
	SuccessfulCount int             `json:"successful_count"`
	FailedCount     int             `json:"failed_count"`
	Successful      []DeleteOutcome `json:"successful_deletes"`
	Failed          []DeleteOutcome `json:"failed_deletes"`
	CompletionTime  string          `json:"completion_time"`
}

// NewBatchDeleteResult prepares empty partitions for total posts.
func NewBatchDeleteResult(total int) *BatchDeleteResult {
	return &BatchDeleteResult{
		TotalRequested: total,
		Successful:     []DeleteOutcome{},
		Failed:         []DeleteOutcome{},
	}
}

// Add appends an outcome to its partition.
func (b *BatchDeleteResult) Add(o DeleteOutcome) {
	if o.Success {
		b.Successful = append(b.Successful, o)
		b.SuccessfulCount++
	} else {
		b.Failed = append(b.Failed, o)
		b.FailedCount++
	}
}

// DeletedIDs returns the ids deleted so far in a new slice.
func (b *BatchDeleteResult) DeletedIDs() []string {
	ids := make([]string, len(b.Successful))
	for i, o := range b.Successful {
		ids[i] = o.PostID
	}
	return ids
}

// Complete stamps the completion time.
func (b *BatchDeleteResult) Complete() {
	b.Success = true
	b.CompletionTime = time.Now().Format(time.RFC3339)
}

// Event is a progress notification emitted by long running operations.
// Current and Total are set for per-item progress.
type Event struct {
	Message string
	Current int
	Total   int
	Meta    map[string]any
}
