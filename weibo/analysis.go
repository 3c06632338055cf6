package weibo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ncobase/weibo-agent/logging/logger"
	"github.com/ncobase/weibo-agent/metrics"
	"github.com/ncobase/weibo-agent/weibo/extract"
	"github.com/ncobase/weibo-agent/weibo/retry"
	"github.com/ncobase/weibo-agent/weibo/structs"
)

// Keyword classifier results.
const (
	KeywordCategory   = "keyword-detection"
	KeywordSuggestion = "recommend manual review"
	SafeReason        = "content relatively safe"
	SafeScore         = 2.0
	HighKeywordScore  = 8.0
	MedKeywordScore   = 5.0
)

var (
	highRiskTerms   = []string{"政治", "敏感", "抗议", "游行", "political", "sensitive", "protest", "demonstration"}
	mediumRiskTerms = []string{"抱怨", "投诉", "不满", "愤怒", "complain", "dissatisfied", "angry", "outrage"}
)

// Classify scores content by keyword matching. It never fails.
func Classify(content string) structs.RiskAssessment {
	text := strings.ToLower(content)
	score := 0.0
	var reasons []string

	for _, term := range highRiskTerms {
		if strings.Contains(text, term) {
			score = max(score, HighKeywordScore)
			reasons = append(reasons, "contains high risk keyword: "+term)
		}
	}
	for _, term := range mediumRiskTerms {
		if strings.Contains(text, term) {
			score = max(score, MedKeywordScore)
			reasons = append(reasons, "contains medium risk keyword: "+term)
		}
	}
	if len(reasons) == 0 {
		score = SafeScore
		reasons = []string{SafeReason}
	}

	return structs.RiskAssessment{
		Score:      score,
		Reasons:    reasons,
		Category:   KeywordCategory,
		Suggestion: KeywordSuggestion,
	}
}

// AnalyzePost scores one post with the LLM, falling back to Classify when the
// LLM keeps failing or its answer cannot be read.
func (s *Session) AnalyzePost(ctx context.Context, p structs.Post) structs.AnalyzedPost {
	a, err := s.assess(ctx, p)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn(ctx, "llm analysis failed, using keyword classifier", "post_id", p.ID, "error", err)
		}
		a = Classify(p.Content)
	}
	return structs.NewAnalyzedPost(p, a)
}

func (s *Session) assess(ctx context.Context, p structs.Post) (structs.RiskAssessment, error) {
	if s.llm == nil {
		return structs.RiskAssessment{}, ErrNoCompleter
	}

	out := retry.Do(ctx, func(ctx context.Context) (string, error) {
		return s.llm.Complete(ctx, analyzeTask(p))
	}, s.retryOptions(ctx, "analyze")...)
	if out.Err != nil {
		return structs.RiskAssessment{}, fmt.Errorf("analysis failed after %d attempts: %w", out.Attempts, out.Err)
	}

	rec, err := extract.Extract(out.Value)
	if err != nil {
		return structs.RiskAssessment{}, err
	}
	return structs.RiskAssessment{
		Score:      rec.ClampFloat("risk_score", 0, 10, 0),
		Reasons:    rec.Strings("risk_reasons"),
		Category:   rec.String("risk_category", ""),
		Suggestion: rec.String("suggestion", ""),
	}, nil
}

// AnalyzePosts lists the posts matching c, scores each of them and returns
// them sorted by descending risk. Cancellation is checked between posts.
func (s *Session) AnalyzePosts(ctx context.Context, c structs.Criteria, events chan<- Event) (*structs.AnalysisReport, error) {
	posts, err := s.ListPosts(ctx, c, events)
	if err != nil {
		return nil, err
	}
	if c.MaxPosts <= 0 {
		c.MaxPosts = DefaultMaxPosts
	}
	if len(posts) == 0 {
		return structs.NewAnalysisReport(nil, c), nil
	}

	total := len(posts)
	emit(ctx, events, Event{Message: fmt.Sprintf("analyzing %d posts", total), Total: total})

	analyzed := make([]structs.AnalyzedPost, 0, total)
	for i, p := range posts {
		if i > 0 {
			if err := sleep(ctx, s.cfg.AnalyzeInterval); err != nil {
				return nil, err
			}
		} else if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}

		emit(ctx, events, Event{Message: fmt.Sprintf("analysis progress: %d/%d", i+1, total), Current: i + 1, Total: total})
		analyzed = append(analyzed, s.AnalyzePost(ctx, p))
	}
	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}

	sort.SliceStable(analyzed, func(i, j int) bool {
		return analyzed[i].RiskScore > analyzed[j].RiskScore
	})

	report := structs.NewAnalysisReport(analyzed, c)
	metrics.PostsAnalyzed(report.HighRisk, report.MediumRisk, report.LowRisk)
	return report, nil
}
