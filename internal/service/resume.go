package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/job_tracker/internal/ai"
	"github.com/Skotchmaster/job_tracker/internal/events"
	"github.com/Skotchmaster/job_tracker/internal/models"
	"github.com/Skotchmaster/job_tracker/internal/pdf"
	"github.com/Skotchmaster/job_tracker/internal/repo"
	"github.com/Skotchmaster/job_tracker/pkg/logging"
)

const (
	maxHighlights  = 6
	historyLimit   = 50
	timeoutMessage = "analysis service is waking up, please retry"
)

type ResumeService struct {
	Repo   *repo.GormRepo
	AI     ai.Completer
	Events events.Publisher
	// Extract defaults to pdf.ExtractText.
	Extract func(data []byte) (string, error)
}

type AnalysisResult struct {
	models.ResumeAnalysis
	ResumeText string `json:"resumeText"`
}

type ComparisonResult struct {
	MatchScore      float64  `json:"matchScore"`
	JDKeywords      []string `json:"jdKeywords"`
	MissingSkills   []string `json:"missingSkills"`
	Recommendations []string `json:"recommendations"`
}

type analysisReply struct {
	Summary         string   `json:"summary"`
	ExtractedSkills []string `json:"extractedSkills"`
	MissingKeywords []string `json:"missingKeywords"`
	Highlights      []string `json:"highlights"`
	Score           float64  `json:"score"`
}

type keywordsReply struct {
	Keywords []string `json:"keywords"`
}

var pdfContentTypes = map[string]bool{
	"":                         true,
	"application/pdf":          true,
	"application/x-pdf":        true,
	"application/octet-stream": true,
}

func (s *ResumeService) AnalyzeResume(ctx context.Context, userID uuid.UUID, data []byte, filename, contentType, jd string) (*AnalysisResult, error) {
	l := logging.FromContext(ctx).With("svc", "resume.analyze")

	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if !pdfContentTypes[ct] {
		l.Warn("resume_rejected", "status", 400, "reason", "content type", "content_type", ct, "filename", filename)
		return nil, newErr(ErrUnprocessableInput, "only PDF files are accepted")
	}

	text, err := s.extract(data)
	if err != nil {
		l.Warn("resume_rejected", "status", 400, "reason", err.Error(), "filename", filename, "size", len(data))
		return nil, newErr(ErrUnprocessableInput, pdfMessage(err))
	}

	jd = strings.TrimSpace(jd)

	raw, err := s.AI.Complete(ctx, analysisPrompt(text, jd))
	if err != nil {
		l.Error("resume_analysis_error", "status", 502, "error", err)
		return nil, upstreamErr(err)
	}
	var reply analysisReply
	if err := ai.DecodeJSON(ctx, raw, ai.AnalysisSchema, &reply); err != nil {
		l.Error("resume_analysis_error", "status", 502, "reason", "bad reply format", "error", err)
		return nil, upstreamErr(err)
	}

	jdKeywords := []string{}
	if jd != "" {
		jdKeywords, err = s.extractKeywords(ctx, jd)
		if err != nil {
			l.Error("resume_keywords_error", "status", 502, "error", err)
			return nil, err
		}
	}

	analysis := models.ResumeAnalysis{
		UserID:          userID,
		Summary:         strings.TrimSpace(reply.Summary),
		ExtractedSkills: cleanList(reply.ExtractedSkills),
		MissingKeywords: cleanList(reply.MissingKeywords),
		Highlights:      cleanList(reply.Highlights),
		JDKeywords:      jdKeywords,
		Score:           clampScore(reply.Score),
		RawText:         text,
		JobDescription:  jd,
	}
	if len(analysis.Highlights) > maxHighlights {
		analysis.Highlights = analysis.Highlights[:maxHighlights]
	}
	if jd == "" {
		analysis.MissingKeywords = []string{}
	}

	if err := s.Repo.CreateAnalysis(ctx, &analysis); err != nil {
		l.Error("resume_save_error", "status", 500, "error", err)
		return nil, err
	}

	events.Emit(ctx, s.Events, l, events.TopicUsers, events.Event{
		Type: "resume_analyzed", UserID: userID.String(), EntityID: analysis.ID.String(),
		Payload: map[string]any{"score": analysis.Score, "with_jd": jd != ""},
	})
	return &AnalysisResult{ResumeAnalysis: analysis, ResumeText: text}, nil
}

func (s *ResumeService) CompareWithJobDescription(ctx context.Context, jd, resumeText string) (*ComparisonResult, error) {
	l := logging.FromContext(ctx).With("svc", "resume.compare")

	jd = strings.TrimSpace(jd)
	resumeText = strings.TrimSpace(resumeText)
	if jd == "" {
		return nil, newErr(ErrValidation, "job description is required")
	}
	if resumeText == "" {
		return nil, newErr(ErrValidation, "resume text is required")
	}

	keywords, err := s.extractKeywords(ctx, jd)
	if err != nil {
		l.Error("compare_keywords_error", "status", 502, "error", err)
		return nil, err
	}

	raw, err := s.AI.Complete(ctx, comparisonPrompt(resumeText, jd))
	if err != nil {
		l.Error("compare_error", "status", 502, "error", err)
		return nil, upstreamErr(err)
	}
	var res ComparisonResult
	if err := ai.DecodeJSON(ctx, raw, ai.ComparisonSchema, &res); err != nil {
		l.Error("compare_error", "status", 502, "reason", "bad reply format", "error", err)
		return nil, upstreamErr(err)
	}

	res.MatchScore = clampScore(res.MatchScore)
	res.JDKeywords = keywords
	res.MissingSkills = cleanList(res.MissingSkills)
	res.Recommendations = cleanList(res.Recommendations)
	return &res, nil
}

func (s *ResumeService) ListAnalyses(ctx context.Context, userID uuid.UUID) ([]models.ResumeAnalysis, error) {
	return s.Repo.ListAnalyses(ctx, userID, historyLimit)
}

func (s *ResumeService) extract(data []byte) (string, error) {
	if err := pdf.Check(data); err != nil {
		return "", err
	}
	if s.Extract != nil {
		return s.Extract(data)
	}
	return pdf.ExtractText(data)
}

func (s *ResumeService) extractKeywords(ctx context.Context, jd string) ([]string, error) {
	raw, err := s.AI.Complete(ctx, keywordsPrompt(jd))
	if err != nil {
		return nil, upstreamErr(err)
	}
	var reply keywordsReply
	if err := ai.DecodeJSON(ctx, raw, ai.KeywordsSchema, &reply); err != nil {
		return nil, upstreamErr(err)
	}
	return dedupeFold(reply.Keywords), nil
}

func upstreamErr(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, ai.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return newErr(ErrUpstreamTimeout, timeoutMessage)
	case errors.Is(err, ai.ErrFormat):
		return newErr(ErrUpstreamFormat, "analysis service returned an unexpected format")
	default:
		return newErr(ErrUpstream, "analysis service failed")
	}
}

func pdfMessage(err error) string {
	switch {
	case errors.Is(err, pdf.ErrEmpty):
		return "uploaded file is empty"
	case errors.Is(err, pdf.ErrTooLarge):
		return "file is too large (max 5 MB)"
	case errors.Is(err, pdf.ErrNotPDF):
		return "only PDF files are accepted"
	case errors.Is(err, pdf.ErrNoText):
		return "no text could be extracted from the PDF"
	default:
		return "the PDF could not be read"
	}
}

func clampScore(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// dedupeFold trims and removes case-insensitive duplicates.
func dedupeFold(in []string) []string {
	return normalizeTags(in)
}
