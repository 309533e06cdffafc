package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/supabase"
)

var (
	ErrTemplateNotFound   = errors.New("feedback template not found")
	ErrFeedbackNotFound   = errors.New("weekly feedback not found")
	ErrFeedbackNotSent    = errors.New("weekly feedback is not awaiting answers")
	ErrResponsesMismatch  = errors.New("responses do not match the template's questions")
	ErrTemplateNoQuestion = errors.New("feedback template has no questions")
)

// FeedbackService manages weekly feedback forms: coach-owned templates with
// ordered questions, and per-client weekly instances derived from them.
type FeedbackService interface {
	GetTemplate(ctx context.Context, id string) (*domain.FeedbackTemplate, error)
	ListTemplates(ctx context.Context, coachID string) ([]domain.FeedbackTemplate, error)
	// Send instantiates a template for a client and week: responses are
	// created in the template's question order with empty answers, and the
	// instance starts in status "sent".
	Send(ctx context.Context, coachID, clientID, templateID, weekStart string) (*domain.WeeklyFeedback, error)
	// Submit records the client's answers. The instance reaches "completed"
	// only with completed_at set, and the stored responses keep the
	// template's question ordering.
	Submit(ctx context.Context, id string, answers []string) (*domain.WeeklyFeedback, error)
	ListCompletedForCoach(ctx context.Context, coachID string) ([]domain.WeeklyFeedback, error)
	ListForClient(ctx context.Context, clientID string) ([]domain.WeeklyFeedback, error)
}

type feedbackService struct {
	sb    *supabase.Client
	token string
}

func NewFeedbackService(sb *supabase.Client, accessToken string) FeedbackService {
	return &feedbackService{sb: sb, token: accessToken}
}

func (s *feedbackService) GetTemplate(ctx context.Context, id string) (*domain.FeedbackTemplate, error) {
	var template domain.FeedbackTemplate
	err := s.sb.From("feedback_templates").
		Select("*,questions:feedback_questions(*)").
		Eq("id", id).
		Single().
		AsUser(s.token).
		Get(ctx, &template)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	sortQuestions(template.Questions)
	return &template, nil
}

func (s *feedbackService) ListTemplates(ctx context.Context, coachID string) ([]domain.FeedbackTemplate, error) {
	var templates []domain.FeedbackTemplate
	err := s.sb.From("feedback_templates").
		Select("*,questions:feedback_questions(*)").
		Eq("coach_id", coachID).
		Order("created_at", false).
		AsUser(s.token).
		Get(ctx, &templates)
	if err != nil {
		return nil, err
	}
	for i := range templates {
		sortQuestions(templates[i].Questions)
	}
	if templates == nil {
		templates = []domain.FeedbackTemplate{}
	}
	return templates, nil
}

func (s *feedbackService) Send(ctx context.Context, coachID, clientID, templateID, weekStart string) (*domain.WeeklyFeedback, error) {
	start, err := time.Parse("2006-01-02", weekStart)
	if err != nil {
		return nil, fmt.Errorf("invalid week start %q: %w", weekStart, err)
	}

	template, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if len(template.Questions) == 0 {
		return nil, ErrTemplateNoQuestion
	}

	responses := make([]domain.FeedbackResponse, len(template.Questions))
	for i, q := range template.Questions {
		responses[i] = domain.FeedbackResponse{
			QuestionID: q.ID,
			Text:       q.Text,
			Type:       q.Type,
		}
	}

	row := map[string]any{
		"client_id":   clientID,
		"coach_id":    coachID,
		"template_id": templateID,
		"week_start":  weekStart,
		"week_end":    start.AddDate(0, 0, 6).Format("2006-01-02"),
		"status":      domain.FeedbackSent,
		"responses":   responses,
		"sent_at":     time.Now().UTC().Format(time.RFC3339),
	}

	var created domain.WeeklyFeedback
	err = s.sb.From("weekly_feedbacks").
		Single().
		AsUser(s.token).
		Insert(ctx, row, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *feedbackService) Submit(ctx context.Context, id string, answers []string) (*domain.WeeklyFeedback, error) {
	var current domain.WeeklyFeedback
	err := s.sb.From("weekly_feedbacks").
		Select("*").
		Eq("id", id).
		Single().
		AsUser(s.token).
		Get(ctx, &current)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, ErrFeedbackNotFound
		}
		return nil, err
	}

	if current.Status != domain.FeedbackSent && current.Status != domain.FeedbackInProgress {
		return nil, fmt.Errorf("%w: status %s", ErrFeedbackNotSent, current.Status)
	}
	if len(answers) != len(current.Responses) {
		return nil, fmt.Errorf("%w: got %d answers for %d questions",
			ErrResponsesMismatch, len(answers), len(current.Responses))
	}

	// Answers fill the responses in place: ordering stays the template's.
	responses := make([]domain.FeedbackResponse, len(current.Responses))
	copy(responses, current.Responses)
	for i := range responses {
		responses[i].Answer = answers[i]
	}

	patch := map[string]any{
		"status":       domain.FeedbackCompleted,
		"responses":    responses,
		"score":        aggregateScore(responses),
		"completed_at": time.Now().UTC().Format(time.RFC3339),
	}

	var updated domain.WeeklyFeedback
	err = s.sb.From("weekly_feedbacks").
		Eq("id", id).
		Single().
		AsUser(s.token).
		Update(ctx, patch, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *feedbackService) ListCompletedForCoach(ctx context.Context, coachID string) ([]domain.WeeklyFeedback, error) {
	var feedbacks []domain.WeeklyFeedback
	err := s.sb.From("weekly_feedbacks").
		Select("*").
		Eq("coach_id", coachID).
		Eq("status", domain.FeedbackCompleted).
		Order("week_start", false).
		AsUser(s.token).
		Get(ctx, &feedbacks)
	if err != nil {
		return nil, err
	}
	if feedbacks == nil {
		feedbacks = []domain.WeeklyFeedback{}
	}
	return feedbacks, nil
}

func (s *feedbackService) ListForClient(ctx context.Context, clientID string) ([]domain.WeeklyFeedback, error) {
	var feedbacks []domain.WeeklyFeedback
	err := s.sb.From("weekly_feedbacks").
		Select("*").
		Eq("client_id", clientID).
		Order("week_start", false).
		AsUser(s.token).
		Get(ctx, &feedbacks)
	if err != nil {
		return nil, err
	}
	if feedbacks == nil {
		feedbacks = []domain.WeeklyFeedback{}
	}
	return feedbacks, nil
}

// aggregateScore averages the numeric answers of scale questions; other
// question types do not contribute.
func aggregateScore(responses []domain.FeedbackResponse) float64 {
	var sum, n float64
	for _, r := range responses {
		if r.Type != "scale" {
			continue
		}
		v, err := strconv.ParseFloat(r.Answer, 64)
		if err != nil {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

func sortQuestions(questions []domain.FeedbackQuestion) {
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].Position < questions[j].Position
	})
}
