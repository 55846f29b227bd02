package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
)

// DashboardSummary is the admin landing-page payload.
type DashboardSummary struct {
	TotalCandidates  int                         `json:"total_candidates"`
	TotalSets        int                         `json:"total_question_sets"`
	TotalQuestions   int                         `json:"total_questions"`
	TotalSessions    int                         `json:"total_sessions"`
	SessionsByStatus map[model.SessionStatus]int `json:"sessions_by_status"`
	RecentViolations []model.Violation           `json:"recent_violations"`
}

// SessionAnswerView is one answered question of a finished session, scored
// against the option configuration frozen in the session snapshot plus the
// current correctness flags.
type SessionAnswerView struct {
	QuestionID uuid.UUID        `json:"question_id"`
	Title      string           `json:"title"`
	AnswerType model.AnswerType `json:"answer_type"`
	AnswerText *string          `json:"answer_text,omitempty"`
	OptionIDs  []uuid.UUID      `json:"selected_option_ids,omitempty"`
	Correct    *bool            `json:"correct,omitempty"`
	IsFinal    bool             `json:"is_final"`
}

// SessionDetail is the admin view of one session.
type SessionDetail struct {
	Session    *model.Session      `json:"session"`
	Answers    []SessionAnswerView `json:"answers"`
	Violations []model.Violation   `json:"violations"`
}

// CandidateAttempt is one session in a candidate's attempt history.
type CandidateAttempt struct {
	SessionID        uuid.UUID           `json:"session_id"`
	Attempt          int                 `json:"attempt"`
	Status           model.SessionStatus `json:"status"`
	StartTime        time.Time           `json:"start_time"`
	SubmittedAt      *time.Time          `json:"submitted_at,omitempty"`
	TimeTakenSeconds *int64              `json:"time_taken_seconds,omitempty"`
}

// CandidateTestReport is one assigned test in the per-candidate admin view,
// with the full attempt history and an overall status.
type CandidateTestReport struct {
	repository.AssignmentOverview
	OverallStatus string             `json:"overall_status"`
	Attempts      []CandidateAttempt `json:"attempts"`
}

// ReportService handles admin dashboards, monitoring and session reviews.
type ReportService struct {
	reportRepo     *repository.ReportRepository
	sessionRepo    *repository.SessionRepository
	answerRepo     *repository.AnswerRepository
	violationRepo  *repository.ViolationRepository
	questionRepo   *repository.QuestionRepository
	assignmentRepo *repository.AssignmentRepository
}

// NewReportService creates a new ReportService.
func NewReportService(
	reportRepo *repository.ReportRepository,
	sessionRepo *repository.SessionRepository,
	answerRepo *repository.AnswerRepository,
	violationRepo *repository.ViolationRepository,
	questionRepo *repository.QuestionRepository,
	assignmentRepo *repository.AssignmentRepository,
) *ReportService {
	return &ReportService{
		reportRepo:     reportRepo,
		sessionRepo:    sessionRepo,
		answerRepo:     answerRepo,
		violationRepo:  violationRepo,
		questionRepo:   questionRepo,
		assignmentRepo: assignmentRepo,
	}
}

// Dashboard assembles the summary counters and the latest violation feed.
func (s *ReportService) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	candidates, sets, questions, sessions, err := s.reportRepo.GetSummaryCounts(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.reportRepo.GetSessionStatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.reportRepo.GetRecentViolations(ctx, 20)
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		TotalCandidates:  candidates,
		TotalSets:        sets,
		TotalQuestions:   questions,
		TotalSessions:    sessions,
		SessionsByStatus: byStatus,
		RecentViolations: recent,
	}, nil
}

// CandidateOverview assembles the per-candidate admin report: every assigned
// test with its attempt history, time taken and an overall status.
func (s *ReportService) CandidateOverview(ctx context.Context, userID int) ([]CandidateTestReport, error) {
	overviews, err := s.assignmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byAssignment := make(map[uuid.UUID][]CandidateAttempt)
	for _, sess := range sessions {
		attempt := CandidateAttempt{
			SessionID:   sess.ID,
			Attempt:     sess.Attempt,
			Status:      sess.Status,
			StartTime:   sess.StartTime,
			SubmittedAt: sess.SubmittedAt,
		}
		if sess.SubmittedAt != nil {
			taken := int64(sess.SubmittedAt.Sub(sess.StartTime).Seconds())
			attempt.TimeTakenSeconds = &taken
		}
		byAssignment[sess.AssignmentID] = append(byAssignment[sess.AssignmentID], attempt)
	}

	reports := make([]CandidateTestReport, 0, len(overviews))
	for _, o := range overviews {
		attempts := byAssignment[o.AssignmentID]
		if attempts == nil {
			attempts = []CandidateAttempt{}
		}
		reports = append(reports, CandidateTestReport{
			AssignmentOverview: o,
			OverallStatus:      overallStatus(attempts),
			Attempts:           attempts,
		})
	}
	return reports, nil
}

// overallStatus collapses attempt history into one label by priority:
// in_progress beats not_started beats auto_submitted beats submitted beats
// expired.
func overallStatus(attempts []CandidateAttempt) string {
	if len(attempts) == 0 {
		return "not_started"
	}
	rank := map[model.SessionStatus]int{
		model.SessionStatusInProgress:    0,
		model.SessionStatusAutoSubmitted: 2,
		model.SessionStatusSubmitted:     3,
		model.SessionStatusExpired:       4,
	}
	best := attempts[0].Status
	for _, a := range attempts[1:] {
		if rank[a.Status] < rank[best] {
			best = a.Status
		}
	}
	return string(best)
}

// Monitor retrieves the live candidate table for one question set.
func (s *ReportService) Monitor(ctx context.Context, questionSetID uuid.UUID) ([]repository.MonitorRow, error) {
	return s.reportRepo.GetMonitorRows(ctx, questionSetID)
}

// SessionDetail assembles a session with its answers and violation timeline.
// Multiple-choice answers are scored by exact match of the selected set
// against the currently-correct options of the question.
func (s *ReportService) SessionDetail(ctx context.Context, sessionID uuid.UUID) (*SessionDetail, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	answers, err := s.answerRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	violations, err := s.violationRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	correct, err := s.correctOptions(ctx, session.QuestionSetID)
	if err != nil {
		return nil, err
	}

	views := make([]SessionAnswerView, 0, len(answers))
	for _, a := range answers {
		question := session.Question(a.QuestionID)
		if question == nil {
			// Answer to a question no longer in the snapshot; keep the raw
			// row visible rather than hiding it.
			views = append(views, SessionAnswerView{
				QuestionID: a.QuestionID,
				AnswerText: a.AnswerText,
				OptionIDs:  a.OptionIDs,
				IsFinal:    a.IsFinal,
			})
			continue
		}

		view := SessionAnswerView{
			QuestionID: a.QuestionID,
			Title:      question.Title,
			AnswerType: question.AnswerType,
			AnswerText: a.AnswerText,
			OptionIDs:  a.OptionIDs,
			IsFinal:    a.IsFinal,
		}
		if question.AnswerType == model.AnswerTypeMultipleChoice {
			ok := sameOptionSet(a.OptionIDs, correct[a.QuestionID])
			view.Correct = &ok
		}
		views = append(views, view)
	}

	return &SessionDetail{
		Session:    session,
		Answers:    views,
		Violations: violations,
	}, nil
}

// ListViolations retrieves violation events across all sessions with
// optional question-set and event-type filters.
func (s *ReportService) ListViolations(ctx context.Context, f repository.ViolationFilter) ([]model.Violation, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	return s.reportRepo.ListViolations(ctx, f)
}

// SessionViolations retrieves just the violation timeline of a session.
func (s *ReportService) SessionViolations(ctx context.Context, sessionID uuid.UUID) ([]model.Violation, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.violationRepo.ListBySession(ctx, sessionID)
}

// correctOptions maps each multiple-choice question of a set to its correct
// option ids.
func (s *ReportService) correctOptions(ctx context.Context, questionSetID uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	questions, err := s.questionRepo.ListBySet(ctx, questionSetID)
	if err != nil {
		return nil, err
	}
	correct := make(map[uuid.UUID][]uuid.UUID)
	for _, q := range questions {
		for _, o := range q.Options {
			if o.IsCorrect {
				correct[q.ID] = append(correct[q.ID], o.ID)
			}
		}
	}
	return correct, nil
}

func sameOptionSet(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uuid.UUID]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}
