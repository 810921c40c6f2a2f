package usecase

import (
	"context"
	"errors"
	"time"

	"coursehub-backend/internal/domain"
)

type quizUsecase struct {
	contentRepo    domain.ContentRepository
	submissionRepo domain.QuizSubmissionRepository
	enrollmentRepo domain.EnrollmentRepository
}

func NewQuizUsecase(
	contentRepo domain.ContentRepository,
	sr domain.QuizSubmissionRepository,
	er domain.EnrollmentRepository,
) domain.QuizUsecase {
	return &quizUsecase{
		contentRepo:    contentRepo,
		submissionRepo: sr,
		enrollmentRepo: er,
	}
}

// SubmitQuiz grades the answers against the quiz's answer key and upserts the
// submission. Grading walks the quiz's question order, not the submission's:
// a question with no matching submitted answer is graded as selected "".
func (uc *quizUsecase) SubmitQuiz(ctx context.Context, studentID uint, quizContentID string, answers []domain.SubmittedAnswer) (*domain.QuizResult, error) {
	content, err := uc.contentRepo.GetByID(ctx, quizContentID)
	if err != nil {
		return nil, err
	}
	if content.Type != domain.ContentQuiz {
		return nil, domain.NotFoundf("quiz %s", quizContentID)
	}

	if _, err := uc.enrollmentRepo.GetByStudentAndCourse(ctx, studentID, content.CourseID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Forbiddenf("student %d is not enrolled in course %d", studentID, content.CourseID)
		}
		return nil, err
	}

	// answers are matched by question text; first occurrence wins on duplicates
	byQuestion := make(map[string]string, len(answers))
	for _, a := range answers {
		if _, seen := byQuestion[a.Question]; !seen {
			byQuestion[a.Question] = a.Selected
		}
	}

	graded := make([]domain.GradedAnswer, 0, len(content.Questions))
	score := 0
	for _, q := range content.Questions {
		selected := byQuestion[q.Question] // "" when unanswered
		correct := selected == q.Answer    // exact, case-sensitive
		if correct {
			score++
		}
		graded = append(graded, domain.GradedAnswer{
			Question:  q.Question,
			Selected:  selected,
			Correct:   q.Answer,
			IsCorrect: correct,
		})
	}

	saved, err := uc.submissionRepo.Upsert(ctx, &domain.QuizSubmission{
		StudentID:     studentID,
		CourseID:      content.CourseID,
		QuizContentID: content.ID,
		Answers:       graded,
		Score:         score,
		SubmittedAt:   time.Now(),
	})
	if err != nil {
		return nil, err
	}

	return &domain.QuizResult{
		Score:   saved.Score,
		Answers: saved.Answers,
	}, nil
}

func (uc *quizUsecase) GetSubmission(ctx context.Context, studentID uint, quizContentID string) (*domain.QuizSubmission, error) {
	return uc.submissionRepo.GetByStudentAndQuiz(ctx, studentID, quizContentID)
}

// Analytics aggregates all current submissions for one quiz. Retakes mean one
// submission per student, so the stats reflect latest attempts only.
func (uc *quizUsecase) Analytics(ctx context.Context, quizContentID string) (*domain.QuizAnalytics, error) {
	content, err := uc.contentRepo.GetByID(ctx, quizContentID)
	if err != nil {
		return nil, err
	}
	if content.Type != domain.ContentQuiz {
		return nil, domain.NotFoundf("quiz %s", quizContentID)
	}

	subs, err := uc.submissionRepo.GetByQuizContentID(ctx, quizContentID)
	if err != nil {
		return nil, err
	}

	analytics := &domain.QuizAnalytics{
		TotalSubmissions: len(subs),
		QuestionStats:    make([]domain.QuestionStats, 0, len(content.Questions)),
	}
	if len(subs) == 0 {
		for _, q := range content.Questions {
			analytics.QuestionStats = append(analytics.QuestionStats, domain.QuestionStats{Question: q.Question})
		}
		return analytics, nil
	}

	totalScore := 0
	for _, s := range subs {
		totalScore += s.Score
	}
	analytics.AverageScore = float64(totalScore) / float64(len(subs))

	for _, q := range content.Questions {
		stats := domain.QuestionStats{Question: q.Question}
		wrongCounts := make(map[string]int)
		for _, s := range subs {
			for _, a := range s.Answers {
				if a.Question != q.Question {
					continue
				}
				if a.IsCorrect {
					stats.Correct++
				} else {
					stats.Incorrect++
					if a.Selected != "" {
						wrongCounts[a.Selected]++
					}
				}
				break
			}
		}
		best := 0
		for sel, n := range wrongCounts {
			if n > best {
				best = n
				stats.MostCommonWrong = sel
			}
		}
		analytics.QuestionStats = append(analytics.QuestionStats, stats)
	}

	return analytics, nil
}
