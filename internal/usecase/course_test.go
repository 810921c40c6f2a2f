package usecase_test

import (
	"context"
	"testing"

	"coursehub-backend/internal/domain"
	"coursehub-backend/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCourse(t *testing.T) (domain.CourseUsecase, *fakeContentRepo, *fakeEnrollmentRepo) {
	t.Helper()

	users := newFakeUserRepo(
		domain.User{ID: 2, FirstName: "Ben", LastName: "Ortiz", Email: "ben@test.com", Role: domain.RoleInstructor},
	)
	courses := newFakeCourseRepo(
		domain.Course{ID: 10, Title: "Go", InstructorID: 2, Category: domain.CategoryProgramming, Level: domain.LevelBeginner},
	)
	contents := newFakeContentRepo()
	enrollments := newFakeEnrollmentRepo()

	return usecase.NewCourseUsecase(courses, contents, enrollments, users), contents, enrollments
}

func TestCreateCourseSetsInstructorName(t *testing.T) {
	uc, _, _ := setupCourse(t)

	course := &domain.Course{
		Title:        "Advanced Go",
		InstructorID: 2,
		Category:     domain.CategoryProgramming,
		Level:        domain.LevelAdvanced,
		Price:        19.99,
	}
	require.NoError(t, uc.CreateCourse(context.Background(), course))
	assert.Equal(t, "Ben Ortiz", course.InstructorName)
}

func TestCreateCourseValidation(t *testing.T) {
	uc, _, _ := setupCourse(t)
	ctx := context.Background()

	err := uc.CreateCourse(ctx, &domain.Course{InstructorID: 2, Category: domain.CategoryProgramming, Level: domain.LevelBeginner})
	assert.ErrorIs(t, err, domain.ErrBadRequest, "missing title")

	err = uc.CreateCourse(ctx, &domain.Course{Title: "X", InstructorID: 2, Category: "Cooking", Level: domain.LevelBeginner})
	assert.ErrorIs(t, err, domain.ErrBadRequest, "unknown category")

	err = uc.CreateCourse(ctx, &domain.Course{Title: "X", InstructorID: 2, Category: domain.CategoryDesign, Level: domain.LevelBeginner, Price: -5})
	assert.ErrorIs(t, err, domain.ErrBadRequest, "negative price")
}

func TestAddQuizContentValidatesAnswerKey(t *testing.T) {
	uc, _, _ := setupCourse(t)
	ctx := context.Background()

	base := func(questions []domain.QuizQuestion) *domain.CourseContent {
		return &domain.CourseContent{
			CourseID:  10,
			Type:      domain.ContentQuiz,
			Title:     "Quiz",
			Questions: questions,
		}
	}

	// duplicate question text breaks the grading identity
	err := uc.AddContent(ctx, 2, base([]domain.QuizQuestion{
		{Question: "q1", Options: []string{"A", "B"}, Answer: "A"},
		{Question: "q1", Options: []string{"C", "D"}, Answer: "C"},
	}))
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	// answer must be one of the options
	err = uc.AddContent(ctx, 2, base([]domain.QuizQuestion{
		{Question: "q1", Options: []string{"A", "B"}, Answer: "Z"},
	}))
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	// empty quiz
	err = uc.AddContent(ctx, 2, base(nil))
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	// valid key passes
	err = uc.AddContent(ctx, 2, base([]domain.QuizQuestion{
		{Question: "q1", Options: []string{"A", "B"}, Answer: "A"},
		{Question: "q2", Options: []string{"A", "B"}, Answer: "B"},
	}))
	assert.NoError(t, err)
}

func TestAddContentOwnershipCheck(t *testing.T) {
	uc, _, _ := setupCourse(t)

	err := uc.AddContent(context.Background(), 99, &domain.CourseContent{
		CourseID: 10,
		Type:     domain.ContentVideo,
		Title:    "Lesson",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDeleteCourseWithEnrollmentsConflicts(t *testing.T) {
	uc, _, enrollments := setupCourse(t)
	ctx := context.Background()

	_, err := enrollments.Upsert(ctx, 1, 10, domain.EnrollmentUpsert{PaymentStatus: domain.PaymentFree})
	require.NoError(t, err)

	err = uc.DeleteCourse(ctx, 2, domain.RoleInstructor, 10)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestListContentRequiresEnrollment(t *testing.T) {
	uc, contents, enrollments := setupCourse(t)
	ctx := context.Background()

	require.NoError(t, contents.Create(ctx, &domain.CourseContent{CourseID: 10, Type: domain.ContentVideo, Title: "Lesson"}))

	// not enrolled
	_, err := uc.ListContent(ctx, 1, domain.RoleStudent, 10)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// enrolled
	_, err = enrollments.Upsert(ctx, 1, 10, domain.EnrollmentUpsert{PaymentStatus: domain.PaymentFree})
	require.NoError(t, err)
	list, err := uc.ListContent(ctx, 1, domain.RoleStudent, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// owning instructor always sees content
	list, err = uc.ListContent(ctx, 2, domain.RoleInstructor, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
