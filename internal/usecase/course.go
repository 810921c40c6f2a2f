package usecase

import (
	"context"
	"errors"

	"coursehub-backend/internal/domain"
)

type courseUsecase struct {
	courseRepo     domain.CourseRepository
	contentRepo    domain.ContentRepository
	enrollmentRepo domain.EnrollmentRepository
	userRepo       domain.UserRepository
}

func NewCourseUsecase(
	cr domain.CourseRepository,
	contentRepo domain.ContentRepository,
	er domain.EnrollmentRepository,
	ur domain.UserRepository,
) domain.CourseUsecase {
	return &courseUsecase{
		courseRepo:     cr,
		contentRepo:    contentRepo,
		enrollmentRepo: er,
		userRepo:       ur,
	}
}

// ========== COURSE CRUD ==========

func (uc *courseUsecase) CreateCourse(ctx context.Context, course *domain.Course) error {
	if course.Title == "" {
		return domain.BadRequestf("title is required")
	}
	if !course.Category.Valid() {
		return domain.BadRequestf("invalid category %q", course.Category)
	}
	if !course.Level.Valid() {
		return domain.BadRequestf("invalid level %q", course.Level)
	}
	if course.Price < 0 {
		return domain.BadRequestf("price must not be negative")
	}

	instructor, err := uc.userRepo.GetByID(ctx, course.InstructorID)
	if err != nil {
		return err
	}
	course.InstructorName = instructor.FullName()

	return uc.courseRepo.Create(ctx, course)
}

func (uc *courseUsecase) UpdateCourse(ctx context.Context, actorID uint, actorRole domain.Role, course *domain.Course) error {
	existing, err := uc.courseRepo.GetByID(ctx, course.ID)
	if err != nil {
		return err
	}
	if actorRole != domain.RoleAdmin && existing.InstructorID != actorID {
		return domain.Forbiddenf("course %d does not belong to instructor %d", course.ID, actorID)
	}

	if course.Title != "" {
		existing.Title = course.Title
	}
	if course.Description != "" {
		existing.Description = course.Description
	}
	if course.Category != "" {
		if !course.Category.Valid() {
			return domain.BadRequestf("invalid category %q", course.Category)
		}
		existing.Category = course.Category
	}
	if course.Level != "" {
		if !course.Level.Valid() {
			return domain.BadRequestf("invalid level %q", course.Level)
		}
		existing.Level = course.Level
	}
	if course.Price >= 0 {
		existing.Price = course.Price
	}
	if course.CoverImage != "" {
		existing.CoverImage = course.CoverImage
	}
	if course.SampleVideo != "" {
		existing.SampleVideo = course.SampleVideo
	}

	return uc.courseRepo.Update(ctx, existing)
}

func (uc *courseUsecase) DeleteCourse(ctx context.Context, actorID uint, actorRole domain.Role, courseID uint) error {
	existing, err := uc.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return err
	}
	if actorRole != domain.RoleAdmin && existing.InstructorID != actorID {
		return domain.Forbiddenf("course %d does not belong to instructor %d", courseID, actorID)
	}

	enrollments, err := uc.enrollmentRepo.GetByCourseID(ctx, courseID)
	if err != nil {
		return err
	}
	if len(enrollments) > 0 {
		return domain.Conflictf("course %d has %d enrollments", courseID, len(enrollments))
	}

	contents, err := uc.contentRepo.GetByCourseID(ctx, courseID)
	if err != nil {
		return err
	}
	for _, content := range contents {
		if err := uc.contentRepo.Delete(ctx, content.ID.Hex()); err != nil {
			return err
		}
	}

	return uc.courseRepo.Delete(ctx, courseID)
}

func (uc *courseUsecase) GetAllCourses(ctx context.Context) ([]domain.Course, error) {
	return uc.courseRepo.GetAll(ctx)
}

func (uc *courseUsecase) GetCourse(ctx context.Context, courseID uint) (*domain.Course, error) {
	return uc.courseRepo.GetByID(ctx, courseID)
}

func (uc *courseUsecase) GetInstructorCourses(ctx context.Context, instructorID uint) ([]domain.Course, error) {
	return uc.courseRepo.GetByInstructorID(ctx, instructorID)
}

// ========== CONTENT CRUD ==========

func (uc *courseUsecase) AddContent(ctx context.Context, actorID uint, content *domain.CourseContent) error {
	course, err := uc.courseRepo.GetByID(ctx, content.CourseID)
	if err != nil {
		return err
	}
	if course.InstructorID != actorID {
		return domain.Forbiddenf("course %d does not belong to instructor %d", content.CourseID, actorID)
	}

	if err := validateContent(content); err != nil {
		return err
	}

	content.CreatedBy = actorID
	return uc.contentRepo.Create(ctx, content)
}

func (uc *courseUsecase) UpdateContent(ctx context.Context, actorID uint, content *domain.CourseContent) error {
	existing, err := uc.contentRepo.GetByID(ctx, content.ID.Hex())
	if err != nil {
		return err
	}

	course, err := uc.courseRepo.GetByID(ctx, existing.CourseID)
	if err != nil {
		return err
	}
	if course.InstructorID != actorID {
		return domain.Forbiddenf("course %d does not belong to instructor %d", existing.CourseID, actorID)
	}

	// course binding and authorship never change
	content.CourseID = existing.CourseID
	content.CreatedBy = existing.CreatedBy
	content.CreatedAt = existing.CreatedAt

	if err := validateContent(content); err != nil {
		return err
	}

	return uc.contentRepo.Update(ctx, content)
}

func (uc *courseUsecase) DeleteContent(ctx context.Context, actorID uint, contentID string) error {
	existing, err := uc.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		return err
	}

	course, err := uc.courseRepo.GetByID(ctx, existing.CourseID)
	if err != nil {
		return err
	}
	if course.InstructorID != actorID {
		return domain.Forbiddenf("course %d does not belong to instructor %d", existing.CourseID, actorID)
	}

	return uc.contentRepo.Delete(ctx, contentID)
}

func (uc *courseUsecase) GetContent(ctx context.Context, contentID string) (*domain.CourseContent, error) {
	return uc.contentRepo.GetByID(ctx, contentID)
}

func (uc *courseUsecase) ListContent(ctx context.Context, actorID uint, actorRole domain.Role, courseID uint) ([]domain.CourseContent, error) {
	course, err := uc.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	// students must be enrolled, the owning instructor and admins see everything
	allowed := actorRole == domain.RoleAdmin ||
		(actorRole == domain.RoleInstructor && course.InstructorID == actorID)
	if !allowed {
		_, err := uc.enrollmentRepo.GetByStudentAndCourse(ctx, actorID, courseID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Forbiddenf("student %d is not enrolled in course %d", actorID, courseID)
		}
		if err != nil {
			return nil, err
		}
	}

	return uc.contentRepo.GetByCourseID(ctx, courseID)
}

// validateContent checks the type-specific payload. Quiz answer keys get the
// strictest treatment since question text is the grading identity.
func validateContent(content *domain.CourseContent) error {
	if !content.Type.Valid() {
		return domain.BadRequestf("invalid content type %q", content.Type)
	}
	if content.Title == "" {
		return domain.BadRequestf("title is required")
	}

	if content.Type == domain.ContentQuiz {
		if len(content.Questions) == 0 {
			return domain.BadRequestf("quiz must have at least one question")
		}
		seen := make(map[string]bool, len(content.Questions))
		for _, q := range content.Questions {
			if q.Question == "" {
				return domain.BadRequestf("quiz question text must not be empty")
			}
			if seen[q.Question] {
				return domain.BadRequestf("duplicate quiz question %q", q.Question)
			}
			seen[q.Question] = true

			if len(q.Options) < 2 {
				return domain.BadRequestf("question %q needs at least two options", q.Question)
			}
			valid := false
			for _, opt := range q.Options {
				if opt == q.Answer {
					valid = true
					break
				}
			}
			if !valid {
				return domain.BadRequestf("answer for question %q is not among its options", q.Question)
			}
		}
	}

	return nil
}
