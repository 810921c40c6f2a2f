package usecase

import (
	"context"

	"coursehub-backend/internal/domain"
)

type adminUsecase struct {
	userRepo       domain.UserRepository
	courseRepo     domain.CourseRepository
	contentRepo    domain.ContentRepository
	enrollmentRepo domain.EnrollmentRepository
}

func NewAdminUsecase(
	ur domain.UserRepository,
	cr domain.CourseRepository,
	contentRepo domain.ContentRepository,
	er domain.EnrollmentRepository,
) domain.AdminUsecase {
	return &adminUsecase{
		userRepo:       ur,
		courseRepo:     cr,
		contentRepo:    contentRepo,
		enrollmentRepo: er,
	}
}

func (uc *adminUsecase) ListUsers(ctx context.Context) ([]domain.User, error) {
	return uc.userRepo.GetAll(ctx)
}

func (uc *adminUsecase) ChangeUserRole(ctx context.Context, userID uint, role domain.Role) error {
	if !role.Valid() {
		return domain.BadRequestf("invalid role %q", role)
	}
	return uc.userRepo.UpdateRole(ctx, userID, role)
}

func (uc *adminUsecase) DeleteUser(ctx context.Context, userID uint) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == domain.RoleInstructor {
		courses, err := uc.courseRepo.GetByInstructorID(ctx, userID)
		if err != nil {
			return err
		}
		if len(courses) > 0 {
			return domain.Conflictf("instructor %d still owns %d courses", userID, len(courses))
		}
	}
	return uc.userRepo.Delete(ctx, userID)
}

// DeleteCourse is the admin override: unlike the instructor path it removes
// the course even when enrollments exist, taking the enrollments with it so
// no ledger documents point at a course that is gone.
func (uc *adminUsecase) DeleteCourse(ctx context.Context, courseID uint) error {
	if _, err := uc.courseRepo.GetByID(ctx, courseID); err != nil {
		return err
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

	if err := uc.enrollmentRepo.DeleteByCourseID(ctx, courseID); err != nil {
		return err
	}

	return uc.courseRepo.Delete(ctx, courseID)
}
