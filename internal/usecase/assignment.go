package usecase

import (
	"context"
	"errors"
	"mime/multipart"
	"time"

	"coursehub-backend/internal/domain"
)

// AssignmentConfig tunes resubmission behavior. With ClearGradeOnResubmit off
// (the default) an existing grade survives a resubmission untouched.
type AssignmentConfig struct {
	ClearGradeOnResubmit bool
}

type assignmentUsecase struct {
	contentRepo    domain.ContentRepository
	submissionRepo domain.AssignmentSubmissionRepository
	enrollmentRepo domain.EnrollmentRepository
	courseRepo     domain.CourseRepository
	userRepo       domain.UserRepository
	files          domain.FileStore
	cfg            AssignmentConfig
}

func NewAssignmentUsecase(
	contentRepo domain.ContentRepository,
	sr domain.AssignmentSubmissionRepository,
	er domain.EnrollmentRepository,
	cr domain.CourseRepository,
	ur domain.UserRepository,
	fs domain.FileStore,
	cfg AssignmentConfig,
) domain.AssignmentUsecase {
	return &assignmentUsecase{
		contentRepo:    contentRepo,
		submissionRepo: sr,
		enrollmentRepo: er,
		courseRepo:     cr,
		userRepo:       ur,
		files:          fs,
		cfg:            cfg,
	}
}

// Submit stores the deliverable and upserts the submission. The file upload
// happens first: if the store rejects it, nothing is written. A resubmission
// without a file keeps the previously stored one.
func (uc *assignmentUsecase) Submit(ctx context.Context, studentID uint, assignmentContentID string, file multipart.File, header *multipart.FileHeader, comments string) (*domain.AssignmentSubmission, error) {
	content, err := uc.contentRepo.GetByID(ctx, assignmentContentID)
	if err != nil {
		return nil, err
	}
	if content.Type != domain.ContentAssignment {
		return nil, domain.NotFoundf("assignment %s", assignmentContentID)
	}

	if _, err := uc.enrollmentRepo.GetByStudentAndCourse(ctx, studentID, content.CourseID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Forbiddenf("student %d is not enrolled in course %d", studentID, content.CourseID)
		}
		return nil, err
	}

	fields := domain.AssignmentUpsert{
		Comments:    comments,
		SubmittedAt: time.Now(),
		ClearGrade:  uc.cfg.ClearGradeOnResubmit,
	}

	if file == nil {
		// no file means this can only be an update of an existing submission
		sub, err := uc.submissionRepo.UpdateExisting(ctx, studentID, assignmentContentID, fields)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.BadRequestf("a file is required on first submission")
		}
		return sub, err
	}

	stored, err := uc.files.Save(ctx, file, header, domain.FileMeta{
		UploadedBy: studentID,
		CourseID:   content.CourseID,
	})
	if err != nil {
		return nil, err
	}
	fields.FileURL = stored.URL

	return uc.submissionRepo.Upsert(ctx, studentID, assignmentContentID, fields)
}

// Grade writes only the instructor-owned fields, so a concurrent resubmission
// cannot be lost or clobbered by grading.
func (uc *assignmentUsecase) Grade(ctx context.Context, submissionID string, grade float64, feedback string, graderID uint) (*domain.AssignmentSubmission, error) {
	if grade < 0 || grade > 100 {
		return nil, domain.BadRequestf("grade must be between 0 and 100")
	}

	sub, err := uc.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	content, err := uc.contentRepo.GetByID(ctx, sub.AssignmentContentID.Hex())
	if err != nil {
		return nil, err
	}
	course, err := uc.courseRepo.GetByID(ctx, content.CourseID)
	if err != nil {
		return nil, err
	}
	if course.InstructorID != graderID {
		return nil, domain.Forbiddenf("course %d does not belong to instructor %d", course.ID, graderID)
	}

	return uc.submissionRepo.SetGrade(ctx, submissionID, grade, feedback, graderID, time.Now())
}

func (uc *assignmentUsecase) GetOwn(ctx context.Context, studentID uint, assignmentContentID string) (*domain.AssignmentSubmission, error) {
	return uc.submissionRepo.GetByStudentAndAssignment(ctx, studentID, assignmentContentID)
}

// ListForAssignment joins submissions with their students for the grading view.
func (uc *assignmentUsecase) ListForAssignment(ctx context.Context, assignmentContentID string) ([]domain.SubmissionWithStudent, error) {
	subs, err := uc.submissionRepo.GetByAssignmentContentID(ctx, assignmentContentID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.StudentID)
	}
	students, err := uc.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*domain.User, len(students))
	for i := range students {
		byID[students[i].ID] = &students[i]
	}

	result := make([]domain.SubmissionWithStudent, 0, len(subs))
	for _, s := range subs {
		result = append(result, domain.SubmissionWithStudent{
			AssignmentSubmission: s,
			Student:              byID[s.StudentID],
		})
	}
	return result, nil
}
