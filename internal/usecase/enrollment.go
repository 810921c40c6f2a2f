package usecase

import (
	"context"
	"fmt"

	"coursehub-backend/internal/domain"
	"coursehub-backend/pkg/logger"

	"go.uber.org/zap"
)

type enrollmentUsecase struct {
	enrollmentRepo domain.EnrollmentRepository
	courseRepo     domain.CourseRepository
	contentRepo    domain.ContentRepository
	userRepo       domain.UserRepository
	payments       domain.PaymentGateway
	notifier       domain.Notifier
}

func NewEnrollmentUsecase(
	er domain.EnrollmentRepository,
	cr domain.CourseRepository,
	contentRepo domain.ContentRepository,
	ur domain.UserRepository,
	pg domain.PaymentGateway,
	n domain.Notifier,
) domain.EnrollmentUsecase {
	return &enrollmentUsecase{
		enrollmentRepo: er,
		courseRepo:     cr,
		contentRepo:    contentRepo,
		userRepo:       ur,
		payments:       pg,
		notifier:       n,
	}
}

// ========== ENROLLMENT LEDGER ==========

// Enroll is the single write path for enrolling. The whole operation is one
// atomic upsert keyed (student, course): retries and double-clicks land on the
// same document, never a duplicate.
func (uc *enrollmentUsecase) Enroll(ctx context.Context, studentID uint, studentRole domain.Role, courseID uint, requested domain.PaymentStatus, paymentIntentID string) (*domain.Enrollment, error) {
	if studentRole != domain.RoleStudent {
		return nil, domain.Forbiddenf("only students can enroll")
	}

	course, err := uc.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	status := requested
	if status == "" {
		status = domain.PaymentPaid
	}
	if !status.Valid() {
		return nil, domain.BadRequestf("invalid payment status %q", requested)
	}
	// free courses are always recorded as free, whatever the caller claims
	if course.Free() {
		status = domain.PaymentFree
	}

	enrollment, err := uc.enrollmentRepo.Upsert(ctx, studentID, courseID, domain.EnrollmentUpsert{
		PaymentStatus:   status,
		PaymentIntentID: paymentIntentID,
	})
	if err != nil {
		return nil, err
	}

	uc.notifyEnrollment(studentID, course, status == domain.PaymentPaid)
	return enrollment, nil
}

// Purchase starts the paid checkout flow. No enrollment is written here; that
// happens in ConfirmPaidEnrollment once the gateway reports the session paid.
func (uc *enrollmentUsecase) Purchase(ctx context.Context, studentID, courseID uint) (string, *domain.Enrollment, error) {
	course, err := uc.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return "", nil, err
	}

	// free courses skip checkout entirely
	if course.Free() {
		enrollment, err := uc.Enroll(ctx, studentID, domain.RoleStudent, courseID, domain.PaymentFree, "")
		if err != nil {
			return "", nil, err
		}
		return "", enrollment, nil
	}

	student, err := uc.userRepo.GetByID(ctx, studentID)
	if err != nil {
		return "", nil, err
	}

	session, err := uc.payments.CreateCheckoutSession(ctx, course, student)
	if err != nil {
		return "", nil, err
	}
	return session.URL, nil, nil
}

// ConfirmPaidEnrollment resolves a checkout session and commits the paid
// enrollment. The session's metadata is the source of truth for which student
// and course are involved; the caller must be that student.
func (uc *enrollmentUsecase) ConfirmPaidEnrollment(ctx context.Context, callerID uint, sessionID string) (*domain.Enrollment, error) {
	if sessionID == "" {
		return nil, domain.BadRequestf("session id is required")
	}

	session, err := uc.payments.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.PaymentStatus != "paid" {
		return nil, domain.BadRequestf("session %s is not paid (status %q)", sessionID, session.PaymentStatus)
	}
	if session.StudentID != callerID {
		return nil, domain.Forbiddenf("session %s belongs to another student", sessionID)
	}

	course, err := uc.courseRepo.GetByID(ctx, session.CourseID)
	if err != nil {
		return nil, err
	}

	enrollment, err := uc.enrollmentRepo.Upsert(ctx, session.StudentID, session.CourseID, domain.EnrollmentUpsert{
		PaymentStatus:   domain.PaymentPaid,
		PaymentIntentID: session.PaymentIntentID,
	})
	if err != nil {
		return nil, err
	}

	uc.notifyEnrollment(session.StudentID, course, true)
	return enrollment, nil
}

func (uc *enrollmentUsecase) ListForStudent(ctx context.Context, studentID uint) ([]domain.Enrollment, error) {
	return uc.enrollmentRepo.GetByStudentID(ctx, studentID)
}

func (uc *enrollmentUsecase) ListForCourse(ctx context.Context, courseID uint) ([]domain.Enrollment, error) {
	return uc.enrollmentRepo.GetByCourseID(ctx, courseID)
}

// notifyEnrollment emails both sides after the write committed. Mail failure
// is logged and swallowed, it never unwinds the enrollment.
func (uc *enrollmentUsecase) notifyEnrollment(studentID uint, course *domain.Course, paid bool) {
	go func() {
		ctx := context.Background()
		student, err := uc.userRepo.GetByID(ctx, studentID)
		if err != nil {
			logger.Log.Warn("enrollment mail skipped: student lookup failed",
				zap.Uint("student_id", studentID), zap.Error(err))
			return
		}
		instructor, err := uc.userRepo.GetByID(ctx, course.InstructorID)
		if err != nil {
			logger.Log.Warn("enrollment mail: instructor lookup failed",
				zap.Uint("instructor_id", course.InstructorID), zap.Error(err))
			instructor = nil
		}
		if err := uc.notifier.EnrollmentConfirmed(ctx, student, instructor, course, paid); err != nil {
			logger.Log.Warn("enrollment mail failed",
				zap.Uint("student_id", studentID), zap.Uint("course_id", course.ID), zap.Error(err))
		}
	}()
}

// ========== PROGRESS ==========

// MarkContentComplete records one completed content item. Completion and the
// progress recompute are a single atomic write, so marking the same item
// twice is a no-op and concurrent completions always converge on the progress
// of the full completion set. Hitting 100% issues the certificate exactly once.
func (uc *enrollmentUsecase) MarkContentComplete(ctx context.Context, studentID, courseID uint, contentID string) (*domain.ProgressUpdate, error) {
	content, err := uc.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if content.CourseID != courseID {
		return nil, domain.BadRequestf("content %s does not belong to course %d", contentID, courseID)
	}

	// live denominator: content added since enrollment counts against progress
	total, err := uc.contentRepo.CountByCourseID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	enrollment, err := uc.enrollmentRepo.AddCompletedContent(ctx, studentID, courseID, contentID, total)
	if err != nil {
		return nil, err
	}

	update := &domain.ProgressUpdate{
		Progress:          enrollment.Progress,
		CertificateIssued: enrollment.CertificateIssued,
		CertificateURL:    enrollment.CertificateURL,
	}

	if enrollment.Progress >= 100 && !enrollment.CertificateIssued {
		url := certificateURL(enrollment.ID.Hex())
		issued, err := uc.enrollmentRepo.IssueCertificate(ctx, enrollment.ID.Hex(), url)
		if err != nil {
			return nil, err
		}
		if issued {
			logger.Log.Info("certificate issued",
				zap.Uint("student_id", studentID), zap.Uint("course_id", courseID))
		}
		// whether this call won the race or a concurrent one did, the
		// certificate now exists
		update.CertificateIssued = true
		update.CertificateURL = url
	}

	return update, nil
}

func certificateURL(enrollmentID string) string {
	return fmt.Sprintf("/certificates/%s.pdf", enrollmentID)
}
