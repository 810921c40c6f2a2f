package domain

import (
	"context"
	"io"
	"mime/multipart"
	"time"
)

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uint) (*User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]User, error)
	GetAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user *User) error
	UpdateRole(ctx context.Context, id uint, role Role) error
	Delete(ctx context.Context, id uint) error
	CountByRole(ctx context.Context) (map[string]int64, error)
}

type CourseRepository interface {
	Create(ctx context.Context, course *Course) error
	GetAll(ctx context.Context) ([]Course, error)
	GetByID(ctx context.Context, id uint) (*Course, error)
	GetByInstructorID(ctx context.Context, instructorID uint) ([]Course, error)
	Update(ctx context.Context, course *Course) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type ContentRepository interface { // MongoDB
	Create(ctx context.Context, content *CourseContent) error
	GetByID(ctx context.Context, id string) (*CourseContent, error)
	GetByCourseID(ctx context.Context, courseID uint) ([]CourseContent, error)
	CountByCourseID(ctx context.Context, courseID uint) (int64, error)
	Update(ctx context.Context, content *CourseContent) error
	Delete(ctx context.Context, id string) error
}

// EnrollmentUpsert carries the mutable payment fields of the ledger upsert.
// Everything else (enrolledAt, progress, completedContent) is set only on
// first insert.
type EnrollmentUpsert struct {
	PaymentStatus   PaymentStatus
	PaymentIntentID string
}

type EnrollmentRepository interface { // MongoDB
	// Upsert inserts or updates the single document keyed by
	// (studentID, courseID) in one atomic write and returns the result.
	Upsert(ctx context.Context, studentID, courseID uint, fields EnrollmentUpsert) (*Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (*Enrollment, error)
	GetByStudentID(ctx context.Context, studentID uint) ([]Enrollment, error)
	GetByCourseID(ctx context.Context, courseID uint) ([]Enrollment, error)
	Count(ctx context.Context) (int64, error)
	// DeleteByCourseID removes every enrollment of a course.
	DeleteByCourseID(ctx context.Context, courseID uint) error
	// AddCompletedContent atomically adds contentID to the completion set and,
	// in the same write, recomputes progress from the resulting set against
	// totalContent. Returns the post-update document. ErrNotFound when no
	// enrollment exists for the pair.
	AddCompletedContent(ctx context.Context, studentID, courseID uint, contentID string, totalContent int64) (*Enrollment, error)
	// IssueCertificate flips certificateIssued false->true and sets the URL.
	// The false->true condition lives in the update filter, so the transition
	// fires at most once; reports whether this call performed it.
	IssueCertificate(ctx context.Context, enrollmentID string, url string) (bool, error)
}

type QuizSubmissionRepository interface { // MongoDB
	// Upsert replaces the single submission keyed by (studentID, quizContentID)
	// in one atomic write (retake semantics).
	Upsert(ctx context.Context, sub *QuizSubmission) (*QuizSubmission, error)
	GetByStudentAndQuiz(ctx context.Context, studentID uint, quizContentID string) (*QuizSubmission, error)
	GetByQuizContentID(ctx context.Context, quizContentID string) ([]QuizSubmission, error)
}

// AssignmentUpsert carries the student-owned fields of a submission write.
// ClearGrade additionally unsets the instructor-owned grade fields.
type AssignmentUpsert struct {
	FileURL     string
	Comments    string
	SubmittedAt time.Time
	ClearGrade  bool
}

type AssignmentSubmissionRepository interface { // MongoDB
	// Upsert inserts or overwrites the submission keyed by
	// (studentID, assignmentContentID) in one atomic write.
	Upsert(ctx context.Context, studentID uint, assignmentContentID string, fields AssignmentUpsert) (*AssignmentSubmission, error)
	// UpdateExisting applies fields to an existing submission only, keeping
	// the stored fileUrl when fields.FileURL is empty. ErrNotFound when no
	// submission exists for the pair.
	UpdateExisting(ctx context.Context, studentID uint, assignmentContentID string, fields AssignmentUpsert) (*AssignmentSubmission, error)
	GetByID(ctx context.Context, submissionID string) (*AssignmentSubmission, error)
	GetByStudentAndAssignment(ctx context.Context, studentID uint, assignmentContentID string) (*AssignmentSubmission, error)
	GetByAssignmentContentID(ctx context.Context, assignmentContentID string) ([]AssignmentSubmission, error)
	SetGrade(ctx context.Context, submissionID string, grade float64, feedback string, gradedBy uint, gradedAt time.Time) (*AssignmentSubmission, error)
}

// ========== EXTERNAL COLLABORATORS ==========

// PaymentGateway wraps the checkout provider. The core only ever consumes the
// retrieved session's status and metadata.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, course *Course, student *User) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}

// FileMeta is attached to stored objects for later access checks.
type FileMeta struct {
	UploadedBy uint
	CourseID   uint
}

// FileStore persists uploaded bytes and hands back an opaque retrievable URL.
// The domain never stores raw bytes.
type FileStore interface {
	Save(ctx context.Context, file multipart.File, header *multipart.FileHeader, meta FileMeta) (*StoredFile, error)
	Open(ctx context.Context, fileID string) (io.ReadCloser, *StoredFile, error)
	Stat(ctx context.Context, fileID string) (*StoredFile, error)
	Delete(ctx context.Context, fileID string) error
}

// Notifier delivers transactional mail. Best effort: callers log failures and
// never roll back committed state because of them.
type Notifier interface {
	EnrollmentConfirmed(ctx context.Context, student, instructor *User, course *Course, paid bool) error
}

// ========== USECASES ==========

type AuthUsecase interface {
	Register(ctx context.Context, user *User) error
	Login(ctx context.Context, email, password string) (string, error)
	UpdateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uint) (*User, error)
}

type CourseUsecase interface {
	CreateCourse(ctx context.Context, course *Course) error
	UpdateCourse(ctx context.Context, actorID uint, actorRole Role, course *Course) error
	DeleteCourse(ctx context.Context, actorID uint, actorRole Role, courseID uint) error
	GetAllCourses(ctx context.Context) ([]Course, error)
	GetCourse(ctx context.Context, courseID uint) (*Course, error)
	GetInstructorCourses(ctx context.Context, instructorID uint) ([]Course, error)

	AddContent(ctx context.Context, actorID uint, content *CourseContent) error
	UpdateContent(ctx context.Context, actorID uint, content *CourseContent) error
	DeleteContent(ctx context.Context, actorID uint, contentID string) error
	GetContent(ctx context.Context, contentID string) (*CourseContent, error)
	ListContent(ctx context.Context, actorID uint, actorRole Role, courseID uint) ([]CourseContent, error)
}

type EnrollmentUsecase interface {
	Enroll(ctx context.Context, studentID uint, studentRole Role, courseID uint, requested PaymentStatus, paymentIntentID string) (*Enrollment, error)
	Purchase(ctx context.Context, studentID, courseID uint) (checkoutURL string, enrollment *Enrollment, err error)
	ConfirmPaidEnrollment(ctx context.Context, callerID uint, sessionID string) (*Enrollment, error)
	ListForStudent(ctx context.Context, studentID uint) ([]Enrollment, error)
	ListForCourse(ctx context.Context, courseID uint) ([]Enrollment, error)
	MarkContentComplete(ctx context.Context, studentID, courseID uint, contentID string) (*ProgressUpdate, error)
}

type QuizUsecase interface {
	SubmitQuiz(ctx context.Context, studentID uint, quizContentID string, answers []SubmittedAnswer) (*QuizResult, error)
	GetSubmission(ctx context.Context, studentID uint, quizContentID string) (*QuizSubmission, error)
	Analytics(ctx context.Context, quizContentID string) (*QuizAnalytics, error)
}

// SubmittedAnswer is a student's raw answer before grading.
type SubmittedAnswer struct {
	Question string `json:"question" binding:"required"`
	Selected string `json:"selected"`
}

type AssignmentUsecase interface {
	Submit(ctx context.Context, studentID uint, assignmentContentID string, file multipart.File, header *multipart.FileHeader, comments string) (*AssignmentSubmission, error)
	Grade(ctx context.Context, submissionID string, grade float64, feedback string, graderID uint) (*AssignmentSubmission, error)
	GetOwn(ctx context.Context, studentID uint, assignmentContentID string) (*AssignmentSubmission, error)
	ListForAssignment(ctx context.Context, assignmentContentID string) ([]SubmissionWithStudent, error)
}

type AnalyticsUsecase interface {
	CourseAnalytics(ctx context.Context, courseID uint) (*CourseAnalytics, error)
	InstructorAnalytics(ctx context.Context, instructorID uint) (*InstructorAnalytics, error)
	AdminOverview(ctx context.Context) (*AdminOverview, error)
}

type AdminUsecase interface {
	ListUsers(ctx context.Context) ([]User, error)
	ChangeUserRole(ctx context.Context, userID uint, role Role) error
	DeleteUser(ctx context.Context, userID uint) error
	DeleteCourse(ctx context.Context, courseID uint) error
}
