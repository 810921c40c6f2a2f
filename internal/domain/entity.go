package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// ValidForSignup reports whether a role can be chosen at registration.
// Admin accounts are only created by promotion.
func (r Role) ValidForSignup() bool {
	return r == RoleStudent || r == RoleInstructor
}

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleInstructor || r == RoleAdmin
}

type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	FirstName      string    `json:"first_name" gorm:"not null"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email" gorm:"uniqueIndex;not null"`
	Password       string    `json:"-" gorm:"not null"`
	Role           Role      `json:"role" gorm:"type:varchar(20);default:'student'"`
	Country        string    `json:"country"`
	ProfilePicture string    `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type Category string

const (
	CategoryProgramming Category = "Programming"
	CategoryDesign      Category = "Design"
	CategoryBusiness    Category = "Business"
	CategoryLanguage    Category = "Language"
	CategoryOther       Category = "Other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryProgramming, CategoryDesign, CategoryBusiness, CategoryLanguage, CategoryOther:
		return true
	}
	return false
}

type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

type Course struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Title          string    `json:"title" gorm:"not null"`
	Description    string    `json:"description" gorm:"type:text"`
	InstructorID   uint      `json:"instructor_id" gorm:"not null;index"`
	InstructorName string    `json:"instructor_name"`
	Category       Category  `json:"category" gorm:"type:varchar(20);not null"`
	Price          float64   `json:"price" gorm:"not null;default:0"` // 0 = free
	Level          Level     `json:"level" gorm:"type:varchar(20);not null"`
	CoverImage     string    `json:"cover_image"`
	SampleVideo    string    `json:"sample_video"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relations
	Instructor User `json:"instructor,omitempty" gorm:"foreignKey:InstructorID"`
}

func (c *Course) Free() bool {
	return c.Price == 0
}

// ========== MONGODB MODELS ==========

type ContentType string

const (
	ContentSlide      ContentType = "slide"
	ContentVideo      ContentType = "video"
	ContentDocument   ContentType = "document"
	ContentLive       ContentType = "live"
	ContentAssignment ContentType = "assignment"
	ContentQuiz       ContentType = "quiz"
	ContentNotice     ContentType = "notice"
	ContentPoll       ContentType = "poll"
	ContentSurvey     ContentType = "survey"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentSlide, ContentVideo, ContentDocument, ContentLive, ContentAssignment,
		ContentQuiz, ContentNotice, ContentPoll, ContentSurvey:
		return true
	}
	return false
}

// QuizQuestion is one entry of a quiz's answer key. Question text is the
// identity used to match submitted answers, so it must be unique within a quiz.
type QuizQuestion struct {
	Question string   `json:"question" bson:"question"`
	Options  []string `json:"options" bson:"options"`
	Answer   string   `json:"answer" bson:"answer"`
}

type PollOption struct {
	Option string `json:"option" bson:"option"`
	Votes  int    `json:"votes" bson:"votes"`
}

type SurveyQuestion struct {
	Question       string   `json:"question" bson:"question"`
	Options        []string `json:"options" bson:"options"`
	AnswerRequired bool     `json:"answer_required" bson:"answer_required"`
}

// CourseContent disimpan di MongoDB karena payload-nya type-specific: only the
// fields relevant to Type are set, the rest stay at their zero value.
type CourseContent struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CourseID    uint               `json:"course_id" bson:"course_id"`
	Type        ContentType        `json:"type" bson:"type"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`

	// slide / video / document
	ContentURL   string `json:"content_url,omitempty" bson:"content_url,omitempty"`
	ExternalLink string `json:"external_link,omitempty" bson:"external_link,omitempty"`

	// live sessions
	LiveDate *time.Time `json:"live_date,omitempty" bson:"live_date,omitempty"`

	// assignments / quizzes
	DueDate        *time.Time `json:"due_date,omitempty" bson:"due_date,omitempty"`
	AssignmentFile string     `json:"assignment_file,omitempty" bson:"assignment_file,omitempty"`

	// quiz answer key, in presentation order
	Questions []QuizQuestion `json:"questions,omitempty" bson:"questions,omitempty"`

	// notices
	NoticeText string `json:"notice_text,omitempty" bson:"notice_text,omitempty"`

	// polls / surveys
	PollOptions     []PollOption     `json:"poll_options,omitempty" bson:"poll_options,omitempty"`
	SurveyQuestions []SurveyQuestion `json:"survey_questions,omitempty" bson:"survey_questions,omitempty"`

	CreatedBy uint      `json:"created_by" bson:"created_by"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type PaymentStatus string

const (
	PaymentFree    PaymentStatus = "free"
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentFree, PaymentPending, PaymentPaid:
		return true
	}
	return false
}

// Enrollment - binds one student to one course. At most one document exists
// per (student, course) pair, enforced by a unique index; all writers go
// through atomic upserts.
type Enrollment struct {
	ID                primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	StudentID         uint                 `json:"student_id" bson:"student_id"`
	CourseID          uint                 `json:"course_id" bson:"course_id"`
	EnrolledAt        time.Time            `json:"enrolled_at" bson:"enrolled_at"`
	PaymentStatus     PaymentStatus        `json:"payment_status" bson:"payment_status"`
	PaymentIntentID   string               `json:"payment_intent_id,omitempty" bson:"payment_intent_id,omitempty"`
	Progress          int                  `json:"progress" bson:"progress"` // 0-100%
	CompletedContent  []primitive.ObjectID `json:"completed_content" bson:"completed_content"`
	CertificateIssued bool                 `json:"certificate_issued" bson:"certificate_issued"`
	CertificateURL    string               `json:"certificate_url,omitempty" bson:"certificate_url,omitempty"`
}

// GradedAnswer - one graded entry of a quiz submission, in quiz-question order.
type GradedAnswer struct {
	Question  string `json:"question" bson:"question"`
	Selected  string `json:"selected" bson:"selected"`
	Correct   string `json:"correct" bson:"correct"`
	IsCorrect bool   `json:"is_correct" bson:"is_correct"`
}

// QuizSubmission - a student's current attempt for one quiz. A retake
// overwrites the document in place; there is no attempt history.
type QuizSubmission struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	StudentID     uint               `json:"student_id" bson:"student_id"`
	CourseID      uint               `json:"course_id" bson:"course_id"`
	QuizContentID primitive.ObjectID `json:"quiz_content_id" bson:"quiz_content_id"`
	Answers       []GradedAnswer     `json:"answers" bson:"answers"`
	Score         int                `json:"score" bson:"score"`
	SubmittedAt   time.Time          `json:"submitted_at" bson:"submitted_at"`
}

// AssignmentSubmission - a student's current deliverable for one assignment.
// Submission fields are owned by the student, grade fields by the grading
// instructor; the two write paths never touch each other's fields.
type AssignmentSubmission struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AssignmentContentID primitive.ObjectID `json:"assignment_content_id" bson:"assignment_content_id"`
	StudentID           uint               `json:"student_id" bson:"student_id"`
	FileURL             string             `json:"file_url" bson:"file_url"`
	Comments            string             `json:"comments,omitempty" bson:"comments,omitempty"`
	SubmittedAt         time.Time          `json:"submitted_at" bson:"submitted_at"`
	Grade               *float64           `json:"grade,omitempty" bson:"grade,omitempty"`
	Feedback            string             `json:"feedback,omitempty" bson:"feedback,omitempty"`
	GradedBy            *uint              `json:"graded_by,omitempty" bson:"graded_by,omitempty"`
	GradedAt            *time.Time         `json:"graded_at,omitempty" bson:"graded_at,omitempty"`
}

// ========== RESPONSE DTOs ==========

// ProgressUpdate - what the student sees after marking a content item done.
type ProgressUpdate struct {
	Progress          int    `json:"progress"`
	CertificateIssued bool   `json:"certificate_issued"`
	CertificateURL    string `json:"certificate_url,omitempty"`
}

// QuizResult - the outcome of an auto-graded quiz submission.
type QuizResult struct {
	Score   int            `json:"score"`
	Answers []GradedAnswer `json:"answers"`
}

// QuestionStats aggregates all submissions' outcomes for one quiz question.
type QuestionStats struct {
	Question        string `json:"question"`
	Correct         int    `json:"correct"`
	Incorrect       int    `json:"incorrect"`
	MostCommonWrong string `json:"most_common_wrong,omitempty"`
}

type QuizAnalytics struct {
	TotalSubmissions int             `json:"total_submissions"`
	AverageScore     float64         `json:"average_score"`
	QuestionStats    []QuestionStats `json:"question_stats"`
}

// SubmissionWithStudent - assignment submission plus its submitter, for the
// instructor listing.
type SubmissionWithStudent struct {
	AssignmentSubmission
	Student *User `json:"student,omitempty"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type DailyRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

// EnrolledStudent - one row of the per-course analytics student list.
type EnrolledStudent struct {
	ID                uint          `json:"id"`
	Name              string        `json:"name"`
	Email             string        `json:"email"`
	EnrolledAt        time.Time     `json:"enrolled_at"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	Country           string        `json:"country,omitempty"`
	Progress          int           `json:"progress"`
	CertificateIssued bool          `json:"certificate_issued"`
}

// CourseAnalytics - the instructor/admin view of one course's enrollments.
type CourseAnalytics struct {
	CourseID         uint              `json:"course_id"`
	Title            string            `json:"title"`
	Total            int               `json:"total"`
	Paid             int               `json:"paid"`
	Free             int               `json:"free"`
	Earnings         float64           `json:"earnings"`
	Price            float64           `json:"price"`
	DailyEnrollments []DailyCount      `json:"daily_enrollments"`
	DailyRevenue     []DailyRevenue    `json:"daily_revenue,omitempty"`
	Students         []EnrolledStudent `json:"students,omitempty"`
	CompletionRate   float64           `json:"completion_rate"`
}

// InstructorAnalytics - enrollment analytics across all of an instructor's courses.
type InstructorAnalytics struct {
	Courses       []CourseAnalytics `json:"courses"`
	TotalEarnings float64           `json:"total_earnings"`
}

// AdminOverview - the admin dashboard's headline numbers.
type AdminOverview struct {
	TotalUsers       int64            `json:"total_users"`
	TotalCourses     int64            `json:"total_courses"`
	UsersByRole      map[string]int64 `json:"users_by_role"`
	TotalEnrollments int64            `json:"total_enrollments"`
	TotalRevenue     float64          `json:"total_revenue"`
}

// ========== COLLABORATOR TYPES ==========

// CheckoutSession - the payment gateway's view of a purchase. Metadata carries
// the (course, student) pair through the redirect round trip.
type CheckoutSession struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	PaymentStatus   string `json:"payment_status"` // "paid" once the purchase completed
	PaymentIntentID string `json:"payment_intent_id"`
	CourseID        uint   `json:"course_id"`
	StudentID       uint   `json:"student_id"`
}

// StoredFile describes an object persisted by the FileStore. URL is the only
// thing the domain keeps; the rest is serving metadata.
type StoredFile struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`
	UploadedBy   uint      `json:"uploaded_by"`
	CourseID     uint      `json:"course_id,omitempty"`
}
