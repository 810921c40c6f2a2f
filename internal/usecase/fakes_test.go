package usecase_test

import (
	"bytes"
	"context"
	"io"
	"math"
	"mime/multipart"
	"sync"
	"time"

	"coursehub-backend/internal/domain"
	"coursehub-backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func init() {
	logger.Log = zap.NewNop()
}

// ========== USER / COURSE FAKES ==========

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uint]domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint]domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.Conflictf("email %s already registered", user.Email)
		}
	}
	user.ID = uint(len(r.users) + 1)
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, domain.NotFoundf("user %s", email)
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.NotFoundf("user %d", id)
	}
	out := u
	return &out, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []uint) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetAll(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, id uint, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.NotFoundf("user %d", id)
	}
	u.Role = role
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) CountByRole(ctx context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, u := range r.users {
		counts[string(u.Role)]++
	}
	return counts, nil
}

type fakeCourseRepo struct {
	mu      sync.Mutex
	courses map[uint]domain.Course
}

func newFakeCourseRepo(courses ...domain.Course) *fakeCourseRepo {
	r := &fakeCourseRepo{courses: make(map[uint]domain.Course)}
	for _, c := range courses {
		r.courses[c.ID] = c
	}
	return r
}

func (r *fakeCourseRepo) Create(ctx context.Context, course *domain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	course.ID = uint(len(r.courses) + 1)
	r.courses[course.ID] = *course
	return nil
}

func (r *fakeCourseRepo) GetAll(ctx context.Context) ([]domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Course
	for _, c := range r.courses {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCourseRepo) GetByID(ctx context.Context, id uint) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, domain.NotFoundf("course %d", id)
	}
	out := c
	return &out, nil
}

func (r *fakeCourseRepo) GetByInstructorID(ctx context.Context, instructorID uint) ([]domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Course
	for _, c := range r.courses {
		if c.InstructorID == instructorID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) Update(ctx context.Context, course *domain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses[course.ID] = *course
	return nil
}

func (r *fakeCourseRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.courses, id)
	return nil
}

func (r *fakeCourseRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.courses)), nil
}

// ========== CONTENT FAKE ==========

type fakeContentRepo struct {
	mu       sync.Mutex
	contents map[string]domain.CourseContent

	// fired once at the next CountByCourseID, before the count; lets a test
	// interleave a competing request at that point
	countHook func()
}

func newFakeContentRepo(contents ...domain.CourseContent) *fakeContentRepo {
	r := &fakeContentRepo{contents: make(map[string]domain.CourseContent)}
	for _, c := range contents {
		r.contents[c.ID.Hex()] = c
	}
	return r
}

func (r *fakeContentRepo) Create(ctx context.Context, content *domain.CourseContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	content.ID = primitive.NewObjectID()
	r.contents[content.ID.Hex()] = *content
	return nil
}

func (r *fakeContentRepo) GetByID(ctx context.Context, id string) (*domain.CourseContent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contents[id]
	if !ok {
		return nil, domain.NotFoundf("content %s", id)
	}
	out := c
	return &out, nil
}

func (r *fakeContentRepo) GetByCourseID(ctx context.Context, courseID uint) ([]domain.CourseContent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CourseContent
	for _, c := range r.contents {
		if c.CourseID == courseID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeContentRepo) CountByCourseID(ctx context.Context, courseID uint) (int64, error) {
	if h := r.countHook; h != nil {
		r.countHook = nil
		h()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.contents {
		if c.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (r *fakeContentRepo) Update(ctx context.Context, content *domain.CourseContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contents[content.ID.Hex()]; !ok {
		return domain.NotFoundf("content %s", content.ID.Hex())
	}
	r.contents[content.ID.Hex()] = *content
	return nil
}

func (r *fakeContentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contents[id]; !ok {
		return domain.NotFoundf("content %s", id)
	}
	delete(r.contents, id)
	return nil
}

// ========== ENROLLMENT FAKE ==========

type enrollmentKey struct {
	studentID uint
	courseID  uint
}

type fakeEnrollmentRepo struct {
	mu          sync.Mutex
	enrollments map[enrollmentKey]*domain.Enrollment
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{enrollments: make(map[enrollmentKey]*domain.Enrollment)}
}

func (r *fakeEnrollmentRepo) Upsert(ctx context.Context, studentID, courseID uint, fields domain.EnrollmentUpsert) (*domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := enrollmentKey{studentID, courseID}
	e, ok := r.enrollments[key]
	if !ok {
		e = &domain.Enrollment{
			ID:               primitive.NewObjectID(),
			StudentID:        studentID,
			CourseID:         courseID,
			EnrolledAt:       time.Now(),
			CompletedContent: []primitive.ObjectID{},
		}
		r.enrollments[key] = e
	}
	e.PaymentStatus = fields.PaymentStatus
	if fields.PaymentIntentID != "" {
		e.PaymentIntentID = fields.PaymentIntentID
	}
	out := *e
	return &out, nil
}

func (r *fakeEnrollmentRepo) GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (*domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.enrollments[enrollmentKey{studentID, courseID}]
	if !ok {
		return nil, domain.NotFoundf("enrollment for student %d in course %d", studentID, courseID)
	}
	out := *e
	return &out, nil
}

func (r *fakeEnrollmentRepo) GetByStudentID(ctx context.Context, studentID uint) ([]domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Enrollment
	for k, e := range r.enrollments {
		if k.studentID == studentID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) GetByCourseID(ctx context.Context, courseID uint) ([]domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Enrollment
	for k, e := range r.enrollments {
		if k.courseID == courseID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.enrollments)), nil
}

func (r *fakeEnrollmentRepo) DeleteByCourseID(ctx context.Context, courseID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.enrollments {
		if k.courseID == courseID {
			delete(r.enrollments, k)
		}
	}
	return nil
}

// AddCompletedContent mirrors the pipeline update: the set addition and the
// progress recompute happen under one lock, derived from the post-add set.
func (r *fakeEnrollmentRepo) AddCompletedContent(ctx context.Context, studentID, courseID uint, contentID string, totalContent int64) (*domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.enrollments[enrollmentKey{studentID, courseID}]
	if !ok {
		return nil, domain.NotFoundf("enrollment for student %d in course %d", studentID, courseID)
	}
	objID, err := primitive.ObjectIDFromHex(contentID)
	if err != nil {
		return nil, domain.BadRequestf("invalid content id %q", contentID)
	}
	found := false
	for _, id := range e.CompletedContent {
		if id == objID {
			found = true
			break
		}
	}
	if !found {
		e.CompletedContent = append(e.CompletedContent, objID)
	}
	e.Progress = 0
	if totalContent > 0 {
		p := int(math.Floor(float64(len(e.CompletedContent))/float64(totalContent)*100 + 0.5))
		if p > 100 {
			p = 100
		}
		e.Progress = p
	}
	out := *e
	return &out, nil
}

func (r *fakeEnrollmentRepo) IssueCertificate(ctx context.Context, enrollmentID string, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.enrollments {
		if e.ID.Hex() == enrollmentID {
			if e.CertificateIssued {
				return false, nil
			}
			e.CertificateIssued = true
			e.CertificateURL = url
			return true, nil
		}
	}
	return false, domain.NotFoundf("enrollment %s", enrollmentID)
}

// ========== QUIZ SUBMISSION FAKE ==========

type quizKey struct {
	studentID uint
	quizID    string
}

type fakeQuizSubmissionRepo struct {
	mu   sync.Mutex
	subs map[quizKey]*domain.QuizSubmission
}

func newFakeQuizSubmissionRepo() *fakeQuizSubmissionRepo {
	return &fakeQuizSubmissionRepo{subs: make(map[quizKey]*domain.QuizSubmission)}
}

func (r *fakeQuizSubmissionRepo) Upsert(ctx context.Context, sub *domain.QuizSubmission) (*domain.QuizSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := quizKey{sub.StudentID, sub.QuizContentID.Hex()}
	existing, ok := r.subs[key]
	if ok {
		sub.ID = existing.ID
	} else {
		sub.ID = primitive.NewObjectID()
	}
	cp := *sub
	r.subs[key] = &cp
	out := cp
	return &out, nil
}

func (r *fakeQuizSubmissionRepo) GetByStudentAndQuiz(ctx context.Context, studentID uint, quizContentID string) (*domain.QuizSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[quizKey{studentID, quizContentID}]
	if !ok {
		return nil, domain.NotFoundf("quiz submission for student %d on quiz %s", studentID, quizContentID)
	}
	out := *s
	return &out, nil
}

func (r *fakeQuizSubmissionRepo) GetByQuizContentID(ctx context.Context, quizContentID string) ([]domain.QuizSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.QuizSubmission
	for k, s := range r.subs {
		if k.quizID == quizContentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

// ========== ASSIGNMENT SUBMISSION FAKE ==========

type assignmentKey struct {
	studentID    uint
	assignmentID string
}

type fakeAssignmentSubmissionRepo struct {
	mu   sync.Mutex
	subs map[assignmentKey]*domain.AssignmentSubmission
}

func newFakeAssignmentSubmissionRepo() *fakeAssignmentSubmissionRepo {
	return &fakeAssignmentSubmissionRepo{subs: make(map[assignmentKey]*domain.AssignmentSubmission)}
}

func (r *fakeAssignmentSubmissionRepo) apply(sub *domain.AssignmentSubmission, fields domain.AssignmentUpsert) {
	if fields.FileURL != "" {
		sub.FileURL = fields.FileURL
	}
	sub.Comments = fields.Comments
	sub.SubmittedAt = fields.SubmittedAt
	if fields.ClearGrade {
		sub.Grade = nil
		sub.Feedback = ""
		sub.GradedBy = nil
		sub.GradedAt = nil
	}
}

func (r *fakeAssignmentSubmissionRepo) Upsert(ctx context.Context, studentID uint, assignmentContentID string, fields domain.AssignmentUpsert) (*domain.AssignmentSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := assignmentKey{studentID, assignmentContentID}
	sub, ok := r.subs[key]
	if !ok {
		objID, _ := primitive.ObjectIDFromHex(assignmentContentID)
		sub = &domain.AssignmentSubmission{
			ID:                  primitive.NewObjectID(),
			AssignmentContentID: objID,
			StudentID:           studentID,
		}
		r.subs[key] = sub
	}
	r.apply(sub, fields)
	out := *sub
	return &out, nil
}

func (r *fakeAssignmentSubmissionRepo) UpdateExisting(ctx context.Context, studentID uint, assignmentContentID string, fields domain.AssignmentUpsert) (*domain.AssignmentSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[assignmentKey{studentID, assignmentContentID}]
	if !ok {
		return nil, domain.NotFoundf("assignment submission for student %d on assignment %s", studentID, assignmentContentID)
	}
	r.apply(sub, fields)
	out := *sub
	return &out, nil
}

func (r *fakeAssignmentSubmissionRepo) GetByID(ctx context.Context, submissionID string) (*domain.AssignmentSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.ID.Hex() == submissionID {
			out := *s
			return &out, nil
		}
	}
	return nil, domain.NotFoundf("submission %s", submissionID)
}

func (r *fakeAssignmentSubmissionRepo) GetByStudentAndAssignment(ctx context.Context, studentID uint, assignmentContentID string) (*domain.AssignmentSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[assignmentKey{studentID, assignmentContentID}]
	if !ok {
		return nil, domain.NotFoundf("assignment submission for student %d on assignment %s", studentID, assignmentContentID)
	}
	out := *s
	return &out, nil
}

func (r *fakeAssignmentSubmissionRepo) GetByAssignmentContentID(ctx context.Context, assignmentContentID string) ([]domain.AssignmentSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AssignmentSubmission
	for k, s := range r.subs {
		if k.assignmentID == assignmentContentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeAssignmentSubmissionRepo) SetGrade(ctx context.Context, submissionID string, grade float64, feedback string, gradedBy uint, gradedAt time.Time) (*domain.AssignmentSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.ID.Hex() == submissionID {
			s.Grade = &grade
			s.Feedback = feedback
			s.GradedBy = &gradedBy
			s.GradedAt = &gradedAt
			out := *s
			return &out, nil
		}
	}
	return nil, domain.NotFoundf("submission %s", submissionID)
}

// ========== COLLABORATOR FAKES ==========

type fakePaymentGateway struct {
	session     *domain.CheckoutSession
	createErr   error
	retrieveErr error
}

func (g *fakePaymentGateway) CreateCheckoutSession(ctx context.Context, course *domain.Course, student *domain.User) (*domain.CheckoutSession, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	return g.session, nil
}

func (g *fakePaymentGateway) RetrieveSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	if g.retrieveErr != nil {
		return nil, g.retrieveErr
	}
	return g.session, nil
}

type fakeNotifier struct {
	err   error
	calls chan struct{}
}

func newFakeNotifier(err error) *fakeNotifier {
	return &fakeNotifier{err: err, calls: make(chan struct{}, 16)}
}

func (n *fakeNotifier) EnrollmentConfirmed(ctx context.Context, student, instructor *domain.User, course *domain.Course, paid bool) error {
	n.calls <- struct{}{}
	return n.err
}

func (n *fakeNotifier) waitForCall(timeout time.Duration) bool {
	select {
	case <-n.calls:
		return true
	case <-time.After(timeout):
		return false
	}
}

type fakeFileStore struct {
	saveErr error
	saved   []domain.StoredFile
}

func (f *fakeFileStore) Save(ctx context.Context, file multipart.File, header *multipart.FileHeader, meta domain.FileMeta) (*domain.StoredFile, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	stored := domain.StoredFile{
		ID:           primitive.NewObjectID().Hex(),
		OriginalName: header.Filename,
		UploadedBy:   meta.UploadedBy,
		CourseID:     meta.CourseID,
		UploadedAt:   time.Now(),
	}
	stored.URL = "/api/files/" + stored.ID
	f.saved = append(f.saved, stored)
	out := stored
	return &out, nil
}

func (f *fakeFileStore) Open(ctx context.Context, fileID string) (io.ReadCloser, *domain.StoredFile, error) {
	return nil, nil, domain.NotFoundf("file %s", fileID)
}

func (f *fakeFileStore) Stat(ctx context.Context, fileID string) (*domain.StoredFile, error) {
	return nil, domain.NotFoundf("file %s", fileID)
}

func (f *fakeFileStore) Delete(ctx context.Context, fileID string) error {
	return nil
}

// dummyFile satisfies multipart.File for upload tests.
type dummyFile struct{ *bytes.Reader }

func (dummyFile) Close() error { return nil }

func newDummyUpload(name string, content []byte) (multipart.File, *multipart.FileHeader) {
	return dummyFile{bytes.NewReader(content)}, &multipart.FileHeader{
		Filename: name,
		Size:     int64(len(content)),
	}
}
