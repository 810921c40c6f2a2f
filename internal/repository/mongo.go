package repository

import (
	"context"
	"errors"
	"time"

	"coursehub-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique indexes the atomic upserts rely on. Called
// once at startup, idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("enrollments").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "course_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = db.Collection("quiz_submissions").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "quiz_content_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = db.Collection("assignment_submissions").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "assignment_content_id", Value: 1}, {Key: "student_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// wrapWriteError maps a unique-index violation to the conflict sentinel, so a
// racing duplicate surfaces as 409 instead of a server error. Other errors
// pass through untouched.
func wrapWriteError(err error, format string, args ...interface{}) error {
	if mongo.IsDuplicateKeyError(err) {
		return domain.Conflictf(format, args...)
	}
	return err
}

// ========== CONTENT REPOSITORY ==========

type contentRepo struct {
	db *mongo.Database
}

func NewContentRepository(db *mongo.Database) domain.ContentRepository {
	return &contentRepo{db}
}

func (r *contentRepo) Create(ctx context.Context, content *domain.CourseContent) error {
	content.ID = primitive.NewObjectID()
	content.CreatedAt = time.Now()
	content.UpdatedAt = content.CreatedAt
	_, err := r.db.Collection("course_contents").InsertOne(ctx, content)
	return err
}

func (r *contentRepo) GetByID(ctx context.Context, id string) (*domain.CourseContent, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.BadRequestf("invalid content id %q", id)
	}
	var content domain.CourseContent
	err = r.db.Collection("course_contents").FindOne(ctx, bson.M{"_id": objID}).Decode(&content)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFoundf("content %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &content, nil
}

func (r *contentRepo) GetByCourseID(ctx context.Context, courseID uint) ([]domain.CourseContent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.db.Collection("course_contents").Find(ctx, bson.M{"course_id": courseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var contents []domain.CourseContent
	if err := cursor.All(ctx, &contents); err != nil {
		return nil, err
	}
	return contents, nil
}

func (r *contentRepo) CountByCourseID(ctx context.Context, courseID uint) (int64, error) {
	return r.db.Collection("course_contents").CountDocuments(ctx, bson.M{"course_id": courseID})
}

func (r *contentRepo) Update(ctx context.Context, content *domain.CourseContent) error {
	content.UpdatedAt = time.Now()
	res, err := r.db.Collection("course_contents").ReplaceOne(ctx, bson.M{"_id": content.ID}, content)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.NotFoundf("content %s", content.ID.Hex())
	}
	return nil
}

func (r *contentRepo) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.BadRequestf("invalid content id %q", id)
	}
	res, err := r.db.Collection("course_contents").DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.NotFoundf("content %s", id)
	}
	return nil
}

// ========== ENROLLMENT REPOSITORY ==========

type enrollmentRepo struct {
	db *mongo.Database
}

func NewEnrollmentRepository(db *mongo.Database) domain.EnrollmentRepository {
	return &enrollmentRepo{db}
}

func (r *enrollmentRepo) collection() *mongo.Collection {
	return r.db.Collection("enrollments")
}

// Upsert is the single write path for creating enrollments. One
// FindOneAndUpdate carries both branches: $setOnInsert seeds the immutable
// first-enrollment state, $set refreshes the payment fields, so a re-enroll
// never resets progress or the certificate.
func (r *enrollmentRepo) Upsert(ctx context.Context, studentID, courseID uint, fields domain.EnrollmentUpsert) (*domain.Enrollment, error) {
	filter := bson.M{"student_id": studentID, "course_id": courseID}
	set := bson.M{"payment_status": fields.PaymentStatus}
	if fields.PaymentIntentID != "" {
		set["payment_intent_id"] = fields.PaymentIntentID
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"student_id":         studentID,
			"course_id":          courseID,
			"enrolled_at":        time.Now(),
			"progress":           0,
			"completed_content":  []primitive.ObjectID{},
			"certificate_issued": false,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var enrollment domain.Enrollment
	if err := r.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&enrollment); err != nil {
		return nil, wrapWriteError(err, "enrollment for student %d in course %d already exists", studentID, courseID)
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := r.collection().FindOne(ctx, bson.M{"student_id": studentID, "course_id": courseID}).Decode(&enrollment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFoundf("enrollment for student %d in course %d", studentID, courseID)
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) GetByStudentID(ctx context.Context, studentID uint) ([]domain.Enrollment, error) {
	return r.find(ctx, bson.M{"student_id": studentID})
}

func (r *enrollmentRepo) GetByCourseID(ctx context.Context, courseID uint) ([]domain.Enrollment, error) {
	return r.find(ctx, bson.M{"course_id": courseID})
}

func (r *enrollmentRepo) find(ctx context.Context, filter bson.M) ([]domain.Enrollment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "enrolled_at", Value: -1}})
	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var enrollments []domain.Enrollment
	if err := cursor.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepo) Count(ctx context.Context) (int64, error) {
	return r.collection().CountDocuments(ctx, bson.M{})
}

// AddCompletedContent folds the set addition and the progress recompute into
// one pipeline update. Progress is always derived from the completion set the
// write itself produced, so concurrent completions can never persist a stale
// value: whichever write lands last computed from the full set.
func (r *enrollmentRepo) AddCompletedContent(ctx context.Context, studentID, courseID uint, contentID string, totalContent int64) (*domain.Enrollment, error) {
	objID, err := primitive.ObjectIDFromHex(contentID)
	if err != nil {
		return nil, domain.BadRequestf("invalid content id %q", contentID)
	}
	filter := bson.M{"student_id": studentID, "course_id": courseID}

	update := bson.A{
		bson.M{"$set": bson.M{"completed_content": bson.M{"$setUnion": bson.A{
			bson.M{"$ifNull": bson.A{"$completed_content", bson.A{}}},
			bson.A{objID},
		}}}},
	}
	if totalContent > 0 {
		// round half up, capped at 100
		percent := bson.M{"$multiply": bson.A{
			bson.M{"$divide": bson.A{bson.M{"$size": "$completed_content"}, totalContent}},
			100,
		}}
		update = append(update, bson.M{"$set": bson.M{"progress": bson.M{"$min": bson.A{
			100,
			bson.M{"$toInt": bson.M{"$floor": bson.M{"$add": bson.A{percent, 0.5}}}},
		}}}})
	} else {
		update = append(update, bson.M{"$set": bson.M{"progress": 0}})
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var enrollment domain.Enrollment
	err = r.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&enrollment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFoundf("enrollment for student %d in course %d", studentID, courseID)
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) DeleteByCourseID(ctx context.Context, courseID uint) error {
	_, err := r.collection().DeleteMany(ctx, bson.M{"course_id": courseID})
	return err
}

// IssueCertificate guards the false->true transition in the filter itself, so
// two concurrent 100% completions race on the same document and exactly one
// observes ModifiedCount == 1.
func (r *enrollmentRepo) IssueCertificate(ctx context.Context, enrollmentID string, url string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(enrollmentID)
	if err != nil {
		return false, domain.BadRequestf("invalid enrollment id %q", enrollmentID)
	}
	filter := bson.M{"_id": objID, "certificate_issued": false}
	update := bson.M{"$set": bson.M{
		"certificate_issued": true,
		"certificate_url":    url,
	}}
	res, err := r.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ========== QUIZ SUBMISSION REPOSITORY ==========

type quizSubmissionRepo struct {
	db *mongo.Database
}

func NewQuizSubmissionRepository(db *mongo.Database) domain.QuizSubmissionRepository {
	return &quizSubmissionRepo{db}
}

func (r *quizSubmissionRepo) collection() *mongo.Collection {
	return r.db.Collection("quiz_submissions")
}

// Upsert replaces the whole attempt. Retakes keep the same _id thanks to
// $setOnInsert, sehingga tidak ada riwayat attempt yang menumpuk.
func (r *quizSubmissionRepo) Upsert(ctx context.Context, sub *domain.QuizSubmission) (*domain.QuizSubmission, error) {
	filter := bson.M{"student_id": sub.StudentID, "quiz_content_id": sub.QuizContentID}
	update := bson.M{
		"$set": bson.M{
			"course_id":    sub.CourseID,
			"answers":      sub.Answers,
			"score":        sub.Score,
			"submitted_at": sub.SubmittedAt,
		},
		"$setOnInsert": bson.M{
			"student_id":      sub.StudentID,
			"quiz_content_id": sub.QuizContentID,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var saved domain.QuizSubmission
	if err := r.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return nil, wrapWriteError(err, "quiz submission for student %d on quiz %s already exists", sub.StudentID, sub.QuizContentID.Hex())
	}
	return &saved, nil
}

func (r *quizSubmissionRepo) GetByStudentAndQuiz(ctx context.Context, studentID uint, quizContentID string) (*domain.QuizSubmission, error) {
	objID, err := primitive.ObjectIDFromHex(quizContentID)
	if err != nil {
		return nil, domain.BadRequestf("invalid quiz content id %q", quizContentID)
	}
	var sub domain.QuizSubmission
	err = r.collection().FindOne(ctx, bson.M{"student_id": studentID, "quiz_content_id": objID}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFoundf("quiz submission for student %d on quiz %s", studentID, quizContentID)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *quizSubmissionRepo) GetByQuizContentID(ctx context.Context, quizContentID string) ([]domain.QuizSubmission, error) {
	objID, err := primitive.ObjectIDFromHex(quizContentID)
	if err != nil {
		return nil, domain.BadRequestf("invalid quiz content id %q", quizContentID)
	}
	cursor, err := r.collection().Find(ctx, bson.M{"quiz_content_id": objID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []domain.QuizSubmission
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// ========== ASSIGNMENT SUBMISSION REPOSITORY ==========

type assignmentSubmissionRepo struct {
	db *mongo.Database
}

func NewAssignmentSubmissionRepository(db *mongo.Database) domain.AssignmentSubmissionRepository {
	return &assignmentSubmissionRepo{db}
}

func (r *assignmentSubmissionRepo) collection() *mongo.Collection {
	return r.db.Collection("assignment_submissions")
}

func (r *assignmentSubmissionRepo) Upsert(ctx context.Context, studentID uint, assignmentContentID string, fields domain.AssignmentUpsert) (*domain.AssignmentSubmission, error) {
	objID, err := primitive.ObjectIDFromHex(assignmentContentID)
	if err != nil {
		return nil, domain.BadRequestf("invalid assignment content id %q", assignmentContentID)
	}
	filter := bson.M{"student_id": studentID, "assignment_content_id": objID}
	update := bson.M{
		"$set": bson.M{
			"file_url":     fields.FileURL,
			"comments":     fields.Comments,
			"submitted_at": fields.SubmittedAt,
		},
		"$setOnInsert": bson.M{
			"student_id":            studentID,
			"assignment_content_id": objID,
		},
	}
	if fields.ClearGrade {
		update["$unset"] = bson.M{"grade": "", "feedback": "", "graded_by": "", "graded_at": ""}
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var sub domain.AssignmentSubmission
	if err := r.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&sub); err != nil {
		return nil, wrapWriteError(err, "assignment submission for student %d on assignment %s already exists", studentID, assignmentContentID)
	}
	return &sub, nil
}

// UpdateExisting handles a file-less resubmission: it never inserts, and when
// fields.FileURL is empty the stored file is kept as is.
func (r *assignmentSubmissionRepo) UpdateExisting(ctx context.Context, studentID uint, assignmentContentID string, fields domain.AssignmentUpsert) (*domain.AssignmentSubmission, error) {
	objID, err := primitive.ObjectIDFromHex(assignmentContentID)
	if err != nil {
		return nil, domain.BadRequestf("invalid assignment content id %q", assignmentContentID)
	}
	set := bson.M{
		"comments":     fields.Comments,
		"submitted_at": fields.SubmittedAt,
	}
	if fields.FileURL != "" {
		set["file_url"] = fields.FileURL
	}
	update := bson.M{"$set": set}
	if fields.ClearGrade {
		update["$unset"] = bson.M{"grade": "", "feedback": "", "graded_by": "", "graded_at": ""}
	}
	filter := bson.M{"student_id": studentID, "assignment_content_id": objID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var sub domain.AssignmentSubmission
	err = r.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFoundf("assignment submission for student %d on assignment %s", studentID, assignmentContentID)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *assignmentSubmissionRepo) GetByID(ctx context.Context, submissionID string) (*domain.AssignmentSubmission, error) {
	objID, err := primitive.ObjectIDFromHex(submissionID)
	if err != nil {
		return nil, domain.BadRequestf("invalid submission id %q", submissionID)
	}
	var sub domain.AssignmentSubmission
	err = r.collection().FindOne(ctx, bson.M{"_id": objID}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFoundf("submission %s", submissionID)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *assignmentSubmissionRepo) GetByStudentAndAssignment(ctx context.Context, studentID uint, assignmentContentID string) (*domain.AssignmentSubmission, error) {
	objID, err := primitive.ObjectIDFromHex(assignmentContentID)
	if err != nil {
		return nil, domain.BadRequestf("invalid assignment content id %q", assignmentContentID)
	}
	var sub domain.AssignmentSubmission
	err = r.collection().FindOne(ctx, bson.M{"student_id": studentID, "assignment_content_id": objID}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFoundf("assignment submission for student %d on assignment %s", studentID, assignmentContentID)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *assignmentSubmissionRepo) GetByAssignmentContentID(ctx context.Context, assignmentContentID string) ([]domain.AssignmentSubmission, error) {
	objID, err := primitive.ObjectIDFromHex(assignmentContentID)
	if err != nil {
		return nil, domain.BadRequestf("invalid assignment content id %q", assignmentContentID)
	}
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	cursor, err := r.collection().Find(ctx, bson.M{"assignment_content_id": objID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []domain.AssignmentSubmission
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// SetGrade only touches the instructor-owned fields, jadi student resubmission
// dan grading tidak saling menimpa.
func (r *assignmentSubmissionRepo) SetGrade(ctx context.Context, submissionID string, grade float64, feedback string, gradedBy uint, gradedAt time.Time) (*domain.AssignmentSubmission, error) {
	objID, err := primitive.ObjectIDFromHex(submissionID)
	if err != nil {
		return nil, domain.BadRequestf("invalid submission id %q", submissionID)
	}
	update := bson.M{"$set": bson.M{
		"grade":     grade,
		"feedback":  feedback,
		"graded_by": gradedBy,
		"graded_at": gradedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var sub domain.AssignmentSubmission
	err = r.collection().FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFoundf("submission %s", submissionID)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
