package usecase

import (
	"context"
	"sort"

	"coursehub-backend/internal/domain"
)

type analyticsUsecase struct {
	courseRepo     domain.CourseRepository
	enrollmentRepo domain.EnrollmentRepository
	userRepo       domain.UserRepository
}

func NewAnalyticsUsecase(
	cr domain.CourseRepository,
	er domain.EnrollmentRepository,
	ur domain.UserRepository,
) domain.AnalyticsUsecase {
	return &analyticsUsecase{
		courseRepo:     cr,
		enrollmentRepo: er,
		userRepo:       ur,
	}
}

func (uc *analyticsUsecase) CourseAnalytics(ctx context.Context, courseID uint) (*domain.CourseAnalytics, error) {
	course, err := uc.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return uc.buildCourseAnalytics(ctx, course, true)
}

func (uc *analyticsUsecase) buildCourseAnalytics(ctx context.Context, course *domain.Course, withStudents bool) (*domain.CourseAnalytics, error) {
	enrollments, err := uc.enrollmentRepo.GetByCourseID(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	analytics := &domain.CourseAnalytics{
		CourseID: course.ID,
		Title:    course.Title,
		Total:    len(enrollments),
		Price:    course.Price,
	}

	dailyCounts := make(map[string]int)
	dailyRevenue := make(map[string]float64)
	completed := 0
	for _, e := range enrollments {
		day := e.EnrolledAt.Format("2006-01-02")
		dailyCounts[day]++
		switch e.PaymentStatus {
		case domain.PaymentPaid:
			analytics.Paid++
			analytics.Earnings += course.Price
			dailyRevenue[day] += course.Price
		case domain.PaymentFree:
			analytics.Free++
		}
		if e.CertificateIssued {
			completed++
		}
	}
	if len(enrollments) > 0 {
		analytics.CompletionRate = float64(completed) / float64(len(enrollments)) * 100
	}

	analytics.DailyEnrollments = sortedDailyCounts(dailyCounts)
	for _, dc := range analytics.DailyEnrollments {
		if rev, ok := dailyRevenue[dc.Date]; ok {
			analytics.DailyRevenue = append(analytics.DailyRevenue, domain.DailyRevenue{Date: dc.Date, Revenue: rev})
		}
	}

	if !withStudents {
		return analytics, nil
	}

	ids := make([]uint, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.StudentID)
	}
	students, err := uc.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]domain.User, len(students))
	for _, s := range students {
		byID[s.ID] = s
	}
	for _, e := range enrollments {
		student, ok := byID[e.StudentID]
		if !ok {
			continue // student account deleted, keep the row out
		}
		analytics.Students = append(analytics.Students, domain.EnrolledStudent{
			ID:                student.ID,
			Name:              student.FullName(),
			Email:             student.Email,
			EnrolledAt:        e.EnrolledAt,
			PaymentStatus:     e.PaymentStatus,
			Country:           student.Country,
			Progress:          e.Progress,
			CertificateIssued: e.CertificateIssued,
		})
	}

	return analytics, nil
}

func (uc *analyticsUsecase) InstructorAnalytics(ctx context.Context, instructorID uint) (*domain.InstructorAnalytics, error) {
	courses, err := uc.courseRepo.GetByInstructorID(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	result := &domain.InstructorAnalytics{Courses: make([]domain.CourseAnalytics, 0, len(courses))}
	for i := range courses {
		ca, err := uc.buildCourseAnalytics(ctx, &courses[i], false)
		if err != nil {
			return nil, err
		}
		result.Courses = append(result.Courses, *ca)
		result.TotalEarnings += ca.Earnings
	}
	return result, nil
}

func (uc *analyticsUsecase) AdminOverview(ctx context.Context) (*domain.AdminOverview, error) {
	usersByRole, err := uc.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	totalUsers := int64(0)
	for _, n := range usersByRole {
		totalUsers += n
	}

	totalCourses, err := uc.courseRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalEnrollments, err := uc.enrollmentRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	// revenue needs per-course prices, so walk the catalog
	courses, err := uc.courseRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	revenue := 0.0
	for i := range courses {
		if courses[i].Free() {
			continue
		}
		enrollments, err := uc.enrollmentRepo.GetByCourseID(ctx, courses[i].ID)
		if err != nil {
			return nil, err
		}
		for _, e := range enrollments {
			if e.PaymentStatus == domain.PaymentPaid {
				revenue += courses[i].Price
			}
		}
	}

	return &domain.AdminOverview{
		TotalUsers:       totalUsers,
		TotalCourses:     totalCourses,
		UsersByRole:      usersByRole,
		TotalEnrollments: totalEnrollments,
		TotalRevenue:     revenue,
	}, nil
}

func sortedDailyCounts(counts map[string]int) []domain.DailyCount {
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)

	result := make([]domain.DailyCount, 0, len(days))
	for _, d := range days {
		result = append(result, domain.DailyCount{Date: d, Count: counts[d]})
	}
	return result
}
