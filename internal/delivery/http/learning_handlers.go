package http

import (
	"net/http"

	"coursehub-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

// ========== ENROLLMENT HANDLERS ==========

func (h *Handler) Enroll(c *gin.Context) {
	courseID, err := paramUint(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var body struct {
		PaymentStatus   string `json:"payment_status"`
		PaymentIntentID string `json:"payment_intent_id"`
	}
	// body is optional, free enrolls send nothing
	_ = c.ShouldBindJSON(&body)

	enrollment, err := h.EnrollmentUsecase.Enroll(
		c.Request.Context(),
		getUserID(c), getUserRole(c),
		courseID,
		domain.PaymentStatus(body.PaymentStatus),
		body.PaymentIntentID,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

func (h *Handler) Purchase(c *gin.Context) {
	courseID, err := paramUint(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	checkoutURL, enrollment, err := h.EnrollmentUsecase.Purchase(c.Request.Context(), getUserID(c), courseID)
	if err != nil {
		respondError(c, err)
		return
	}

	if enrollment != nil {
		// free course, enrolled directly without checkout
		c.JSON(http.StatusOK, gin.H{"enrollment": enrollment})
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkout_url": checkoutURL})
}

func (h *Handler) PurchaseSuccess(c *gin.Context) {
	var body struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	enrollment, err := h.EnrollmentUsecase.ConfirmPaidEnrollment(c.Request.Context(), getUserID(c), body.SessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

func (h *Handler) GetMyEnrollments(c *gin.Context) {
	enrollments, err := h.EnrollmentUsecase.ListForStudent(c.Request.Context(), getUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollments)
}

func (h *Handler) GetCourseEnrollments(c *gin.Context) {
	courseID, err := paramUint(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if getUserRole(c) == domain.RoleInstructor {
		course, err := h.CourseUsecase.GetCourse(c.Request.Context(), courseID)
		if err != nil {
			respondError(c, err)
			return
		}
		if course.InstructorID != getUserID(c) {
			respondError(c, domain.Forbiddenf("course %d does not belong to instructor %d", courseID, getUserID(c)))
			return
		}
	}

	enrollments, err := h.EnrollmentUsecase.ListForCourse(c.Request.Context(), courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollments)
}

// ========== PROGRESS HANDLERS ==========

func (h *Handler) MarkContentComplete(c *gin.Context) {
	courseID, err := paramUint(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	update, err := h.EnrollmentUsecase.MarkContentComplete(
		c.Request.Context(),
		getUserID(c),
		courseID,
		c.Param("contentId"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, update)
}

// ========== QUIZ HANDLERS ==========

func (h *Handler) SubmitQuiz(c *gin.Context) {
	var body struct {
		Answers []domain.SubmittedAnswer `json:"answers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	result, err := h.QuizUsecase.SubmitQuiz(c.Request.Context(), getUserID(c), c.Param("contentId"), body.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetMyQuizSubmission(c *gin.Context) {
	sub, err := h.QuizUsecase.GetSubmission(c.Request.Context(), getUserID(c), c.Param("contentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) GetQuizAnalytics(c *gin.Context) {
	analytics, err := h.QuizUsecase.Analytics(c.Request.Context(), c.Param("contentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// ========== ASSIGNMENT HANDLERS ==========

func (h *Handler) SubmitAssignment(c *gin.Context) {
	comments := c.PostForm("comments")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		// missing file is legal on resubmission, the usecase decides
		file, header = nil, nil
	} else {
		defer file.Close()
	}

	sub, err := h.AssignmentUsecase.Submit(c.Request.Context(), getUserID(c), c.Param("contentId"), file, header, comments)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) GetMyAssignmentSubmission(c *gin.Context) {
	sub, err := h.AssignmentUsecase.GetOwn(c.Request.Context(), getUserID(c), c.Param("contentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) ListAssignmentSubmissions(c *gin.Context) {
	subs, err := h.AssignmentUsecase.ListForAssignment(c.Request.Context(), c.Param("contentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (h *Handler) GradeAssignment(c *gin.Context) {
	var body struct {
		Grade    *float64 `json:"grade" binding:"required"`
		Feedback string   `json:"feedback"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	sub, err := h.AssignmentUsecase.Grade(c.Request.Context(), c.Param("submissionId"), *body.Grade, body.Feedback, getUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}
