package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"coursehub-backend/internal/domain"
	"coursehub-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Handler struct {
	AuthUsecase       domain.AuthUsecase
	CourseUsecase     domain.CourseUsecase
	EnrollmentUsecase domain.EnrollmentUsecase
	QuizUsecase       domain.QuizUsecase
	AssignmentUsecase domain.AssignmentUsecase
	AnalyticsUsecase  domain.AnalyticsUsecase
	AdminUsecase      domain.AdminUsecase
	FileStore         domain.FileStore
}

func NewHandler(
	au domain.AuthUsecase,
	cu domain.CourseUsecase,
	eu domain.EnrollmentUsecase,
	qu domain.QuizUsecase,
	asu domain.AssignmentUsecase,
	anu domain.AnalyticsUsecase,
	adu domain.AdminUsecase,
	fs domain.FileStore,
) *Handler {
	return &Handler{
		AuthUsecase:       au,
		CourseUsecase:     cu,
		EnrollmentUsecase: eu,
		QuizUsecase:       qu,
		AssignmentUsecase: asu,
		AnalyticsUsecase:  anu,
		AdminUsecase:      adu,
		FileStore:         fs,
	}
}

// ========== UTILITY FUNCTIONS ==========

func formatValidationErrors(err error) gin.H {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		errors := make(map[string]string)
		for _, f := range ve {
			errors[f.Field()] = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", f.Field(), f.Tag())
		}
		return gin.H{"error": "Validation failed", "details": errors}
	}
	return gin.H{"error": "Invalid request: " + err.Error()}
}

// respondError translates the domain's error kinds to status codes. Anything
// unclassified is a 500 and gets logged with its cause.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logger.Log.Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func getUserID(c *gin.Context) uint {
	userID, _ := c.Get("user_id")
	id, _ := userID.(uint)
	return id
}

func getUserRole(c *gin.Context) domain.Role {
	role, _ := c.Get("role")
	r, _ := role.(string)
	return domain.Role(r)
}

func paramUint(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, domain.BadRequestf("invalid %s %q", name, c.Param(name))
	}
	return uint(v), nil
}

// ========== AUTH HANDLERS ==========

func (h *Handler) Register(c *gin.Context) {
	var user domain.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	if user.Role == "" {
		user.Role = domain.RoleStudent
	}
	if user.Email == "" || user.Password == "" || user.FirstName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "first_name, email and password are required"})
		return
	}

	if err := h.AuthUsecase.Register(c.Request.Context(), &user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user": gin.H{
			"id":    user.ID,
			"name":  user.FullName(),
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func (h *Handler) Login(c *gin.Context) {
	var creds struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	token, err := h.AuthUsecase.Login(c.Request.Context(), creds.Email, creds.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.AuthUsecase.GetUserByID(c.Request.Context(), getUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var user domain.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	user.ID = getUserID(c)

	if err := h.AuthUsecase.UpdateUser(c.Request.Context(), &user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

// ========== COURSE HANDLERS ==========

func (h *Handler) CreateCourse(c *gin.Context) {
	var course domain.Course
	if err := c.ShouldBindJSON(&course); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	course.InstructorID = getUserID(c)

	if err := h.CourseUsecase.CreateCourse(c.Request.Context(), &course); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (h *Handler) UpdateCourse(c *gin.Context) {
	courseID, err := paramUint(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var course domain.Course
	if err := c.ShouldBindJSON(&course); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	course.ID = courseID

	if err := h.CourseUsecase.UpdateCourse(c.Request.Context(), getUserID(c), getUserRole(c), &course); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Course updated successfully"})
}

func (h *Handler) DeleteCourse(c *gin.Context) {
	courseID, err := paramUint(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.CourseUsecase.DeleteCourse(c.Request.Context(), getUserID(c), getUserRole(c), courseID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Course deleted successfully"})
}

func (h *Handler) GetAllCourses(c *gin.Context) {
	courses, err := h.CourseUsecase.GetAllCourses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *Handler) GetCourse(c *gin.Context) {
	courseID, err := paramUint(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	course, err := h.CourseUsecase.GetCourse(c.Request.Context(), courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *Handler) GetInstructorCourses(c *gin.Context) {
	courses, err := h.CourseUsecase.GetInstructorCourses(c.Request.Context(), getUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

// ========== CONTENT HANDLERS ==========

func (h *Handler) AddContent(c *gin.Context) {
	courseID, err := paramUint(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var content domain.CourseContent
	if err := c.ShouldBindJSON(&content); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}
	content.CourseID = courseID

	if err := h.CourseUsecase.AddContent(c.Request.Context(), getUserID(c), &content); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, content)
}

func (h *Handler) UpdateContent(c *gin.Context) {
	var content domain.CourseContent
	if err := c.ShouldBindJSON(&content); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	existing, err := h.CourseUsecase.GetContent(c.Request.Context(), c.Param("contentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	content.ID = existing.ID

	if err := h.CourseUsecase.UpdateContent(c.Request.Context(), getUserID(c), &content); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Content updated successfully"})
}

func (h *Handler) DeleteContent(c *gin.Context) {
	if err := h.CourseUsecase.DeleteContent(c.Request.Context(), getUserID(c), c.Param("contentId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Content deleted successfully"})
}

func (h *Handler) ListContent(c *gin.Context) {
	courseID, err := paramUint(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	contents, err := h.CourseUsecase.ListContent(c.Request.Context(), getUserID(c), getUserRole(c), courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contents)
}

// ========== ANALYTICS HANDLERS ==========

func (h *Handler) GetCourseAnalytics(c *gin.Context) {
	courseID, err := paramUint(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	// instructors may only inspect their own course
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

	analytics, err := h.AnalyticsUsecase.CourseAnalytics(c.Request.Context(), courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (h *Handler) GetInstructorAnalytics(c *gin.Context) {
	analytics, err := h.AnalyticsUsecase.InstructorAnalytics(c.Request.Context(), getUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (h *Handler) GetAdminOverview(c *gin.Context) {
	overview, err := h.AnalyticsUsecase.AdminOverview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// ========== ADMIN HANDLERS ==========

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.AdminUsecase.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) ChangeUserRole(c *gin.Context) {
	userID, err := paramUint(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var body struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, formatValidationErrors(err))
		return
	}

	if err := h.AdminUsecase.ChangeUserRole(c.Request.Context(), userID, domain.Role(body.Role)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated successfully"})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	userID, err := paramUint(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.AdminUsecase.DeleteUser(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *Handler) AdminDeleteCourse(c *gin.Context) {
	courseID, err := paramUint(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.AdminUsecase.DeleteCourse(c.Request.Context(), courseID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Course deleted successfully"})
}
