package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"

	"github.com/examgate/examgate/internal/dto"
	"github.com/examgate/examgate/internal/model"
	"github.com/examgate/examgate/internal/repository"
	"github.com/examgate/examgate/internal/service"
	"github.com/examgate/examgate/internal/transport"
)

type Controller struct {
	sessionSvc   *service.AttemptSessionService
	bankSvc      service.QuestionBankService
	analyticsSvc service.AnalyticsService
	attemptRepo  repository.AttemptRepository
	completions  repository.CompletionRepository
}

func NewController(
	sessionSvc *service.AttemptSessionService,
	bankSvc service.QuestionBankService,
	analyticsSvc service.AnalyticsService,
	attemptRepo repository.AttemptRepository,
	completions repository.CompletionRepository,
) *Controller {
	return &Controller{
		sessionSvc:   sessionSvc,
		bankSvc:      bankSvc,
		analyticsSvc: analyticsSvc,
		attemptRepo:  attemptRepo,
		completions:  completions,
	}
}

func (ctrl *Controller) RegisterRoutes(router *gin.Engine) {
	apiV1 := router.Group("/api/v1")
	{
		sessions := apiV1.Group("/sessions")
		sessions.POST("", ctrl.StartSessionHandler)
		sessions.GET("/:id", ctrl.GetSessionHandler)
		sessions.POST("/:id/start", ctrl.RetryStartHandler)
		sessions.POST("/:id/answer", ctrl.SubmitAnswerHandler)
		sessions.POST("/:id/back", ctrl.BackHandler)
		sessions.POST("/:id/finish", ctrl.FinishHandler)
		sessions.DELETE("/:id", ctrl.CloseSessionHandler)

		questions := apiV1.Group("/questions")
		questions.GET("", ctrl.ListQuestionsHandler)
		questions.POST("", ctrl.CreateQuestionHandler)
		questions.DELETE("/:id", ctrl.DeleteQuestionHandler)
		questions.POST("/:id/review", ctrl.ReviewQuestionHandler)

		attempts := apiV1.Group("/attempts")
		attempts.GET("/mine", ctrl.MyAttemptsHandler)
		attempts.GET("/:id/summary", ctrl.AttemptSummaryHandler)
		attempts.GET("/:id/items", ctrl.AttemptItemsHandler)

		apiV1.GET("/completions/mine", ctrl.MyCompletionsHandler)
		apiV1.GET("/analytics/overview", ctrl.AnalyticsOverviewHandler)
	}
}

// statusForSession maps a terminal or settled session state to the response
// status the UI branches on.
func statusForSession(state dto.SessionStateDTO, created bool) int {
	switch service.SessionState(state.State) {
	case service.StateAlreadyCompleted:
		return http.StatusConflict
	case service.StateEmpty:
		return http.StatusUnprocessableEntity
	default:
		if created {
			return http.StatusCreated
		}
		return http.StatusOK
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrMissingTestRef):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotRunning), errors.Is(err, service.ErrNoHistory):
		return http.StatusConflict
	case errors.Is(err, service.ErrGuardUnresolved):
		return http.StatusBadGateway
	case transport.IsValidationError(err):
		return http.StatusBadRequest
	case transport.IsAuthError(err):
		return http.StatusUnauthorized
	case transport.IsNetworkError(err), transport.IsServerError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// StartSessionHandler godoc
// @Summary Open and start an attempt session
// @Description Creates a session for the candidate and drives it through the completion guard, pool build and backend start. Terminal outcomes (already completed, no eligible questions) come back as the session state, not as generic errors.
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body dto.StartSessionRequest true "Candidate, test reference and attempt options"
// @Success 201 {object} dto.SessionStateDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 409 {object} dto.SessionStateDTO "Assignment already completed"
// @Failure 422 {object} dto.SessionStateDTO "No eligible questions"
// @Failure 502 {object} dto.ErrorResponse "Backend unavailable"
// @Router /sessions [post]
func (ctrl *Controller) StartSessionHandler(c *gin.Context) {
	var req dto.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind StartSessionRequest")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	sess, err := ctrl.sessionSvc.Open(req)
	if err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Message: err.Error()})
		return
	}

	sess, err = ctrl.sessionSvc.Start(c.Request.Context(), sess.ID)
	if err != nil {
		log.Error().Err(err).Str("candidate", req.Candidate).Msg("Session start failed")
		state := sess.Snapshot()
		c.JSON(statusForError(err), dto.ErrorResponse{Message: "Failed to start attempt", Details: []string{err.Error(), "session_id=" + state.SessionID}})
		return
	}

	state := sess.Snapshot()
	c.JSON(statusForSession(state, true), state)
}

// GetSessionHandler godoc
// @Summary Get the current state of a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{id} [get]
func (ctrl *Controller) GetSessionHandler(c *gin.Context) {
	sess, err := ctrl.sessionSvc.Get(c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

// RetryStartHandler godoc
// @Summary Retry starting a session after a failed start
// @Description A no-op while a start is already in flight; otherwise runs the guard and start flow again.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 502 {object} dto.ErrorResponse "Backend unavailable"
// @Router /sessions/{id}/start [post]
func (ctrl *Controller) RetryStartHandler(c *gin.Context) {
	sess, err := ctrl.sessionSvc.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
			return
		}
		log.Error().Err(err).Str("sessionID", c.Param("id")).Msg("Session restart failed")
		c.JSON(statusForError(err), dto.ErrorResponse{Message: "Failed to start attempt", Details: []string{err.Error()}})
		return
	}
	state := sess.Snapshot()
	c.JSON(statusForSession(state, false), state)
}

// SubmitAnswerHandler godoc
// @Summary Submit the answer for the current question
// @Description Records the answer optimistically, then advances to the next question or finalizes the attempt when the last question is answered. A missing selection is recorded as unanswered.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param answer body dto.AnswerRequest true "Selected option index or free text"
// @Success 200 {object} dto.SessionStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Session is not in progress"
// @Failure 502 {object} dto.ErrorResponse "Recording rejected by the backend"
// @Router /sessions/{id}/answer [post]
func (ctrl *Controller) SubmitAnswerHandler(c *gin.Context) {
	var req dto.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind AnswerRequest")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	sess, err := ctrl.sessionSvc.SubmitCurrent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		log.Error().Err(err).Str("sessionID", c.Param("id")).Msg("Answer submission failed")
		c.JSON(statusForError(err), dto.ErrorResponse{Message: "Failed to record answer", Details: []string{err.Error()}})
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

// BackHandler godoc
// @Summary Go back to the previously answered question
// @Description Local undo only. The already recorded answer is not retracted; answering again records a second item for the same question.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Nothing to go back to"
// @Router /sessions/{id}/back [post]
func (ctrl *Controller) BackHandler(c *gin.Context) {
	sess, err := ctrl.sessionSvc.Back(c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

// FinishHandler godoc
// @Summary Finalize the attempt
// @Description Finalizes the attempt server-side. Safe to call again on an already submitted session or to retry a failed finalize.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Session has not started"
// @Failure 502 {object} dto.ErrorResponse "Backend unavailable"
// @Router /sessions/{id}/finish [post]
func (ctrl *Controller) FinishHandler(c *gin.Context) {
	sess, err := ctrl.sessionSvc.Finish(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Error().Err(err).Str("sessionID", c.Param("id")).Msg("Finalize failed")
		c.JSON(statusForError(err), dto.ErrorResponse{Message: "Failed to finalize attempt", Details: []string{err.Error()}})
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

// CloseSessionHandler godoc
// @Summary Tear a session down
// @Description Stops the question timer and drops the session. In-flight call results are discarded rather than applied to the disposed session.
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{id} [delete]
func (ctrl *Controller) CloseSessionHandler(c *gin.Context) {
	if err := ctrl.sessionSvc.Close(c.Param("id")); err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListQuestionsHandler godoc
// @Summary List the question bank
// @Description Lists bank questions for content editors, correct answers included. Serves the last cached snapshot when the backend is unreachable.
// @Tags questions
// @Produce json
// @Param topic query string false "Filter by topic"
// @Param difficulty query int false "Filter by difficulty 1-5"
// @Param status query string false "Filter by lifecycle status" Enums(draft, published, archived)
// @Success 200 {array} dto.BankQuestionDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid difficulty format"
// @Router /questions [get]
func (ctrl *Controller) ListQuestionsHandler(c *gin.Context) {
	filter := repository.QuestionFilter{
		Topic:  c.Query("topic"),
		Status: model.QuestionStatus(c.Query("status")),
	}
	if difficultyStr := c.Query("difficulty"); difficultyStr != "" {
		difficulty, err := strconv.Atoi(difficultyStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid difficulty format"})
			return
		}
		filter.Difficulty = difficulty
	}

	questions, err := ctrl.bankSvc.List(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list questions")
		c.JSON(statusForError(err), dto.ErrorResponse{Message: "Failed to retrieve questions", Details: []string{err.Error()}})
		return
	}

	out := make([]dto.BankQuestionDTO, 0, len(questions))
	if err := copier.Copy(&out, &questions); err != nil {
		log.Error().Err(err).Msg("Failed to map questions")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to map questions"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// CreateQuestionHandler godoc
// @Summary Create a bank question
// @Description Adds a question through the optimistic store: it is visible immediately under a temporary id that is reconciled with the server-assigned id, or rolled back if the backend rejects it.
// @Tags questions
// @Accept json
// @Produce json
// @Param question body dto.CreateQuestionRequest true "Question data"
// @Success 201 {object} dto.BankQuestionDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 502 {object} dto.ErrorResponse "Backend rejected the question"
// @Router /questions [post]
func (ctrl *Controller) CreateQuestionHandler(c *gin.Context) {
	var req dto.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind CreateQuestionRequest")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	if req.CorrectIndex >= len(req.Options) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "correct_index is out of range for the provided options"})
		return
	}

	question := model.Question{
		Text:         req.Text,
		Options:      req.Options,
		CorrectIndex: req.CorrectIndex,
		Difficulty:   req.Difficulty,
		Topic:        req.Topic,
		Type:         model.QuestionType(req.Type),
		Status:       model.QuestionStatusDraft,
	}
	if question.Type == "" {
		question.Type = model.QuestionTypeMultipleChoice
	}

	created, err := ctrl.bankSvc.Create(c.Request.Context(), question)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create question")
		c.JSON(statusForError(err), dto.ErrorResponse{Message: "Failed to create question", Details: []string{err.Error()}})
		return
	}

	var out dto.BankQuestionDTO
	if err := copier.Copy(&out, created); err != nil {
		log.Error().Err(err).Msg("Failed to map created question")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to map question"})
		return
	}
	c.JSON(http.StatusCreated, out)
}

// DeleteQuestionHandler godoc
// @Summary Delete a bank question
// @Tags questions
// @Param id path string true "Question ID"
// @Success 204 "No Content"
// @Failure 502 {object} dto.ErrorResponse "Backend rejected the delete"
// @Router /questions/{id} [delete]
func (ctrl *Controller) DeleteQuestionHandler(c *gin.Context) {
	if err := ctrl.bankSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		log.Error().Err(err).Str("id", c.Param("id")).Msg("Failed to delete question")
		c.JSON(statusForError(err), dto.ErrorResponse{Message: "Failed to delete question", Details: []string{err.Error()}})
		return
	}
	c.Status(http.StatusNoContent)
}

// ReviewQuestionHandler godoc
// @Summary Change a question's review status
// @Tags questions
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param review body dto.ReviewStatusRequest true "New review status"
// @Success 200 {object} dto.ReviewStatusRequest
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 502 {object} dto.ErrorResponse "Backend rejected the change"
// @Router /questions/{id}/review [post]
func (ctrl *Controller) ReviewQuestionHandler(c *gin.Context) {
	var req dto.ReviewStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to bind ReviewStatusRequest")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	if err := ctrl.bankSvc.SetReviewStatus(c.Request.Context(), c.Param("id"), req.ReviewStatus); err != nil {
		log.Error().Err(err).Str("id", c.Param("id")).Msg("Failed to update review status")
		c.JSON(statusForError(err), dto.ErrorResponse{Message: "Failed to update review status", Details: []string{err.Error()}})
		return
	}
	c.JSON(http.StatusOK, req)
}

// MyAttemptsHandler godoc
// @Summary List the candidate's attempts
// @Tags attempts
// @Produce json
// @Success 200 {array} model.Attempt
// @Failure 502 {object} dto.ErrorResponse "Backend unavailable"
// @Router /attempts/mine [get]
func (ctrl *Controller) MyAttemptsHandler(c *gin.Context) {
	attempts, err := ctrl.attemptRepo.FindMine(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list attempts")
		c.JSON(statusForError(err), dto.ErrorResponse{Message: "Failed to retrieve attempts", Details: []string{err.Error()}})
		return
	}
	c.JSON(http.StatusOK, attempts)
}

// AttemptSummaryHandler godoc
// @Summary Get one attempt's summary
// @Tags attempts
// @Produce json
// @Param id path int true "Attempt ID"
// @Success 200 {object} dto.SummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid attempt ID format"
// @Failure 502 {object} dto.ErrorResponse "Backend unavailable"
// @Router /attempts/{id}/summary [get]
func (ctrl *Controller) AttemptSummaryHandler(c *gin.Context) {
	attemptID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid attempt ID format"})
		return
	}

	summary, err := ctrl.attemptRepo.Summary(c.Request.Context(), attemptID)
	if err != nil {
		log.Error().Err(err).Int64("attemptID", attemptID).Msg("Failed to get attempt summary")
		c.JSON(statusForError(err), dto.ErrorResponse{Message: "Failed to retrieve summary", Details: []string{err.Error()}})
		return
	}

	out := dto.SummaryDTO{
		AttemptID:       summary.AttemptID,
		CorrectAnswers:  summary.CorrectAnswers,
		TotalQuestions:  summary.TotalQuestions,
		Score:           summary.Score,
		FinishedAt:      summary.FinishedAt,
		RunningAccuracy: service.RunningAccuracy(summary.Sequence, summary.TotalQuestions),
	}
	if out.Score == 0 {
		out.Score = service.ScorePercent(summary.CorrectAnswers, summary.TotalQuestions)
	}
	c.JSON(http.StatusOK, out)
}

// AttemptItemsHandler godoc
// @Summary List one attempt's recorded items
// @Tags attempts
// @Produce json
// @Param id path int true "Attempt ID"
// @Param limit query int false "Max items to return"
// @Param offset query int false "Items to skip"
// @Success 200 {array} model.AttemptItem
// @Failure 400 {object} dto.ErrorResponse "Invalid attempt ID format"
// @Failure 502 {object} dto.ErrorResponse "Backend unavailable"
// @Router /attempts/{id}/items [get]
func (ctrl *Controller) AttemptItemsHandler(c *gin.Context) {
	attemptID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid attempt ID format"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := ctrl.attemptRepo.Items(c.Request.Context(), attemptID, limit, offset)
	if err != nil {
		log.Error().Err(err).Int64("attemptID", attemptID).Msg("Failed to get attempt items")
		c.JSON(statusForError(err), dto.ErrorResponse{Message: "Failed to retrieve items", Details: []string{err.Error()}})
		return
	}
	c.JSON(http.StatusOK, items)
}

// MyCompletionsHandler godoc
// @Summary List the candidate's assignment completions
// @Tags completions
// @Produce json
// @Param assignmentId query string false "Return only the completion for this assignment"
// @Success 200 {array} dto.CompletionDTO
// @Failure 502 {object} dto.ErrorResponse "Backend unavailable"
// @Router /completions/mine [get]
func (ctrl *Controller) MyCompletionsHandler(c *gin.Context) {
	if assignmentID := c.Query("assignmentId"); assignmentID != "" {
		completion, err := ctrl.completions.FindByAssignment(c.Request.Context(), assignmentID)
		if err != nil {
			log.Error().Err(err).Str("assignmentID", assignmentID).Msg("Failed to get completion")
			c.JSON(statusForError(err), dto.ErrorResponse{Message: "Failed to retrieve completion", Details: []string{err.Error()}})
			return
		}
		if completion == nil {
			c.JSON(http.StatusOK, []dto.CompletionDTO{})
			return
		}
		c.JSON(http.StatusOK, []dto.CompletionDTO{completionDTO(*completion)})
		return
	}

	completions, err := ctrl.completions.FindAllMine(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list completions")
		c.JSON(statusForError(err), dto.ErrorResponse{Message: "Failed to retrieve completions", Details: []string{err.Error()}})
		return
	}

	out := make([]dto.CompletionDTO, 0, len(completions))
	for _, completion := range completions {
		out = append(out, completionDTO(completion))
	}
	c.JSON(http.StatusOK, out)
}

func completionDTO(completion model.AssignmentCompletion) dto.CompletionDTO {
	return dto.CompletionDTO{
		AssignmentID: completion.AssignmentID,
		Candidate:    completion.Candidate,
		CompletedAt:  completion.CompletedAt,
		Total:        completion.Total,
		Correct:      completion.Correct,
		Score:        completion.Score,
	}
}

// AnalyticsOverviewHandler godoc
// @Summary Get the analytics dashboard overview
// @Description Aggregates the candidate's raw attempt records locally, degrading to the backend's precomputed overview and then to the local journal when sources fail.
// @Tags analytics
// @Produce json
// @Param candidateId query string false "Filter by candidate"
// @Param topic query string false "Filter by topic"
// @Param difficulty query int false "Filter by difficulty 1-5"
// @Success 200 {object} model.AnalyticsOverview
// @Failure 400 {object} dto.ErrorResponse "Invalid difficulty format"
// @Failure 502 {object} dto.ErrorResponse "All analytics sources unavailable"
// @Router /analytics/overview [get]
func (ctrl *Controller) AnalyticsOverviewHandler(c *gin.Context) {
	filter := repository.OverviewFilter{
		Candidate: c.Query("candidateId"),
		Topic:     c.Query("topic"),
	}
	if difficultyStr := c.Query("difficulty"); difficultyStr != "" {
		difficulty, err := strconv.Atoi(difficultyStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid difficulty format"})
			return
		}
		filter.Difficulty = difficulty
	}

	overview, err := ctrl.analyticsSvc.Overview(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build analytics overview")
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Message: "Failed to build analytics overview", Details: []string{err.Error()}})
		return
	}
	c.JSON(http.StatusOK, overview)
}
