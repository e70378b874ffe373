package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Kamiltczarnik/Lira/advisor"
	"github.com/Kamiltczarnik/Lira/apperror"
	"github.com/Kamiltczarnik/Lira/logging"
	"github.com/Kamiltczarnik/Lira/models"
	"github.com/Kamiltczarnik/Lira/nessie"
	"github.com/Kamiltczarnik/Lira/store"
)

const bannerMessage = "AI Banking Advisor & Nessie Backend Active"

// Catalog is the read side of the product catalog.
type Catalog interface {
	Records() store.Records
}

// Replier produces the advisor reply for a conversation.
type Replier interface {
	Reply(ctx context.Context, history []advisor.Message, latest string, profile *models.CustomerProfile) (string, error)
}

// Narrator turns a reply into an audio URL, or "" when there is none.
type Narrator interface {
	Narrate(ctx context.Context, text string) string
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	catalog  Catalog
	records  nessie.Records
	advisor  Replier
	narrator Narrator
	log      logrus.FieldLogger
}

// NewHandler wires the route handlers. narrator may be nil when speech is off.
func NewHandler(catalog Catalog, records nessie.Records, adv Replier, narrator Narrator, log logrus.FieldLogger) *Handler {
	return &Handler{
		catalog:  catalog,
		records:  records,
		advisor:  adv,
		narrator: narrator,
		log:      log,
	}
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": bannerMessage})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getProducts(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Records())
}

func (h *Handler) chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadBody(c, err)
		return
	}
	if fieldErrors := ValidateRequest(&req); fieldErrors != nil {
		respondWithValidationError(c, fieldErrors)
		return
	}

	logData := logging.GetLogData(c, h.log)
	if req.UserData != nil {
		logData.AddData("customerId", req.UserData.CustomerID)
	}

	if len(req.Messages) > 0 {
		h.chatTranscript(c, req, logData)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.respondError(c, &apperror.ValidationError{Field: "message", Message: "message is required"}, "")
		return
	}

	endTimer := logData.AddTiming("chatMs")
	endUpstream := logData.AddToExistingTiming("upstreamMs")
	reply, err := h.advisor.Reply(c.Request.Context(), req.History, req.Message, req.UserData)
	endUpstream()
	endTimer()
	if err != nil {
		h.respondError(c, err, "Failed to get a response from the advisor")
		return
	}

	history := make([]advisor.Message, 0, len(req.History)+2)
	history = append(history, req.History...)
	history = append(history,
		advisor.Message{Role: advisor.RoleUser, Content: req.Message},
		advisor.Message{Role: advisor.RoleAssistant, Content: reply},
	)
	c.JSON(http.StatusOK, ChatResponse{Reply: reply, History: history})
}

func (h *Handler) chatTranscript(c *gin.Context, req ChatRequest, logData *logging.LogData) {
	last := req.Messages[len(req.Messages)-1]
	if last.Role != advisor.RoleUser {
		h.respondError(c, &apperror.ValidationError{Field: "messages", Message: "The last message must be from the user"}, "")
		return
	}
	if strings.TrimSpace(last.Content) == "" {
		h.respondError(c, &apperror.ValidationError{Field: "message", Message: "message is required"}, "")
		return
	}

	endTimer := logData.AddTiming("chatMs")
	endUpstream := logData.AddToExistingTiming("upstreamMs")
	reply, err := h.advisor.Reply(c.Request.Context(), req.Messages[:len(req.Messages)-1], last.Content, req.UserData)
	endUpstream()
	endTimer()
	if err != nil {
		h.respondError(c, err, "Failed to get a response from the advisor")
		return
	}

	resp := ChatResponse{Reply: reply}
	if h.narrator != nil {
		endSpeech := logData.AddTiming("speechMs")
		endUpstream := logData.AddToExistingTiming("upstreamMs")
		resp.AudioURL = h.narrator.Narrate(c.Request.Context(), reply)
		endUpstream()
		endSpeech()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadBody(c, err)
		return
	}
	if fieldErrors := ValidateRequest(&req); fieldErrors != nil {
		respondWithValidationError(c, fieldErrors)
		return
	}

	customerID, err := h.records.Login(c.Request.Context(), req.Username)
	if err != nil {
		h.respondError(c, err, "Failed to fetch customers")
		return
	}
	logging.GetLogData(c, h.log).AddData("customerId", customerID)
	c.JSON(http.StatusOK, LoginResponse{CustomerID: customerID})
}

func (h *Handler) signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadBody(c, err)
		return
	}
	if fieldErrors := ValidateRequest(&req); fieldErrors != nil {
		respondWithValidationError(c, fieldErrors)
		return
	}

	signup, err := req.toSignup()
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	result, err := h.records.Signup(c.Request.Context(), signup)
	if err != nil {
		h.respondError(c, err, "Failed to create customer")
		return
	}
	logging.GetLogData(c, h.log).AddData("customerId", result.CustomerID)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getUser(c *gin.Context) {
	customerID := c.Param("customerId")
	logging.GetLogData(c, h.log).AddData("customerId", customerID)

	profile, err := h.records.Profile(c.Request.Context(), customerID)
	if err != nil {
		h.respondError(c, err, "Failed to fetch user data")
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) respondBadBody(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}

// respondError maps a classified error to its status. generic is the body for
// upstream and unclassified failures so service details never reach the client.
func (h *Handler) respondError(c *gin.Context, err error, generic string) {
	_ = c.Error(err)

	var validationErr *apperror.ValidationError
	switch {
	case errors.Is(err, apperror.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, apperror.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	default:
		if generic == "" {
			generic = "Internal server error"
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": generic})
	}
}
