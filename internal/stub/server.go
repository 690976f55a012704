// Package stub implements a development double of the expense backend this
// client consumes. It mirrors the contract only; the production backend
// remains an external collaborator.
package stub

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ulule/limiter/v3"
	limitergin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"expenseport/internal/core/domain"
	"expenseport/internal/dto"
	"expenseport/internal/middleware"
	"expenseport/internal/platform/config"
	"expenseport/internal/utils"
)

var allowedReceiptExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".pdf":  true,
}

// Server is the stub backend.
type Server struct {
	cfg    *config.Config
	store  *Store
	logger *slog.Logger
}

// NewServer creates a stub server around the given store.
func NewServer(cfg *config.Config, store *Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, store: store, logger: logger}
}

// Router builds the gin engine with the full consumed contract.
func (s *Server) Router() *gin.Engine {
	if s.cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(s.logger), gin.Recovery())

	// The stub stands in for a backend consumed by a browser frontend, so it
	// must answer preflight requests.
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}))

	rate, _ := limiter.NewRateFromFormatted("20-M")
	loginLimiter := limitergin.NewMiddleware(limiter.New(memory.NewStore(), rate))

	r.GET("/health", s.health)
	r.POST("/login", loginLimiter, s.login)
	r.POST("/signup", s.signup)
	r.POST("/logout", s.logout)

	authed := r.Group("/", middleware.AuthMiddleware(s.cfg.JWTSecret, s.store.RoleByID))
	{
		authed.GET("/me", s.me)
		authed.GET("/expenses", s.listExpenses)
		authed.POST("/expenses", middleware.RequireRoles(domain.RoleEmployee), s.submitExpense)

		admin := authed.Group("/api", middleware.RequireRoles(domain.RoleAdmin))
		{
			admin.GET("/admin/expenses", s.adminListExpenses)
			admin.POST("/admin/expenses/:id/approve", s.reviewExpense(domain.StatusApproved))
			admin.POST("/admin/expenses/:id/reject", s.reviewExpense(domain.StatusRejected))
			admin.GET("/policies", s.listPolicies)
			admin.POST("/policies", s.createPolicy)
			admin.GET("/dashboard", s.dashboard)
		}
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Expense platform is running!"})
}

func (s *Server) login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Username and password required"})
		return
	}

	acc, ok := s.store.FindUserByUsername(req.Username)
	if !ok || !utils.CheckPasswordHash(req.Password, acc.PasswordHash) {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid credentials"})
		return
	}

	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.JWTIssuer,
		Subject:   acc.ID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.JWTExpiryDuration)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		NotBefore: jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Error("Failed to sign token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Message: "Login successful",
		Token:   token,
		User:    domain.User{ID: acc.ID, Username: acc.Username, Role: acc.Role},
	})
}

func (s *Server) signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Username and password required"})
		return
	}
	// Public signup always creates employees; admins are provisioned out of band.
	if _, err := s.store.CreateUser(req.Username, req.Password, domain.RoleEmployee); err != nil {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "Username already exists"})
		return
	}
	c.JSON(http.StatusCreated, dto.MessageResponse{Message: "Account created successfully"})
}

func (s *Server) logout(c *gin.Context) {
	// Tokens are stateless; there is nothing to revoke in the stub.
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Logout successful"})
}

func (s *Server) me(c *gin.Context) {
	userID, _ := middleware.UserIDFromCtx(c.Request.Context())
	acc, ok := s.store.FindUserByID(userID)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "User not found for token"})
		return
	}
	c.JSON(http.StatusOK, dto.MeResponse{ID: acc.ID, Username: acc.Username, Role: acc.Role})
}

func (s *Server) listExpenses(c *gin.Context) {
	userID, _ := middleware.UserIDFromCtx(c.Request.Context())
	expenses := s.store.ExpensesByUser(userID)
	if expenses == nil {
		expenses = []domain.Expense{}
	}
	c.JSON(http.StatusOK, expenses)
}

func (s *Server) submitExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, _ := middleware.UserIDFromCtx(c.Request.Context())

	file, header, err := c.Request.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "No receipt file part"})
		return
	}
	defer file.Close()
	if header.Filename == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "No selected file"})
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedReceiptExtensions[ext] {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "File type not allowed"})
		return
	}

	vendor := c.PostForm("vendor")
	category := c.PostForm("category")
	amountStr := c.PostForm("amount")
	date := c.PostForm("date")
	if vendor == "" || amountStr == "" || date == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Missing required expense data: amount, date, vendor"})
		return
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil || !amount.IsPositive() {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid form data: amount must be a positive number"})
		return
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid form data: date must be YYYY-MM-DD"})
		return
	}
	currency := c.PostForm("currency")
	if currency == "" {
		currency = "USD"
	}

	expense := s.store.AddExpense(domain.Expense{
		SubmittedBy: userID,
		Amount:      amount,
		Currency:    currency,
		Category:    category,
		Date:        date,
		Vendor:      vendor,
		Description: c.PostForm("description"),
		ReceiptURL:  "/receipts/" + uuid.NewString() + ext,
	})
	logger.Info("Expense submitted", slog.String("expense_id", expense.ID))

	c.JSON(http.StatusCreated, dto.SubmitExpenseResponse{
		Message: "Expense submitted successfully",
		Expense: expense,
	})
}

func (s *Server) adminListExpenses(c *gin.Context) {
	expenses := s.store.AllExpenses()
	if expenses == nil {
		expenses = []domain.Expense{}
	}
	c.JSON(http.StatusOK, expenses)
}

func (s *Server) reviewExpense(status domain.ExpenseStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := s.store.UpdateExpenseStatus(id, status); err != nil {
			code := http.StatusConflict
			if strings.Contains(err.Error(), "not found") {
				code = http.StatusNotFound
			}
			c.JSON(code, dto.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, dto.MessageResponse{Message: "Expense " + string(status)})
	}
}

func (s *Server) listPolicies(c *gin.Context) {
	policies := s.store.Policies()
	if policies == nil {
		policies = []domain.Policy{}
	}
	c.JSON(http.StatusOK, policies)
}

func (s *Server) createPolicy(c *gin.Context) {
	var req dto.CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	limit, _ := decimal.NewFromString(req.Limit)
	policy := s.store.AddPolicy(domain.Policy{
		Category: req.Category,
		Limit:    limit,
		Role:     domain.Role(req.Role),
	})
	c.JSON(http.StatusCreated, policy)
}

func (s *Server) dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Summary())
}
