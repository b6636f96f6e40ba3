package handler

import (
	"github.com/loanflow/origination/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type sendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type confirmCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code"  validate:"required,len=6,numeric"`
}

type verificationTokenResponse struct {
	VerificationToken string `json:"verification_token"`
}

type registerRequest struct {
	Name              string `json:"name"               validate:"required"`
	Username          string `json:"username"           validate:"required"`
	Email             string `json:"email"              validate:"required,email"`
	Password          string `json:"password"           validate:"required,min=8"`
	VerificationToken string `json:"verification_token" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

// --- Catalog ---

type createModuleRequest struct {
	Name        string `json:"name"        validate:"required,max=120"`
	Description string `json:"description"`
	Status      string `json:"status"      validate:"omitempty,oneof=Active Inactive"`
	Logo        string `json:"logo"`
}

type createProductRequest struct {
	Name        string    `json:"name"         validate:"required,max=120"`
	Description string    `json:"description"`
	MinimumLoan float64   `json:"minimum_loan" validate:"gte=0"`
	MaximumLoan float64   `json:"maximum_loan" validate:"gt=0"`
	Rates       []float64 `json:"rate"         validate:"required,min=1,dive,gt=0"`
	TenureYears int       `json:"tenure"       validate:"gt=0"`
}

type moduleResponse struct {
	*domain.LoanModule
	ProductCount int    `json:"product_count"`
	RateRange    string `json:"rate_range"`
	TenureRange  string `json:"tenure_range"`
}

// --- Applications ---

type createApplicationRequest struct {
	CustomerID string         `json:"customer_id"`
	ModuleID   string         `json:"module_id"`
	ProductID  string         `json:"product_id"`
	AgentID    string         `json:"agent_id"`
	AdminID    string         `json:"admin_id"`
	Remarks    string         `json:"remarks"`
	Fields     map[string]any `json:"fields"`
}

type listApplicationsQuery struct {
	Module string `query:"module"`
	Status string `query:"status"`
	Search string `query:"search"`
	Page   int    `query:"page"  validate:"gte=0"`
	Limit  int    `query:"limit" validate:"gte=0,max=100"`
}

type assignRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type setModuleRequest struct {
	ModuleID string `json:"module_id" validate:"required"`
}

type applicationDetailResponse struct {
	*domain.Application
	Remarks []*domain.WorkflowRemark `json:"remarks"`
}

type pageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listApplicationsResponse struct {
	Data []*domain.Application `json:"data"`
	Meta pageMeta              `json:"meta"`
}

type autoSaveResponse struct {
	Application *domain.Application `json:"application"`
	Applied     []string            `json:"applied"`
}

type deleteRequestRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type topModuleResponse struct {
	ModuleID string `json:"module_id"`
	Name     string `json:"name"`
	Total    int64  `json:"total"`
	Week     int64  `json:"week"`
}

type dashboardResponse struct {
	TotalApplications   int64                  `json:"total_applications"`
	WeekApplications    int64                  `json:"week_applications"`
	TotalActive         int64                  `json:"total_active"`
	WeekActive          int64                  `json:"week_active"`
	TotalPending        int64                  `json:"total_pending"`
	TotalApproved       int64                  `json:"total_approved"`
	TotalRejected       int64                  `json:"total_rejected"`
	TotalCustomers      int64                  `json:"total_customers"`
	WeekCustomers       int64                  `json:"week_customers"`
	TotalDisbursed      float64                `json:"total_disbursed"`
	WeekDisbursed       float64                `json:"week_disbursed"`
	DisbursedGrowth     float64                `json:"disbursed_growth_percent"`
	MonthlyDisbursed    []float64              `json:"monthly_disbursed"`
	TopModules          []topModuleResponse    `json:"top_modules"`
	RecentApplications  []*domain.Application  `json:"recent_applications"`
	RecentNotifications []*domain.Notification `json:"recent_notifications"`
}

// --- Workflow ---

type remarkRequest struct {
	Status  string `json:"status"  validate:"required"`
	Remarks string `json:"remarks" validate:"required"`
}

type remarkResponse struct {
	Remark            *domain.WorkflowRemark   `json:"remark,omitempty"`
	ApplicationStatus domain.ApplicationStatus `json:"application_status"`
	StatusChanged     bool                     `json:"status_changed"`
}

// --- Notifications ---

type listNotificationsQuery struct {
	Unread bool `query:"unread"`
	Limit  int  `query:"limit" validate:"gte=0,max=200"`
}

type notificationListResponse struct {
	Data        []*domain.Notification `json:"data"`
	UnreadCount int64                  `json:"unread_count"`
}

type openNotificationResponse struct {
	ReferenceID string `json:"reference_id"`
	Link        string `json:"link"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

// --- Users ---

type modulePermissionsRequest struct {
	ModuleIDs []string `json:"module_ids" validate:"required"`
}

type userStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

type subAgentRequest struct {
	UserID string `json:"user_id" validate:"required"`
}
