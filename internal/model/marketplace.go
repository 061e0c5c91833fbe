package model

// Service request statuses.
const (
	StatusRequested  = "requested"
	StatusAssigned   = "assigned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusClosed     = "closed"
	StatusCancelled  = "cancelled"
)

// Professional verification statuses.
const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// Service is a catalog entry offered by professionals.
type Service struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	BasePrice     float64 `json:"base_price"`
	EstimatedTime int     `json:"estimated_time"` // minutes
	Description   string  `json:"description"`
	IsActive      bool    `json:"is_active"`
	CreatedAt     Time    `json:"created_at"`
}

// ServiceInput is the create/update payload for a service.
type ServiceInput struct {
	Name          string  `json:"name" validate:"required"`
	BasePrice     float64 `json:"base_price" validate:"gt=0"`
	EstimatedTime int     `json:"estimated_time,omitempty" validate:"gte=0"`
	Description   string  `json:"description,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

// ServiceRequest is a customer's booking of a service.
type ServiceRequest struct {
	ID               int64    `json:"id"`
	CustomerID       int64    `json:"customer_id"`
	CustomerName     string   `json:"customer_name"`
	ServiceID        int64    `json:"service_id"`
	ServiceName      string   `json:"service_name"`
	ProfessionalID   *int64   `json:"professional_id"`
	ProfessionalName string   `json:"professional_name"`
	RequestDate      Time     `json:"request_date"`
	ScheduledDate    Time     `json:"scheduled_date"`
	CompletionDate   Time     `json:"completion_date"`
	Status           string   `json:"status"`
	Remarks          string   `json:"remarks"`
	LastUpdated      Time     `json:"last_updated"`
	Reviews          []Review `json:"reviews,omitempty"`
}

// RequestInput is the create/update payload for a service request.
type RequestInput struct {
	ServiceID     int64  `json:"service_id,omitempty" validate:"required"`
	ScheduledDate string `json:"scheduled_date,omitempty" validate:"required"`
	Remarks       string `json:"remarks,omitempty"`
}

// RequestAction is a lifecycle transition posted to /service-requests/{id}/action.
type RequestAction struct {
	Action string `json:"action" validate:"required,oneof=accept reject start complete close"`
	Reason string `json:"reason,omitempty"`
}

// Review is a customer's rating of a completed request.
type Review struct {
	ID               int64  `json:"id"`
	ServiceRequestID int64  `json:"service_request_id"`
	CustomerID       int64  `json:"customer_id"`
	CustomerName     string `json:"customer_name,omitempty"`
	ProfessionalID   int64  `json:"professional_id"`
	ProfessionalName string `json:"professional_name,omitempty"`
	Rating           int    `json:"rating"`
	Comment          string `json:"comment"`
	CreatedAt        Time   `json:"created_at"`
}

// ReviewInput is the submit/update payload for a review.
type ReviewInput struct {
	ServiceRequestID int64  `json:"service_request_id" validate:"required"`
	Rating           int    `json:"rating" validate:"min=1,max=5"`
	Comment          string `json:"comment,omitempty"`
}

// Notification is an in-app message for the current user.
type Notification struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt Time   `json:"created_at"`
}

// Professional is a service provider profile.
type Professional struct {
	ID                 int64   `json:"id"`
	UserID             int64   `json:"user_id"`
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	Phone              string  `json:"phone"`
	ServiceID          int64   `json:"service_id"`
	ServiceName        string  `json:"service_name"`
	Bio                string  `json:"bio"`
	YearsExperience    int     `json:"years_experience"`
	VerificationStatus string  `json:"verification_status"`
	DocumentsURL       string  `json:"documents_url"`
	Rating             float64 `json:"rating"`
	IsActive           bool    `json:"is_active"`
}

// ProfessionalInput is the profile update payload.
type ProfessionalInput struct {
	Name            string `json:"name,omitempty"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,phone"`
	ServiceID       int64  `json:"service_id,omitempty"`
	Bio             string `json:"bio,omitempty"`
	YearsExperience *int   `json:"years_experience,omitempty" validate:"omitempty,gte=0"`
}

// Verification is an admin's decision on a professional's documents.
type Verification struct {
	Action  string `json:"action" validate:"required,oneof=approve reject"`
	Message string `json:"message,omitempty"`
}

// Customer is a customer profile.
type Customer struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Pincode  string `json:"pincode"`
	IsActive bool   `json:"is_active"`
}

// CustomerInput is the profile update payload.
type CustomerInput struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,phone"`
	Address string `json:"address,omitempty"`
	Pincode string `json:"pincode,omitempty" validate:"omitempty,pincode"`
}

// Counts is one group of entity counters in the admin dashboard.
type Counts struct {
	Customers       int `json:"customers"`
	Professionals   int `json:"professionals"`
	Services        int `json:"services"`
	ServiceRequests int `json:"service_requests,omitempty"`
}

// Activity counts entities created over the last week.
type Activity struct {
	NewCustomers     int `json:"new_customers"`
	NewProfessionals int `json:"new_professionals"`
	NewRequests      int `json:"new_requests"`
}

// DashboardStats are the admin aggregate counters.
type DashboardStats struct {
	TotalCounts          Counts         `json:"total_counts"`
	ActiveCounts         Counts         `json:"active_counts"`
	RecentActivity       Activity       `json:"recent_activity"`
	RequestStatus        map[string]int `json:"request_status"`
	PendingVerifications int            `json:"pending_verifications"`
}
