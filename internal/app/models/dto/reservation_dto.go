package dto

// CreateStudySpaceRequest represents a request to create a study space
type CreateStudySpaceRequest struct {
	Name      string `json:"name" binding:"required,max=255" example:"Library Room 2"`
	CollegeID *int64 `json:"collegeId,omitempty" binding:"omitempty,min=1" example:"1"`
	Capacity  int    `json:"capacity" binding:"required,min=1" example:"12"`
}

// CreateReservationRequest represents a request to book a seat for one day
type CreateReservationRequest struct {
	SpaceID int64  `json:"spaceId" binding:"required,min=1" example:"4"`
	Date    string `json:"date" binding:"required,datetime=2006-01-02" example:"2025-05-12"`
}

// MaintenanceResponse is the outcome of a maintenance pass triggered over HTTP
type MaintenanceResponse struct {
	Job     string      `json:"job" example:"reconcile"`
	Checked int         `json:"checked" example:"14"`
	Changed int         `json:"changed" example:"2"`
	Report  interface{} `json:"report"`
}
