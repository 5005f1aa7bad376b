package dto

// CreateCollegeRequest represents a request to create a college
type CreateCollegeRequest struct {
	Code                 string `json:"code" binding:"required,min=2,max=32,alphanum,uppercase" example:"ENG"`
	Name                 string `json:"name" binding:"required,max=255" example:"College of Engineering"`
	DefaultEventCapacity *int   `json:"defaultEventCapacity,omitempty" binding:"omitempty,min=1" example:"150"`
}

// RenameCollegeRequest represents a request to rename a college
type RenameCollegeRequest struct {
	Name string `json:"name" binding:"required,max=255" example:"Faculty of Engineering"`
}

// CreateCommunityRequest represents a request to create a community
type CreateCommunityRequest struct {
	Name         string `json:"name" binding:"required,max=255" example:"IEEE Student Branch"`
	Abbreviation string `json:"abbreviation" binding:"max=32" example:"IEEE"`
	CollegeID    *int64 `json:"collegeId,omitempty" binding:"omitempty,min=1" example:"1"`
}

// LinkCollegeRequest represents a request to link a community to a college
type LinkCollegeRequest struct {
	CollegeID int64 `json:"collegeId" binding:"required,min=1" example:"1"`
}

// LinkCollegeResponse reports whether linking changed anything
type LinkCollegeResponse struct {
	CommunityID       int64  `json:"communityId" example:"3"`
	CollegeID         int64  `json:"collegeId" example:"1"`
	PreviousCollegeID *int64 `json:"previousCollegeId,omitempty" example:"2"`
	Changed           bool   `json:"changed" example:"true"`
}
