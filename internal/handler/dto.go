package handler

// CreateProjectRequest is the body for creating a project
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// AddMemberRequest identifies the user to add by email or username
type AddMemberRequest struct {
	EmailOrUsername string `json:"emailOrUsername" binding:"required"`
}

// UpdatePresenceRequest is the body for the REST presence fallback
type UpdatePresenceRequest struct {
	Status string `json:"status"`
}

// PostMessageRequest is the body for the REST chat fallback
type PostMessageRequest struct {
	Message string `json:"message" binding:"required"`
}
