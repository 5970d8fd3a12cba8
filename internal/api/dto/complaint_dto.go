package dto

import "time"

// SubmitComplaintRequest is the JSON or multipart form body of a web submission.
type SubmitComplaintRequest struct {
	Name          string `json:"name" form:"name"`
	Phone         string `json:"phone" form:"phone"`
	Email         string `json:"email" form:"email"`
	Ward          string `json:"ward" form:"ward"`
	Department    string `json:"department" form:"department"`
	ComplaintType string `json:"complaintType" form:"complaintType"`
	Description   string `json:"description" form:"description"`
	Address       string `json:"address" form:"address"`
	Priority      string `json:"priority" form:"priority"`
}

// SubmitComplaintResponse is returned after a successful submission.
type SubmitComplaintResponse struct {
	TicketID            string    `json:"ticketId"`
	Status              string    `json:"status"`
	EstimatedResolution string    `json:"estimatedResolution"`
	SubmittedAt         time.Time `json:"submittedAt"`
	HasPhoto            bool      `json:"hasPhoto"`
}

// StatusUpdate is one history entry as shown to citizens.
type StatusUpdate struct {
	Date    time.Time `json:"date"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Officer string    `json:"officer"`
}

// TrackComplaintResponse is the citizen-facing complaint view.
type TrackComplaintResponse struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Phone               string         `json:"phone"`
	Email               string         `json:"email"`
	Department          string         `json:"department"`
	Ward                string         `json:"ward"`
	ComplaintType       string         `json:"complaintType"`
	Description         string         `json:"description"`
	Address             string         `json:"address"`
	Priority            string         `json:"priority"`
	Status              string         `json:"status"`
	SubmittedAt         time.Time      `json:"submittedAt"`
	EstimatedResolution string         `json:"estimatedResolution"`
	HasPhoto            bool           `json:"hasPhoto"`
	Updates             []StatusUpdate `json:"updates"`
}

// ComplaintListItem is one row of the admin complaint table.
type ComplaintListItem struct {
	ID              string    `json:"id"`
	TicketID        string    `json:"ticketId"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Department      string    `json:"department"`
	Ward            string    `json:"ward"`
	ComplaintType   string    `json:"complaintType"`
	Description     string    `json:"description"`
	Priority        string    `json:"priority"`
	Status          string    `json:"status"`
	SubmittedAt     time.Time `json:"submittedAt"`
	AssignedOfficer string    `json:"assignedOfficer"`
	HasPhoto        bool      `json:"hasPhoto"`
}

// PhotoMeta describes an attached photo without its bytes.
type PhotoMeta struct {
	ContentType string    `json:"contentType"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// CitizenInfo is the complainant's contact data.
type CitizenInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// ComplaintDetails is the complaint body in the admin detail view.
type ComplaintDetails struct {
	Department  string     `json:"department"`
	Ward        string     `json:"ward"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	Address     string     `json:"address"`
	Priority    string     `json:"priority"`
	Photo       *PhotoMeta `json:"photo,omitempty"`
}

// HistoryEntry is a status history entry in the admin detail view.
type HistoryEntry struct {
	Status    string    `json:"status"`
	UpdatedBy string    `json:"updatedBy"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Timestamps holds complaint lifecycle times.
type Timestamps struct {
	Submitted   time.Time `json:"submitted"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// ComplaintDetailResponse is the full complaint record for admins.
type ComplaintDetailResponse struct {
	ID                  string           `json:"id"`
	TicketID            string           `json:"ticketId"`
	CitizenInfo         CitizenInfo      `json:"citizenInfo"`
	ComplaintDetails    ComplaintDetails `json:"complaintDetails"`
	Status              string           `json:"status"`
	StatusHistory       []HistoryEntry   `json:"statusHistory"`
	Timestamps          Timestamps       `json:"timestamps"`
	AssignedOfficer     string           `json:"assignedOfficer"`
	EstimatedResolution string           `json:"estimatedResolution"`
	HasPhoto            bool             `json:"hasPhoto"`
}

// UpdateStatusRequest changes a complaint's status.
type UpdateStatusRequest struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// UpdateStatusResponse confirms a status change.
type UpdateStatusResponse struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticketId"`
	Status      string    `json:"status"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Pagination mirrors the admin table pager.
type Pagination struct {
	Current int  `json:"current"`
	Pages   int  `json:"pages"`
	Total   int  `json:"total"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}
