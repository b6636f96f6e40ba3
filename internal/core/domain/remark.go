package domain

import "time"

// WorkflowRemark is one audited status declaration on an application.
type WorkflowRemark struct {
	ID            string            `json:"id" bson:"_id"`
	ApplicationID string            `json:"application_id" bson:"application_id"`
	Status        ApplicationStatus `json:"status" bson:"status"`
	Remarks       string            `json:"remarks" bson:"remarks"`
	UserID        string            `json:"user_id" bson:"user_id"`
	CreatedAt     time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" bson:"updated_at"`
}

// After reports whether r sorts after other in workflow order: creation time
// first, id second. Ids are allocated monotonically so they settle ties.
func (r *WorkflowRemark) After(other *WorkflowRemark) bool {
	if !r.CreatedAt.Equal(other.CreatedAt) {
		return r.CreatedAt.After(other.CreatedAt)
	}
	return r.ID > other.ID
}

// LatestRemark returns the remark that currently defines the application
// status, or nil for an empty slice.
func LatestRemark(remarks []*WorkflowRemark) *WorkflowRemark {
	var latest *WorkflowRemark
	for _, r := range remarks {
		if latest == nil || r.After(latest) {
			latest = r
		}
	}
	return latest
}

// DerivedStatus is the application status implied by latest.
func DerivedStatus(latest *WorkflowRemark) ApplicationStatus {
	if latest == nil {
		return StatusWithoutRemarks
	}
	return latest.Status
}
